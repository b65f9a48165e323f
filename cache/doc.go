// Package cache provides the Redis-backed read cache for contact lookups.
//
// # Key scheme
//
// Keys encode the authorization scope under which the value was produced:
//
//	<prefix>:contact:<ownerID>:<contactID>   single contact, owner-scoped
//	<prefix>:list:<ownerID>                  one owner's contact list
//	<prefix>:all                             the admin-only full listing
//
// A cache hit therefore never widens access: a different caller's lookup
// builds a different key, misses, and goes through the authoritative
// ownership check.
//
// # TTL discipline
//
// Entry TTLs are supplied by the caller from the remaining validity of the
// credential that authorized the read. [Store.Set] refuses non-positive TTLs
// and caps, never extends, them with the configured maximum, so no entry
// outlives the credential that produced it.
//
// # Architecture boundaries
//
// This package owns Redis operations and key construction. It does NOT
// interpret tokens, evaluate ownership, or decide what is cacheable; those
// responsibilities belong to the Engine. Values are opaque bytes.
package cache
