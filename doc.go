// Package contactbook provides a multi-tenant contact-book engine: HMAC-signed
// session credentials, Argon2id password storage, ownership-scoped contact CRUD,
// and a Redis read cache whose entry lifetimes never outlive the credential that
// produced them.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// contactbook is the public surface. It exposes [Engine], [Builder], [Config],
// the provider interfaces ([UserStore], [ContactStore], [Notifier],
// [EventPublisher]), and value types. Token signing lives in token/, password
// hashing in password/, the read cache in cache/, and persistence adapters in
// store/postgres.
//
// # Correctness contract
//
// Ownership is enforced on every contact operation, cache hit or miss: cache
// keys for owner-scoped reads always incorporate the acting user's id, so a hit
// can never substitute for the ownership check. Cache entries populated on a
// read carry a TTL equal to the remaining validity of the bearer token that
// authorized the read, and every mutation evicts the affected entries after the
// store write commits. All read paths remain correct with caching disabled.
package contactbook
