package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps any Redis transport failure. Callers treat it as a
// degraded-cache signal, not a request failure.
var ErrUnavailable = errors.New("cache unavailable")

// Store is a thin Redis adapter holding the key prefix and TTL cap.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	maxTTL time.Duration
}

// NewStore returns a Store using client. maxTTL of zero means entries live
// exactly as long as the TTL the caller supplies.
func NewStore(client redis.UniversalClient, prefix string, maxTTL time.Duration) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
		maxTTL: maxTTL,
	}
}

// ContactKey is the cache key for one contact, scoped to its owner.
func (s *Store) ContactKey(ownerID, contactID string) string {
	return s.prefix + ":contact:" + ownerID + ":" + contactID
}

// OwnerListKey is the cache key for one owner's full contact list.
func (s *Store) OwnerListKey(ownerID string) string {
	return s.prefix + ":list:" + ownerID
}

// AllKey is the cache key for the cross-owner listing.
func (s *Store) AllKey() string {
	return s.prefix + ":all"
}

// Get returns the value stored under key. A miss is (nil, false, nil); only
// transport failures produce an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, true, nil
}

// Set stores value under key for ttl, capped at the configured maximum. A
// non-positive ttl means the authorizing credential has no remaining
// validity; nothing is written and Set reports false.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	if s.maxTTL > 0 && ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return true, nil
}

// Invalidate removes keys. Deleting an absent key is not an error.
func (s *Store) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// InvalidateContact removes every entry a write to the given contact could
// have made stale: the contact itself, the owner's list, and the cross-owner
// listing.
func (s *Store) InvalidateContact(ctx context.Context, ownerID, contactID string) error {
	return s.Invalidate(ctx,
		s.ContactKey(ownerID, contactID),
		s.OwnerListKey(ownerID),
		s.AllKey(),
	)
}

// TTL reports the remaining life of key, for diagnostics and tests.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.redis.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return d, nil
}
