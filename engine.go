package contactbook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/getcontactbook/contactbook/cache"
	"github.com/getcontactbook/contactbook/password"
	"github.com/getcontactbook/contactbook/token"
)

// Engine is the service core: token lifecycle, credential management, and
// ownership-scoped contact access with the read cache in front. Construct one
// via [Builder.Build]; zero-value Engines reject every call with
// [ErrEngineNotReady].
type Engine struct {
	config    Config
	tokens    *token.Manager
	hasher    *password.Argon2
	cache     *cache.Store
	users     UserStore
	contacts  ContactStore
	notifier  Notifier
	publisher EventPublisher
	metrics   *Metrics
	log       *zap.Logger
}

// MetricsSnapshot returns a copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.tokens == nil || e.hasher == nil || e.users == nil || e.contacts == nil {
		return ErrEngineNotReady
	}
	return nil
}

// verify checks a bearer token and maps token-package sentinels onto the
// engine's error surface.
func (e *Engine) verify(tokenStr string) (*token.Claims, error) {
	start := time.Now()
	claims, err := e.tokens.Verify(tokenStr)
	e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			e.metricInc(MetricTokenExpired)
			return nil, ErrExpiredToken
		}
		e.metricInc(MetricTokenRejected)
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// authorize resolves a session token to its user record. The store record is
// authoritative for the role; the role claim inside the token is only a hint.
func (e *Engine) authorize(ctx context.Context, tokenStr string) (User, *token.Claims, error) {
	if err := e.ready(); err != nil {
		return User{}, nil, err
	}

	claims, err := e.verify(tokenStr)
	if err != nil {
		return User{}, nil, err
	}

	user, err := e.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Subject no longer resolves; the token is worthless.
			e.metricInc(MetricTokenRejected)
			return User{}, nil, ErrInvalidToken
		}
		return User{}, nil, err
	}

	return user, claims, nil
}

// cacheTTL is the remaining validity of the credential that authorized the
// read. Entries written with it can never outlive the token.
func cacheTTL(claims *token.Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}

// cacheGet fetches and decodes an entry. Cache failures degrade to a miss.
func (e *Engine) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if e.cache == nil {
		return false
	}

	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		e.metricInc(MetricCacheMiss)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		e.log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}

	e.metricInc(MetricCacheHit)
	return true
}

// cacheSet encodes and stores value with the token-derived ttl.
func (e *Engine) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if e.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		e.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	stored, err := e.cache.Set(ctx, key, data, ttl)
	if err != nil {
		e.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !stored {
		e.metricInc(MetricCacheSkipExpired)
	}
}

// cacheEvictContact drops every entry a write to the contact could have made
// stale. Called only after the store write committed.
func (e *Engine) cacheEvictContact(ctx context.Context, ownerID, contactID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateContact(ctx, ownerID, contactID); err != nil {
		e.log.Warn("cache invalidation failed",
			zap.String("owner_id", ownerID),
			zap.String("contact_id", contactID),
			zap.Error(err),
		)
		return
	}
	e.metricInc(MetricCacheEvict)
}

// notify delivers an out-of-band message. Failures are logged, never returned.
func (e *Engine) notify(ctx context.Context, recipient, subject, body string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, recipient, subject, body); err != nil {
		e.log.Warn("notification failed",
			zap.String("recipient", recipient),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// publish emits a lifecycle event. Failures are logged, never returned.
func (e *Engine) publish(ctx context.Context, event string) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.log.Warn("event publish failed", zap.String("event", event), zap.Error(err))
	}
}
