package contactbook

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/getcontactbook/contactbook/cache"
	"github.com/getcontactbook/contactbook/password"
	"github.com/getcontactbook/contactbook/token"
)

// Builder assembles an [Engine]. Configure it fluently, then call Build once;
// all validation happens there so a misconfigured engine can never serve a
// request.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users     UserStore
	contacts  ContactStore
	notifier  Notifier
	publisher EventPublisher
	log       *zap.Logger

	built bool
}

// New returns a Builder preloaded with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the token signing secret without replacing the rest of the
// configuration.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Token.Secret = cloneBytes(secret)
	return b
}

// WithRedis supplies the Redis client backing the read cache. Leaving it
// unset disables caching regardless of configuration.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore supplies the credential store. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithContactStore supplies the contact store. Required.
func (b *Builder) WithContactStore(store ContactStore) *Builder {
	b.contacts = store
	return b
}

// WithNotifier supplies the notification channel. Optional; without one,
// notifications are dropped.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithPublisher supplies the lifecycle event publisher. Optional.
func (b *Builder) WithPublisher(p EventPublisher) *Builder {
	b.publisher = p
	return b
}

// WithLogger supplies the structured logger. Optional; defaults to a no-op.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.log = log
	return b
}

// WithMetricsEnabled toggles the counter registry.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles token verification latency recording.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wiring and returns the Engine. A
// Builder is single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.contacts == nil {
		return nil, errors.New("contact store required")
	}
	if cfg.Cache.Enabled && b.redis == nil {
		return nil, errors.New("cache enabled but no redis client supplied")
	}

	tokens, err := token.NewManager(token.Config{
		Secret:     cfg.Token.Secret,
		SessionTTL: cfg.Token.SessionTTL,
		ResetTTL:   cfg.Token.ResetTTL,
		Issuer:     cfg.Token.Issuer,
		Leeway:     cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	var readCache *cache.Store
	if cfg.Cache.Enabled {
		readCache = cache.NewStore(b.redis, cfg.Cache.RedisPrefix, cfg.Cache.MaxTTL)
	}

	log := b.log
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		config:    cfg,
		tokens:    tokens,
		hasher:    hasher,
		cache:     readCache,
		users:     b.users,
		contacts:  b.contacts,
		notifier:  b.notifier,
		publisher: b.publisher,
		metrics:   NewMetrics(cfg.Metrics),
		log:       log,
	}, nil
}
