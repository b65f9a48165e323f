package contactbook

import (
	"errors"
	"time"
)

// Config carries all process-lifetime settings. It is validated once at
// [Builder.Build]; a misconfiguration (above all a missing signing secret) is
// a fatal startup error, never a per-request failure.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Cache    CacheConfig
	Account  AccountConfig
	Metrics  MetricsConfig
	Database DatabaseConfig
}

// TokenConfig configures the HMAC credential manager.
type TokenConfig struct {
	// Secret signs every session and reset token. Required, >= 32 bytes.
	Secret []byte
	// SessionTTL is the validity window of session tokens.
	SessionTTL time.Duration
	// ResetTTL is the validity window of password-reset tokens.
	ResetTTL time.Duration
	Issuer   string
	Leeway   time.Duration
}

// PasswordConfig carries the Argon2id parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// CacheConfig configures the Redis read cache. The cache is a performance
// layer only: with Enabled false (or no Redis client supplied to the Builder)
// every operation behaves identically, just slower.
type CacheConfig struct {
	Enabled     bool
	RedisPrefix string
	// MaxTTL caps the token-derived entry TTL. Zero means no cap; it can
	// shorten an entry's life but never extend it past token expiry.
	MaxTTL time.Duration
}

// AccountConfig configures registration.
type AccountConfig struct {
	DefaultRole Role
}

// MetricsConfig toggles the in-process counter registry.
type MetricsConfig struct {
	Enabled bool
	// EnableLatencyHistograms additionally records token verification
	// latency. Ignored unless Enabled is set.
	EnableLatencyHistograms bool
}

// DatabaseConfig is consumed by store/postgres.Open.
type DatabaseConfig struct {
	DSN             string
	MaxConnections  int
	MinConnections  int
	ConnMaxLifetime time.Duration
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			// Matches the original five-minute session window.
			SessionTTL: 5 * time.Minute,
			ResetTTL:   15 * time.Minute,
			Issuer:     "contactbook",
			Leeway:     0,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Cache: CacheConfig{
			Enabled:     true,
			RedisPrefix: "cb",
			MaxTTL:      0,
		},
		Account: AccountConfig{
			DefaultRole: RoleUser,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Database: DatabaseConfig{
			MaxConnections:  25,
			MinConnections:  5,
			ConnMaxLifetime: 30 * time.Minute,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for use. It is called by [Builder.Build];
// any error here aborts startup.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) == 0 {
		return errors.New("Token Secret is required")
	}
	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be >= 256 bits")
	}
	if c.Token.SessionTTL <= 0 {
		return errors.New("Token SessionTTL must be > 0")
	}
	if c.Token.ResetTTL <= 0 {
		return errors.New("Token ResetTTL must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Cache
	if c.Cache.Enabled && c.Cache.RedisPrefix == "" {
		return errors.New("Cache RedisPrefix is required when cache is enabled")
	}
	if c.Cache.MaxTTL < 0 {
		return errors.New("Cache MaxTTL must be >= 0")
	}

	// Account
	if !c.Account.DefaultRole.Valid() {
		return errors.New("Account DefaultRole is invalid")
	}

	return nil
}
