// Package token issues and verifies the HMAC-signed bearer credentials used
// for both sessions and password resets. The two flavors share one secret and
// one signing algorithm; they differ only in TTL and in the context a caller
// verifies them under: a reset token is never accepted as a session token by
// anything beyond this package, because the engine checks it against the
// user's stored reset token.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalid is returned for malformed or tampered tokens.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired is returned for well-formed tokens past their expiry.
	ErrExpired = errors.New("expired token")
)

// Config configures a [Manager]. Secret is the process-wide HMAC key; both
// TTLs must be positive.
type Config struct {
	Secret     []byte
	SessionTTL time.Duration
	ResetTTL   time.Duration
	Issuer     string
	Leeway     time.Duration
}

// Manager signs and verifies bearer tokens with HS256. Immutable after
// construction and safe for concurrent use.
type Manager struct {
	config Config
}

// Claims is the verified content of a bearer token. Subject is a user id for
// session tokens and an email for reset tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager. A missing or short secret
// is a configuration error and must abort startup.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("hmac secret must be >= 256 bits")
	}
	if cfg.SessionTTL <= 0 || cfg.ResetTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// IssueSession signs a session token for subject (a user id) with the
// configured session TTL.
func (m *Manager) IssueSession(subject, role string) (string, error) {
	return m.issue(subject, role, m.config.SessionTTL)
}

// IssueReset signs a reset token for subject (an email) with the configured
// reset TTL.
func (m *Manager) IssueReset(subject, role string) (string, error) {
	return m.issue(subject, role, m.config.ResetTTL)
}

func (m *Manager) issue(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Verify checks signature and expiry and returns the claims. Callers can rely
// on [ErrExpired] vs [ErrInvalid] to distinguish "log in again" from "reject
// outright".
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr, true)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	return claims, nil
}

// ExpiresAt extracts the expiry of a signature-valid token without enforcing
// it, so the remaining validity can be read even in the instant the token
// lapses. Used to derive cache entry TTLs.
func (m *Manager) ExpiresAt(tokenStr string) (time.Time, error) {
	claims, err := m.parse(tokenStr, false)
	if err != nil {
		return time.Time{}, ErrInvalid
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrInvalid
	}
	return claims.ExpiresAt.Time, nil
}

func (m *Manager) parse(tokenStr string, validateClaims bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if validateClaims && m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if !validateClaims {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
