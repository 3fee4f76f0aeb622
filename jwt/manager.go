// Package jwt mints and verifies the short-lived bearer credentials issued
// when an onboarding OTP verifies, and the session credentials issued on
// client login. Subjects are onboarding tokens or client ids; no permanent
// account claims beyond a display name are carried.
package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with a shared HMAC secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key.
	MethodEd25519 SigningMethod = "ed25519"
)

// ErrTokenInvalid is returned for any token that fails signature, expiry, or
// claim checks.
var ErrTokenInvalid = errors.New("invalid token")

// Config holds the manager's immutable key material and token policy.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

// Claims is the minted claim set: a display name on top of the registered
// claims. Subject carries the session identity.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Manager mints and verifies bearer tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates key material for the configured signing method.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires a signing secret")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, errors.New("ed25519 requires a 64-byte private key")
		}
		if len(cfg.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.New("ed25519 requires a 32-byte public key")
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	return &Manager{config: cfg}, nil
}

// Mint issues a token for subject with the configured TTL. Each token gets a
// unique jti so two mints for the same subject are distinguishable.
func (m *Manager) Mint(subject, name string) (string, error) {
	if m == nil {
		return "", errors.New("jwt manager not initialized")
	}
	now := time.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	switch m.config.SigningMethod {
	case MethodEd25519:
		tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
		return tok.SignedString(ed25519.PrivateKey(m.config.PrivateKey))
	default:
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		return tok.SignedString(m.config.PrivateKey)
	}
}

// Verify parses and validates a token, returning its claims.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if m == nil {
		return nil, errors.New("jwt manager not initialized")
	}

	keyFunc := func(t *jwt.Token) (any, error) {
		switch m.config.SigningMethod {
		case MethodEd25519:
			if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
				return nil, ErrTokenInvalid
			}
			return ed25519.PublicKey(m.config.PublicKey), nil
		default:
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrTokenInvalid
			}
			return m.config.PrivateKey, nil
		}
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, keyFunc,
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
