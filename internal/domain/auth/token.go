// Package auth issues and verifies the JWTs used for bearer authentication and
// hashes user passwords.
package auth

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/fzokart/internal/domain/apperr"
)

const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

var (
	// ErrTokenInvalid is returned for malformed tokens or bad signatures.
	ErrTokenInvalid = apperr.Unauthorized("Invalid token. Please log in again!")
	// ErrTokenExpired is returned when the token's exp claim has passed.
	ErrTokenExpired = apperr.Unauthorized("Your token has expired! Please log in again.")
)

// Claims is the JWT payload. The user id travels in the "id" claim.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig holds signing keys and lifetimes.
type TokenConfig struct {
	Secret        []byte
	RefreshSecret []byte
	TTL           time.Duration
	RefreshTTL    time.Duration
}

// Tokens signs and verifies HS256 access and refresh tokens.
type Tokens struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokens creates a Tokens. A missing refresh secret falls back to the
// access secret; the audience claim still keeps the two token kinds apart.
func NewTokens(cfg TokenConfig) *Tokens {
	if len(cfg.RefreshSecret) == 0 {
		cfg.RefreshSecret = cfg.Secret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Tokens{cfg: cfg, now: time.Now}
}

// Issue returns a signed access token for the user.
func (t *Tokens) Issue(userID, role string) (string, error) {
	return t.sign(t.cfg.Secret, Claims{
		UserID:           userID,
		Role:             role,
		RegisteredClaims: t.registered(audienceAccess, t.cfg.TTL),
	})
}

// IssueRefresh returns a signed refresh token for the user.
func (t *Tokens) IssueRefresh(userID string) (string, error) {
	return t.sign(t.cfg.RefreshSecret, Claims{
		UserID:           userID,
		RegisteredClaims: t.registered(audienceRefresh, t.cfg.RefreshTTL),
	})
}

// Verify parses an access token and returns its claims.
func (t *Tokens) Verify(token string) (*Claims, error) {
	return t.parse(token, t.cfg.Secret, audienceAccess)
}

// VerifyRefresh parses a refresh token and returns its claims.
func (t *Tokens) VerifyRefresh(token string) (*Claims, error) {
	return t.parse(token, t.cfg.RefreshSecret, audienceRefresh)
}

func (t *Tokens) registered(aud string, ttl time.Duration) jwt.RegisteredClaims {
	now := t.now()
	return jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{aud},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *Tokens) sign(key []byte, claims Claims) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return s, nil
}

func (t *Tokens) parse(token string, key []byte, aud string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(aud),
		jwt.WithTimeFunc(t.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
