// Package auth issues and verifies the signed access and refresh tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"inkwell/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when a token's exp claim is in the past.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid is returned for bad signatures, wrong algorithms and malformed tokens.
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims is the payload carried by both token kinds.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService signs access tokens with the primary secret and refresh tokens
// with a separate one. It holds no mutable state after construction.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock overrides the time source used for iat/exp and for verification.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService builds a TokenService from the configured secrets and lifetimes.
func NewTokenService(cfg *config.Config, opts ...Option) *TokenService {
	s := &TokenService{
		accessSecret:  []byte(cfg.SecretKey),
		refreshSecret: []byte(cfg.RefreshTokenSecretKey),
		accessTTL:     cfg.AccessTokenTTL(),
		refreshTTL:    cfg.RefreshTokenTTL(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueAccess returns a short-lived access token for the user.
func (s *TokenService) IssueAccess(userID uint) (string, error) {
	return s.issue(userID, s.accessSecret, s.accessTTL)
}

// IssueRefresh returns a long-lived refresh token for the user.
func (s *TokenService) IssueRefresh(userID uint) (string, error) {
	return s.issue(userID, s.refreshSecret, s.refreshTTL)
}

// VerifyAccess checks a token against the access secret.
func (s *TokenService) VerifyAccess(token string) (*Claims, error) {
	return s.Verify(token, s.accessSecret)
}

// VerifyRefresh checks a token against the refresh secret.
func (s *TokenService) VerifyRefresh(token string) (*Claims, error) {
	return s.Verify(token, s.refreshSecret)
}

// Verify decodes token, checks its HS256 signature against secret and its expiry.
// It fails with ErrTokenExpired or ErrTokenInvalid.
func (s *TokenService) Verify(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) issue(userID uint, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("token secret not configured")
	}

	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
