package auth

import (
	"testing"
	"time"

	"inkwell/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                "access-secret-for-tests-0123456789",
		RefreshTokenSecretKey:    "refresh-secret-for-tests-0123456789",
		AccessTokenExpireMinutes: 30,
		RefreshTokenExpireDays:   7,
	}
}

func TestTokenService_PairResolvesToSameUser(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testConfig())

	access, err := svc.IssueAccess(42)
	require.NoError(t, err)
	refresh, err := svc.IssueRefresh(42)
	require.NoError(t, err)

	accessClaims, err := svc.VerifyAccess(access)
	require.NoError(t, err)
	refreshClaims, err := svc.VerifyRefresh(refresh)
	require.NoError(t, err)

	assert.Equal(t, uint(42), accessClaims.UserID)
	assert.Equal(t, accessClaims.UserID, refreshClaims.UserID)
}

func TestTokenService_Lifetimes(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(testConfig(), WithClock(func() time.Time { return fixed }))

	access, err := svc.IssueAccess(1)
	require.NoError(t, err)
	refresh, err := svc.IssueRefresh(1)
	require.NoError(t, err)

	ac, err := svc.VerifyAccess(access)
	require.NoError(t, err)
	rc, err := svc.VerifyRefresh(refresh)
	require.NoError(t, err)

	assert.Equal(t, fixed.Unix(), ac.IssuedAt.Unix())
	assert.Equal(t, fixed.Add(30*time.Minute).Unix(), ac.ExpiresAt.Unix())
	assert.Equal(t, fixed.Add(7*24*time.Hour).Unix(), rc.ExpiresAt.Unix())
}

func TestTokenService_SecretsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testConfig())

	access, err := svc.IssueAccess(7)
	require.NoError(t, err)
	refresh, err := svc.IssueRefresh(7)
	require.NoError(t, err)

	_, err = svc.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = svc.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Now().Add(-2 * time.Hour)
	issuer := NewTokenService(testConfig(), WithClock(func() time.Time { return issuedAt }))
	verifier := NewTokenService(testConfig())

	token, err := issuer.IssueAccess(3)
	require.NoError(t, err)

	_, err = verifier.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_Invalid(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testConfig())
	cfg := testConfig()

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(cfg.SecretKey))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1}).SignedString([]byte(cfg.SecretKey))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(cfg.SecretKey))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"three garbage segments", "aaa.bbb.ccc"},
		{"alg none", noneToken},
		{"wrong algorithm", hs512},
		{"missing exp", noExp},
		{"missing user", noUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyAccess(tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}
