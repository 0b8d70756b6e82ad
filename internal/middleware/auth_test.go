package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userLookupStub map[uint]*models.User

func (s userLookupStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, models.NewNotFoundError("User", id)
}

type failingLookup struct{}

func (failingLookup) GetByID(context.Context, uint) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func gateConfig() *config.Config {
	return &config.Config{
		SecretKey:                "gate-access-secret-0123456789abcdef",
		RefreshTokenSecretKey:    "gate-refresh-secret-0123456789abcdef",
		AccessTokenExpireMinutes: 5,
		RefreshTokenExpireDays:   1,
	}
}

func newGateApp(gate *AuthGate) *fiber.App {
	app := fiber.New()
	app.Get("/protected", gate.Required(), func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		return c.SendString(strconv.FormatUint(uint64(user.ID), 10) + ":" + user.Username)
	})
	return app
}

func TestAuthGate_Required(t *testing.T) {
	cfg := gateConfig()
	tokens := auth.NewTokenService(cfg)
	users := userLookupStub{
		1: {ID: 1, Username: "alice", IsActive: true},
		2: {ID: 2, Username: "mallory", IsActive: false},
	}
	app := newGateApp(NewAuthGate(tokens, users))

	valid, err := tokens.IssueAccess(1)
	require.NoError(t, err)
	refresh, err := tokens.IssueRefresh(1)
	require.NoError(t, err)
	ghost, err := tokens.IssueAccess(99)
	require.NoError(t, err)
	inactive, err := tokens.IssueAccess(2)
	require.NoError(t, err)
	expired, err := auth.NewTokenService(cfg, auth.WithClock(func() time.Time {
		return time.Now().Add(-time.Hour)
	})).IssueAccess(1)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK, "1:alice"},
		{"Lowercase Scheme", "bearer " + valid, http.StatusOK, "1:alice"},
		{"Missing Header", "", http.StatusUnauthorized, ""},
		{"Invalid Format", "Token " + valid, http.StatusUnauthorized, ""},
		{"Malformed Token", "Bearer not.a.token", http.StatusUnauthorized, ""},
		{"Expired Token", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"Refresh Token Used As Access", "Bearer " + refresh, http.StatusUnauthorized, ""},
		{"Deleted User", "Bearer " + ghost, http.StatusUnauthorized, ""},
		{"Inactive User", "Bearer " + inactive, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.wantBody, string(body))
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAuthGate_LookupFailureFailsClosed(t *testing.T) {
	cfg := gateConfig()
	tokens := auth.NewTokenService(cfg)
	gate := NewAuthGate(tokens, failingLookup{})

	token, err := tokens.IssueAccess(1)
	require.NoError(t, err)

	user, ok := gate.Authenticate(context.Background(), token)
	assert.False(t, ok)
	assert.Nil(t, user)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("  BEARER   abc "))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken(""))
}
