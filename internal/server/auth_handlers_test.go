package server

import (
	"net/http"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/service"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	h := newHarness(t)
	testutil.CreateUser(t, h.db, "taken", false)

	valid := registerRequest{Username: "newwriter", Email: "newwriter@example.com", Password1: "Sup3r-Secret!x", Password2: "Sup3r-Secret!x"}

	tests := []struct {
		name       string
		req        registerRequest
		wantStatus int
		wantMsg    string
	}{
		{name: "created", req: valid, wantStatus: http.StatusCreated},
		{
			name:       "mismatched passwords",
			req:        registerRequest{Username: "other", Email: "other@example.com", Password1: "Sup3r-Secret!x", Password2: "Sup3r-Secret!y"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Passwords do not match",
		},
		{
			name:       "duplicate username",
			req:        registerRequest{Username: "taken", Email: "fresh@example.com", Password1: "Sup3r-Secret!x", Password2: "Sup3r-Secret!x"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "User already exists",
		},
		{
			name:       "weak password",
			req:        registerRequest{Username: "weak", Email: "weak@example.com", Password1: "12345678", Password2: "12345678"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := h.do(t, http.MethodPost, "/api/users/register", tt.req, "")
			require.Equal(t, tt.wantStatus, status, string(body))

			if tt.wantStatus == http.StatusCreated {
				out := decode[models.UserOut](t, body)
				assert.NotZero(t, out.ID)
				assert.Equal(t, tt.req.Username, out.Username)
				assert.Equal(t, tt.req.Email, out.Email)
				assert.NotContains(t, string(body), "password")
				return
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errorMessage(t, body))
			}
		})
	}
}

func TestTokenLifecycle(t *testing.T) {
	h := newHarness(t)
	user := testutil.CreateUser(t, h.db, "alice", false)

	status, body := h.do(t, http.MethodPost, "/api/users/token",
		tokenRequest{Username: "alice", Password: testutil.DefaultPassword}, "")
	require.Equal(t, http.StatusOK, status, string(body))
	pair := decode[service.TokenPair](t, body)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	status, body = h.do(t, http.MethodGet, "/api/users/me", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, status)
	profile := decode[models.Profile](t, body)
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "alice", profile.Username)
	assert.False(t, profile.IsStaff)

	// Each token kind is signed with its own secret.
	status, _ = h.do(t, http.MethodGet, "/api/users/me", nil, pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = h.do(t, http.MethodPost, "/api/users/token/refresh", refreshRequest{RefreshToken: pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, status, string(body))
	refreshed := decode[map[string]string](t, body)
	assert.NotEmpty(t, refreshed["access_token"])
	assert.NotContains(t, refreshed, "refresh_token")

	status, _ = h.do(t, http.MethodGet, "/api/users/me", nil, refreshed["access_token"])
	assert.Equal(t, http.StatusOK, status)

	status, body = h.do(t, http.MethodPost, "/api/users/token/refresh", refreshRequest{RefreshToken: pair.AccessToken}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid refresh token", errorMessage(t, body))

	require.NoError(t, h.db.Delete(&models.User{}, user.ID).Error)
	status, body = h.do(t, http.MethodPost, "/api/users/token/refresh", refreshRequest{RefreshToken: pair.RefreshToken}, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User does not exist", errorMessage(t, body))
}

func TestObtainToken_InvalidCredentials(t *testing.T) {
	h := newHarness(t)
	testutil.CreateUser(t, h.db, "bob", false)
	inactive := testutil.CreateUser(t, h.db, "carol", false)
	require.NoError(t, h.db.Model(inactive).Update("is_active", false).Error)

	for _, req := range []tokenRequest{
		{Username: "bob", Password: "wrong-password"},
		{Username: "nobody", Password: testutil.DefaultPassword},
		{Username: "carol", Password: testutil.DefaultPassword},
	} {
		status, body := h.do(t, http.MethodPost, "/api/users/token", req, "")
		assert.Equal(t, http.StatusUnauthorized, status, req.Username)
		assert.Equal(t, "Invalid credentials", errorMessage(t, body))
	}
}

func TestAuthGate_FailsClosed(t *testing.T) {
	h := newHarness(t)
	user := testutil.CreateUser(t, h.db, "dave", false)
	token := h.tokenFor(t, user)

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "not-a-jwt",
	} {
		status, _ := h.do(t, http.MethodGet, "/api/users/me", nil, header)
		assert.Equal(t, http.StatusUnauthorized, status, name)
	}

	require.NoError(t, h.db.Model(user).Update("is_active", false).Error)
	status, _ := h.do(t, http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
}
