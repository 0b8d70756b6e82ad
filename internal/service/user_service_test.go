package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	passwordHashCost = bcrypt.MinCost
}

func testTokens(opts ...auth.Option) *auth.TokenService {
	return auth.NewTokenService(&config.Config{
		SecretKey:                "service-access-secret-0123456789abcdef",
		RefreshTokenSecretKey:    "service-refresh-secret-0123456789abcdef",
		AccessTokenExpireMinutes: 30,
		RefreshTokenExpireDays:   7,
	}, opts...)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestUserService_Register(t *testing.T) {
	valid := RegisterInput{Username: "writer", Email: "writer@example.com", Password1: "violet-harbor-77", Password2: "violet-harbor-77"}

	tests := []struct {
		name    string
		mutate  func(*RegisterInput)
		repo    func(*userRepoStub)
		wantMsg string
		wantErr string
	}{
		{name: "success"},
		{
			name:    "passwords differ",
			mutate:  func(in *RegisterInput) { in.Password2 = "something-else-99" },
			wantErr: models.CodeValidation,
			wantMsg: "Passwords do not match",
		},
		{
			name:    "weak password",
			mutate:  func(in *RegisterInput) { in.Password1, in.Password2 = "12345678", "12345678" },
			wantErr: models.CodeValidation,
		},
		{
			name: "password over bcrypt limit",
			mutate: func(in *RegisterInput) {
				long := strings.Repeat("violet-harbor-77", 5)
				in.Password1, in.Password2 = long, long
			},
			wantErr: models.CodeValidation,
			wantMsg: "This password is too long. It must contain at most 72 bytes.",
		},
		{
			name:    "bad email",
			mutate:  func(in *RegisterInput) { in.Email = "nope" },
			wantErr: models.CodeValidation,
		},
		{
			name:    "bad username",
			mutate:  func(in *RegisterInput) { in.Username = "has space" },
			wantErr: models.CodeValidation,
		},
		{
			name: "username taken",
			repo: func(r *userRepoStub) {
				r.getByUsernameFn = func(context.Context, string) (*models.User, error) { return &models.User{ID: 5}, nil }
			},
			wantErr: models.CodeValidation,
			wantMsg: "User already exists",
		},
		{
			name: "email taken",
			repo: func(r *userRepoStub) {
				r.getByEmailFn = func(context.Context, string) (*models.User, error) { return &models.User{ID: 5}, nil }
			},
			wantErr: models.CodeValidation,
			wantMsg: "User already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := noopUserRepo()
			var created *models.User
			repo.createFn = func(_ context.Context, u *models.User) error {
				u.ID = 42
				created = u
				return nil
			}
			if tt.repo != nil {
				tt.repo(repo)
			}
			in := valid
			if tt.mutate != nil {
				tt.mutate(&in)
			}

			user, err := NewUserService(repo, testTokens()).Register(context.Background(), in)
			if tt.wantErr != "" {
				assertAppError(t, err, tt.wantErr, tt.wantMsg)
				assert.Nil(t, created)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, uint(42), user.ID)
			assert.True(t, user.IsActive)
			assert.False(t, user.IsStaff)
			assert.NotEqual(t, in.Password1, user.Password)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password1)))
		})
	}
}

func TestUserService_CreateSuperuser(t *testing.T) {
	repo := noopUserRepo()
	user, err := NewUserService(repo, testTokens()).CreateSuperuser(context.Background(), SuperuserInput{
		Username: "root", Email: "root@example.com", Password: "violet-harbor-77",
	})
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsActive)
}

func TestUserService_Login(t *testing.T) {
	const password = "violet-harbor-77"
	active := &models.User{ID: 7, Username: "writer", Password: hashed(t, password), IsActive: true}
	inactive := &models.User{ID: 8, Username: "gone", Password: hashed(t, password), IsActive: false}

	repo := noopUserRepo()
	repo.getByUsernameFn = func(_ context.Context, name string) (*models.User, error) {
		switch name {
		case active.Username:
			return active, nil
		case inactive.Username:
			return inactive, nil
		}
		return nil, nil
	}
	tokens := testTokens()
	svc := NewUserService(repo, tokens)

	pair, err := svc.Login(context.Background(), "writer", password)
	require.NoError(t, err)
	access, err := tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), access.UserID)
	refresh, err := tokens.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), refresh.UserID)

	for _, tc := range []struct{ username, password string }{
		{"writer", "wrong-password"},
		{"nobody", password},
		{"gone", password},
	} {
		_, err := svc.Login(context.Background(), tc.username, tc.password)
		assertAppError(t, err, models.CodeUnauthorized, "Invalid credentials")
	}
}

func TestUserService_Refresh(t *testing.T) {
	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		if id == 7 {
			return &models.User{ID: 7}, nil
		}
		return nil, models.NewNotFoundError("User", id)
	}
	tokens := testTokens()
	svc := NewUserService(repo, tokens)
	ctx := context.Background()

	refresh, err := tokens.IssueRefresh(7)
	require.NoError(t, err)
	access, err := svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	claims, err := tokens.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)

	accessAsRefresh, err := tokens.IssueAccess(7)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, accessAsRefresh)
	assertAppError(t, err, models.CodeUnauthorized, "Invalid refresh token")

	_, err = svc.Refresh(ctx, "garbage")
	assertAppError(t, err, models.CodeUnauthorized, "Invalid refresh token")

	past := testTokens(auth.WithClock(func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }))
	expired, err := past.IssueRefresh(7)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, expired)
	assertAppError(t, err, models.CodeUnauthorized, "Refresh token has expired")

	orphan, err := tokens.IssueRefresh(99)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, orphan)
	assertAppError(t, err, models.CodeNotFound, "User does not exist")
}

func TestUserService_SetStaff(t *testing.T) {
	repo := noopUserRepo()
	target := &models.User{ID: 3, Username: "editor"}
	repo.getByUsernameFn = func(_ context.Context, name string) (*models.User, error) {
		if name == "editor" {
			return target, nil
		}
		return nil, nil
	}
	var saved *models.User
	repo.updateFn = func(_ context.Context, u *models.User) error { saved = u; return nil }
	svc := NewUserService(repo, testTokens())

	user, err := svc.SetStaff(context.Background(), "editor", true)
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.Same(t, target, saved)

	_, err = svc.SetStaff(context.Background(), "ghost", true)
	assertAppError(t, err, models.CodeNotFound, "User does not exist")
}
