// Package middleware provides the HTTP middleware chain: authentication,
// structured logging, tracing, metrics, host checks and rate limiting.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "userID"
	localUser   = "user"
)

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

// UserLookup resolves a user id to a stored account.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// AuthGate turns a bearer token into a live user or rejects it.
type AuthGate struct {
	tokens TokenVerifier
	users  UserLookup
}

// NewAuthGate returns an AuthGate backed by the given verifier and user store.
func NewAuthGate(tokens TokenVerifier, users UserLookup) *AuthGate {
	return &AuthGate{tokens: tokens, users: users}
}

// Authenticate verifies raw against the access secret and loads its user.
// A user that no longer exists, or is inactive, is treated like a bad token.
func (g *AuthGate) Authenticate(ctx context.Context, raw string) (*models.User, bool) {
	if raw == "" {
		observability.AuthFailures.WithLabelValues("missing").Inc()
		return nil, false
	}

	claims, err := g.tokens.VerifyAccess(raw)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, auth.ErrTokenExpired) {
			reason = "expired"
		}
		observability.AuthFailures.WithLabelValues(reason).Inc()
		return nil, false
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil || user == nil {
		var appErr *models.AppError
		if err != nil && !(errors.As(err, &appErr) && appErr.Code == models.CodeNotFound) {
			Logger.ErrorContext(ctx, "auth user lookup failed",
				slog.Uint64("claimed_user_id", uint64(claims.UserID)),
				slog.String("error", err.Error()),
			)
		}
		observability.AuthFailures.WithLabelValues("unknown_user").Inc()
		return nil, false
	}
	if !user.IsActive {
		observability.AuthFailures.WithLabelValues("inactive").Inc()
		return nil, false
	}

	return user, true
}

// Required rejects the request with 401 before the handler runs unless it
// carries a valid "Authorization: Bearer <token>" header.
func (g *AuthGate) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := g.Authenticate(c.UserContext(), bearerToken(c.Get(fiber.HeaderAuthorization)))
		if !ok {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized"))
		}

		c.Locals(localUserID, user.ID)
		c.Locals(localUser, user)
		c.SetUserContext(WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

// CurrentUser returns the user attached by Required, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
