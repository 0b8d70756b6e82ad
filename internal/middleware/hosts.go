package middleware

import (
	"net"
	"strings"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AllowedHosts rejects requests whose Host header is not in hosts.
// An entry of "*" allows everything; an entry starting with "." matches the
// domain and all of its subdomains.
func AllowedHosts(hosts []string) fiber.Handler {
	allowAll := len(hosts) == 0
	for _, h := range hosts {
		if h == "*" {
			allowAll = true
		}
	}

	return func(c *fiber.Ctx) error {
		if allowAll || hostAllowed(c.Hostname(), hosts) {
			return c.Next()
		}
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid host header"))
	}
}

func hostAllowed(host string, allowed []string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	for _, pattern := range allowed {
		switch {
		case strings.HasPrefix(pattern, "."):
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}
