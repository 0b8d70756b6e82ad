package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedHosts(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		host    string
		want    int
	}{
		{"exact match", []string{"api.example.com"}, "api.example.com", http.StatusOK},
		{"match with port", []string{"localhost"}, "localhost:8000", http.StatusOK},
		{"subdomain wildcard", []string{".example.com"}, "blog.example.com", http.StatusOK},
		{"wildcard apex", []string{".example.com"}, "example.com", http.StatusOK},
		{"star allows all", []string{"*"}, "anything.test", http.StatusOK},
		{"empty list allows all", nil, "anything.test", http.StatusOK},
		{"foreign host", []string{"api.example.com"}, "evil.test", http.StatusBadRequest},
		{"suffix trick", []string{".example.com"}, "badexample.com", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(AllowedHosts(tt.allowed))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			_ = resp.Body.Close()
		})
	}
}
