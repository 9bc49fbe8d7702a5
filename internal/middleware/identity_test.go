package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/config"
)

func newCtx() echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestUserIDFromContextClaim(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"unauthenticated", nil, "guest"},
		{"json number claim", float64(7), "7"},
		{"uint64 claim", uint64(42), "42"},
		{"int claim", 9, "9"},
		{"string claim", "13", "13"},
		{"empty string falls back", "", "guest"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newCtx()
			if tc.value != nil {
				c.Set("user_id", tc.value)
			}
			if got := userID(c); got != tc.want {
				t.Fatalf("userID = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildRateKeyUsesAuthenticatedUser(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}
	c := newCtx()
	c.Set("user_id", float64(7))
	key := buildRateKey(cfg, c)
	if !strings.Contains(key, "user:7") {
		t.Fatalf("key %q does not segment by user id", key)
	}

	anon := newCtx()
	if !strings.Contains(buildRateKey(cfg, anon), "user:guest") {
		t.Fatalf("anonymous key %q does not fall back to guest", buildRateKey(cfg, anon))
	}
}
