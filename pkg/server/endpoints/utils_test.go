package endpoints

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memexhq/memex/pkg/config"
)

func TestClientIP(t *testing.T) {
	cfg := testConfig()
	cfg.TrustedProxies = []string{"10.0.0.0/8"}

	t.Run("returns the remote address without a forwarded header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/annotations", nil)
		req.RemoteAddr = "10.1.2.3:5000"

		assert.Equal(t, "10.1.2.3:5000", clientIP(cfg, req))
	})

	t.Run("honors X-Forwarded-For from a trusted proxy", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/annotations", nil)
		req.RemoteAddr = "10.1.2.3:5000"
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.4")

		assert.Equal(t, "198.51.100.4", clientIP(cfg, req))
	})

	t.Run("ignores X-Forwarded-For from an untrusted peer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/annotations", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		req.Header.Set("X-Forwarded-For", "203.0.113.9")

		assert.Equal(t, "192.0.2.10:5000", clientIP(cfg, req))
	})

	t.Run("ignores X-Forwarded-For when no proxies are trusted", func(t *testing.T) {
		bare := &config.MemexConfig{}
		req := httptest.NewRequest("GET", "/annotations", nil)
		req.RemoteAddr = "10.1.2.3:5000"
		req.Header.Set("X-Forwarded-For", "203.0.113.9")

		assert.Equal(t, "10.1.2.3:5000", clientIP(bare, req))
	})
}
