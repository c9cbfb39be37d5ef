package endpoints

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/memexhq/memex/pkg/config"
)

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// clientIP resolves the originating address recorded in audit events.
// X-Forwarded-For is honored only when the direct peer is a trusted proxy;
// the rightmost entry is the address that proxy saw.
func clientIP(cfg *config.MemexConfig, r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" || !cfg.IsTrustedProxy(host) {
		return r.RemoteAddr
	}

	parts := strings.Split(forwarded, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}
