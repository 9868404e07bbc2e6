package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/contacts/internal/config"
)

// Auth error codes, alongside the RATE001 style codes of the rest of the API.
const (
	codeMissingKey = "AUTH001"
	codeInvalidKey = "AUTH002"
)

// APIKeyAuth guards import routes with a shared API key.
//
// The key is read from X-API-Key, or from "Authorization: Bearer <key>" for
// clients that cannot set custom headers. With RequireAPIKey off every request
// passes; with it on and no keys configured every request is refused.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := requestAPIKey(r)
			switch {
			case key == "":
				slog.Warn("import auth failed", "reason", "missing key", "ip", ClientIP(r))
				writeJSONError(w, http.StatusUnauthorized, "missing API key", codeMissingKey)
			case !keyMatches(key, cfg.APIKeys):
				slog.Warn("import auth failed", "reason", "invalid key", "ip", ClientIP(r))
				writeJSONError(w, http.StatusForbidden, "invalid API key", codeInvalidKey)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// keyMatches compares against every key so timing does not reveal which one matched.
func keyMatches(key string, keys []string) bool {
	matched := 0
	for _, k := range keys {
		matched |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return matched == 1
}

func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
