package main

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// requireAdmin guards admin endpoints with a bcrypt hash of the admin
// password. The password comes from HTTP basic auth or a bearer header.
// An empty hash disables the endpoints.
func requireAdmin(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				http.Error(w, `{"error":"admin_disabled"}`, http.StatusForbidden)
				return
			}
			pw := adminPassword(r)
			if pw == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="alfheimr"`)
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			if !checkPassword(hash, pw) {
				log.Warn().Str("remote", r.RemoteAddr).Msg("admin password rejected")
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func adminPassword(r *http.Request) string {
	if _, pw, ok := r.BasicAuth(); ok {
		return pw
	}
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}
