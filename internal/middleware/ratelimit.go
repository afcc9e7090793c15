package middleware

import (
	"net/http"
	"strconv"

	"github.com/jekabolt/grbpwr-catalog/internal/ratelimit"
)

// Limit rejects requests of op once the client fingerprint exhausts its limit.
// ClientIdentifier must run first.
func Limit(m *ratelimit.MultiKeyLimiter, op string, onLimited func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := GetClientSession(r.Context())
			if err := m.Check(op, client); err != nil {
				onLimited(w, r, err)
				return
			}
			if left := m.Remaining(op, client); left >= 0 {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(left))
			}
			next.ServeHTTP(w, r)
		})
	}
}
