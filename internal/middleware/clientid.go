package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

type contextKey string

const (
	ClientIPKey      contextKey = "client_ip"
	ClientSessionKey contextKey = "client_session"
)

// ClientIdentifier stores the client IP and a header fingerprint in the request context.
func ClientIdentifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ctx := context.WithValue(r.Context(), ClientIPKey, ip)
		ctx = context.WithValue(ctx, ClientSessionKey, fingerprint(r, ip))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var ipHeaders = []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP"}

func clientIP(r *http.Request) string {
	for _, h := range ipHeaders {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For lists the original client first
		first, _, _ := strings.Cut(v, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func fingerprint(r *http.Request, ip string) string {
	data := strings.Join([]string{
		r.Header.Get("User-Agent"),
		r.Header.Get("Accept-Language"),
		ip,
	}, "|")
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// GetClientIP retrieves the client IP from context
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPKey).(string); ok {
		return ip
	}
	return "unknown"
}

// GetClientSession retrieves the client fingerprint from context
func GetClientSession(ctx context.Context) string {
	if session, ok := ctx.Value(ClientSessionKey).(string); ok {
		return session
	}
	return "unknown"
}
