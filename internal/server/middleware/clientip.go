package middleware

import (
	"net"
	"net/http"

	"github.com/gosuda/taskhub/internal/audit"
)

// ClientIP copies the client address into the context for audit entries. It
// must run after chi's RealIP middleware.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(audit.WithClientIP(r.Context(), remoteHost(r))))
	})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
