package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/domain"
)

// Identifier resolves a bearer token into a caller. *auth.Service implements it.
type Identifier interface {
	Identify(ctx context.Context, token string) (access.Caller, error)
}

// Auth requires a valid bearer token and stores the resolved caller in the
// request context.
func Auth(id Identifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			caller, err := id.Identify(r.Context(), tok)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrTenantSuspended):
				writeError(w, http.StatusForbidden, "tenant account is suspended or inactive")
				return
			case errors.Is(err, domain.ErrUnauthenticated):
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			default:
				hlog.FromRequest(r).Error().Err(err).Msg("auth: identify caller")
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
