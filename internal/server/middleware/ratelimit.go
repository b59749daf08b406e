package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiters hands out one token bucket per key. Entries idle for 30 minutes
// are swept every 10 minutes until ctx is done.
type limiters[K comparable] struct {
	mu    sync.Mutex
	byKey map[K]*keyedLimiter
	rps   rate.Limit
	burst int
}

func newLimiters[K comparable](ctx context.Context, requestsPerSecond float64, burst int) *limiters[K] {
	l := &limiters[K]{
		byKey: make(map[K]*keyedLimiter),
		rps:   rate.Limit(requestsPerSecond),
		burst: burst,
	}

	// Background cleanup of stale limiters.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep(time.Now().Add(-30 * time.Minute))
			case <-ctx.Done():
				return
			}
		}
	}()

	return l
}

func (l *limiters[K]) sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, kl := range l.byKey {
		if kl.lastAccess.Before(cutoff) {
			delete(l.byKey, k)
		}
	}
}

func (l *limiters[K]) allow(key K) bool {
	l.mu.Lock()
	kl, ok := l.byKey[key]
	if !ok {
		kl = &keyedLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.byKey[key] = kl
	}
	kl.lastAccess = time.Now()
	l.mu.Unlock()

	return kl.limiter.Allow()
}

// RateLimitByIP applies per-IP rate limiting for unauthenticated endpoints
// (e.g. auth routes). The address comes from r.RemoteAddr as rewritten by
// chi's RealIP middleware.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	l := newLimiters[string](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(remoteHost(r)) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies per-tenant rate limiting on authenticated routes. Platform
// callers have no tenant and are limited per user instead. It must run after
// Auth.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	l := newLimiters[uuid.UUID](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok {
				// No caller in context; skip rate limiting.
				next.ServeHTTP(w, r)
				return
			}

			key := caller.TenantID
			if caller.IsPlatform() {
				key = caller.UserID
			}
			if !l.allow(key) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
