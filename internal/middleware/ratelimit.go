package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// ClientLimiter caps relayed requests per client IP over one-minute windows.
// AFIP throttles the certificate holder, not the caller, so one noisy client
// on a shared relay can exhaust the quota for everyone behind it; the
// limiter pushes back before AFIP does.
type ClientLimiter struct {
	mu        sync.Mutex
	windows   map[string]*clientWindow
	perMinute int
	logger    *logrus.Logger
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

// NewClientLimiter builds a limiter allowing perMinute requests per client.
func NewClientLimiter(perMinute int, logger *logrus.Logger) *ClientLimiter {
	return &ClientLimiter{
		windows:   make(map[string]*clientWindow),
		perMinute: perMinute,
		logger:    logger,
	}
}

// Allow reports whether another request from key fits the current window.
func (l *ClientLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	window, ok := l.windows[key]
	if !ok || now.Sub(window.windowStart) > time.Minute {
		l.windows[key] = &clientWindow{count: 1, windowStart: now}
		return true
	}

	window.count++
	if window.count > l.perMinute {
		if window.count == l.perMinute+1 {
			l.logger.Warnf("Rate limit exceeded for %s (%d/min)", key, l.perMinute)
		}
		return false
	}
	return true
}

// Middleware rejects over-limit clients with 429 and a Retry-After hint.
func (l *ClientLimiter) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientKey(r), time.Now()) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"detail":"Rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Run sweeps expired windows until ctx is canceled. Windows older than two
// minutes can no longer influence Allow and only hold memory.
func (l *ClientLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, window := range l.windows {
				if now.Sub(window.windowStart) > 2*time.Minute {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// clientKey identifies the caller: the first X-Forwarded-For hop when a
// proxy fronts the relay, the socket address otherwise.
func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
