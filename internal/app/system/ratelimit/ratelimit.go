// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/workhub/internal/app/system/normalize"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxKeys bounds the number of tracked keys per limiter.
// When full, the least recently used key is forgotten.
const maxKeys = 100_000

var rejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "workhub_ratelimit_rejections_total",
		Help: "Requests rejected by a rate limiter.",
	},
	[]string{"scope"},
)

// Limiter provides rate limiting using a fixed window per key.
// Windows expire on their own; there is no background cleanup goroutine.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  *expirable.LRU[string, *window]
	limit    int           // max requests per window
	duration time.Duration // window duration
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a new rate limiter.
// limit: maximum requests allowed per duration
// duration: the time window for counting requests
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  expirable.NewLRU[string, *window](maxKeys, nil, duration),
		limit:    limit,
		duration: duration,
	}
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows.Get(key)

	// If no window exists or window expired, create new one
	if !exists || now.After(w.expiresAt) {
		l.windows.Add(key, &window{
			count:     1,
			expiresAt: now.Add(l.duration),
		})
		return true
	}

	// Window still active - check limit
	if w.count >= l.limit {
		return false
	}

	w.count++
	return true
}

// Reset clears the rate limit for a specific key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows.Remove(key)
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are
// not read here; when the service runs behind a trusted proxy, chi's
// middleware.RealIP rewrites RemoteAddr first.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter rate limits the sign-in endpoints by client IP and by email,
// covering both spraying from one address and repeated requests for one account.
type LoginLimiter struct {
	ipLimiter    *Limiter
	emailLimiter *Limiter
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipDuration time.Duration, emailLimit int, emailDuration time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:    New(ipLimit, ipDuration),
		emailLimiter: New(emailLimit, emailDuration),
	}
}

// Check verifies if a login attempt should be allowed.
// Returns (allowed, reason) where reason explains why it was blocked.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		rejectionsTotal.WithLabelValues("ip").Inc()
		return false, "Too many sign-in attempts. Please wait a minute before trying again."
	}

	if key := normalize.Email(email); key != "" {
		if !ll.emailLimiter.Allow(key) {
			rejectionsTotal.WithLabelValues("email").Inc()
			return false, "Too many sign-in attempts for this account. Please wait a few minutes."
		}
	}

	return true, ""
}

// ResetEmail clears the rate limit for a specific email after successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := normalize.Email(email); key != "" {
		ll.emailLimiter.Reset(key)
	}
}
