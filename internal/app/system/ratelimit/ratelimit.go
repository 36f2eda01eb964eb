// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps a token bucket per key. A bucket holds up to limit tokens
// and refills at limit tokens per window, so a quiet key regains its full
// budget one window after its last request. Safe for concurrent use.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     int
	window    time.Duration
	lastSweep time.Time
}

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter allowing limit requests per window for each key.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		buckets:   make(map[string]*bucket),
		limit:     limit,
		window:    window,
		lastSweep: time.Now(),
	}
}

// Allow spends one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.sweep(now)
	return l.bucketFor(key, now).tokens.AllowN(now, 1)
}

// Remaining returns the whole tokens left for key.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return l.limit
	}
	n := int(b.tokens.TokensAt(time.Now()))
	if n < 0 {
		return 0
	}
	return n
}

// RetryAfter returns how long key must wait for its next token; zero when
// a token is available now.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return 0
	}
	missing := 1 - b.tokens.TokensAt(time.Now())
	if missing <= 0 {
		return 0
	}
	perToken := float64(l.window) / float64(l.limit)
	return time.Duration(math.Ceil(missing * perToken))
}

// Reset forgets key, restoring its full budget.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *Limiter) bucketFor(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		every := rate.Every(l.window / time.Duration(max(l.limit, 1)))
		b = &bucket{tokens: rate.NewLimiter(every, l.limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// sweep drops buckets idle for a full window; they would be full again and
// are indistinguishable from a new bucket. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < 2*l.window {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.window {
			delete(l.buckets, key)
		}
	}
}

// ClientIP returns the caller's address: the first X-Forwarded-For entry,
// then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// LoginLimiter throttles sign-in attempts by client IP and by email.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiterWithConfig creates a LoginLimiter with the given budgets.
func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(ipLimit, ipWindow),
		byEmail: New(emailLimit, emailWindow),
	}
}

// Check spends one attempt for the caller's IP and, when given, for email.
// A refusal comes with a message suitable for the client.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "too many login attempts, please wait a minute before trying again"
	}
	if key := emailKey(email); key != "" && !ll.byEmail.Allow(key) {
		return false, "too many login attempts for this account, please wait a few minutes"
	}
	return true, ""
}

// ResetEmail clears the email budget after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		ll.byEmail.Reset(key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
