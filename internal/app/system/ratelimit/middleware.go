package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
)

// APILimiter caps request volume for the whole API. Signed-in users are
// keyed by user ID and get a larger budget than anonymous callers, who are
// keyed by client IP.
type APILimiter struct {
	anon   *Limiter
	authed *Limiter
}

// NewAPILimiter creates an APILimiter with separate budgets per window.
func NewAPILimiter(anonLimit, authedLimit int, window time.Duration) *APILimiter {
	return &APILimiter{
		anon:   New(anonLimit, window),
		authed: New(authedLimit, window),
	}
}

// Middleware rejects requests over budget with 429. It must run after the
// session user has been loaded.
func (a *APILimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l, key := a.anon, "ip:"+ClientIP(r)
		if u, ok := auth.CurrentUser(r); ok {
			l, key = a.authed, "user:"+u.ID
		}

		if !l.Allow(key) {
			wait := int(math.Ceil(l.RetryAfter(key).Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(wait, 1)))
			httpjson.Error(w, nil, apperr.RateLimited("too many requests, please try again later"))
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.Remaining(key)))
		next.ServeHTTP(w, r)
	})
}
