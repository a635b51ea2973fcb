package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"ravito/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter ──────────────────────────────────────────────────────

type window struct {
	count int
	ends  time.Time
}

// windowLimiter counts hits per key within a fixed window.
type windowLimiter struct {
	name   string
	limit  int
	period time.Duration

	mu        sync.Mutex
	entries   map[string]*window
	nextPurge time.Time
}

const purgeInterval = 5 * time.Minute

func newWindowLimiter(name string, limit int, period time.Duration) *windowLimiter {
	return &windowLimiter{name: name, limit: limit, period: period, entries: make(map[string]*window)}
}

// hit records one request and returns false once the key is over the limit,
// together with the end of the current window. Expired windows are swept at
// most once per purgeInterval, on the request path.
func (l *windowLimiter) hit(key string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextPurge) {
		if n := l.purgeLocked(now); n > 0 {
			log.Debug().Str("limiter", l.name).Int("purged", n).Msg("rate limiter entries purged")
		}
		l.nextPurge = now.Add(purgeInterval)
	}

	w, ok := l.entries[key]
	if !ok || now.After(w.ends) {
		w = &window{ends: now.Add(l.period)}
		l.entries[key] = w
	}
	w.count++
	return w.count <= l.limit, w.ends
}

func (l *windowLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.purgeLocked(now)
}

func (l *windowLimiter) purgeLocked(now time.Time) int {
	n := 0
	for k, w := range l.entries {
		if now.After(w.ends) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

func (l *windowLimiter) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, ends := l.hit(c.ClientIP(), time.Now())
		if !ok {
			secs := int(time.Until(ends).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// ── Middlewares ───────────────────────────────────────────────────────────────

// LoginRateLimiter limits login and registration attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newWindowLimiter("login", 20, time.Minute).
		handler("Trop de tentatives de connexion. Réessayez dans une minute.")
}

// RateLimiter limits every API call per IP.
func RateLimiter(limit int, period time.Duration) gin.HandlerFunc {
	return newWindowLimiter("api", limit, period).
		handler("Trop de requêtes. Réessayez dans un instant.")
}
