package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"restopos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const purgeInterval = 5 * time.Minute

// windowEntry tracks request counts for one key within a fixed window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// windowLimiter counts requests per key (client IP) in fixed windows.
// Expired entries are purged lazily so IPs that never return do not accumulate.
type windowLimiter struct {
	name      string
	limit     int
	window    time.Duration
	mu        sync.Mutex
	entries   map[string]*windowEntry
	lastPurge time.Time
	now       func() time.Time
}

func newWindowLimiter(name string, limit int, window time.Duration) *windowLimiter {
	return &windowLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// allow registers one hit for key and reports whether it is within the limit,
// plus the moment the current window closes.
func (l *windowLimiter) allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPurge) > purgeInterval {
		l.purge(now)
	}

	entry, ok := l.entries[key]
	if !ok || now.After(entry.windowEnd) {
		entry = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[key] = entry
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

func (l *windowLimiter) purge(now time.Time) {
	purged := 0
	for k, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, k)
			purged++
		}
	}
	l.lastPurge = now
	if purged > 0 {
		log.Debug().
			Str("limiter", l.name).
			Int("entries_purged", purged).
			Int("entries_remaining", len(l.entries)).
			Msg("rate limiter purged")
	}
}

func (l *windowLimiter) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			secs := int(time.Until(windowEnd).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newWindowLimiter("login", 20, time.Minute).
		handler("Demasiados intentos de login. Intente en 1 minuto.")
}

// RecoveryRateLimiter limits password recovery requests to 5 per 15 minutes per IP.
// Each route gets its own counter.
func RecoveryRateLimiter() gin.HandlerFunc {
	return newWindowLimiter("recuperacion", 5, 15*time.Minute).
		handler("Demasiadas solicitudes de recuperacion. Intente mas tarde.")
}

// RateLimiter returns a general-purpose fixed-window rate limiter per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter("api", limit, window).
		handler("Demasiadas solicitudes. Intente nuevamente en un momento.")
}
