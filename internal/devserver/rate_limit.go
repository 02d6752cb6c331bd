package devserver

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limite du lookup QR public : 30 requêtes par minute et par IP.
const publicLookupLimit = 30

// rateLimiter est une fenêtre glissante en mémoire par IP. Le vrai backend
// ferait ça dans Redis ; pour un serveur de dev, la mémoire suffit.
type rateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests map[string][]time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		limit:    limit,
		window:   time.Minute,
		requests: make(map[string][]time.Time),
	}
}

// allow enregistre la requête et indique si elle passe, avec le nombre de
// secondes à attendre sinon.
func (rl *rateLimiter) allow(ip string, now time.Time) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)
	kept := rl.requests[ip][:0]
	for _, ts := range rl.requests[ip] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	rl.requests[ip] = kept

	if len(kept) >= rl.limit {
		retryAfter := int(kept[0].Add(rl.window).Sub(now).Seconds()) + 1
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}

	rl.requests[ip] = append(kept, now)
	return true, 0
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := s.limiter.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(s.limiter.limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
