// Package middleware guards the status surface.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/datewatch/config"
	"github.com/use-agent/datewatch/models"
	"golang.org/x/time/rate"
)

// Callers idle longer than callerTTL are forgotten, checked at most once
// per sweepEvery.
const (
	callerTTL  = time.Hour
	sweepEvery = 5 * time.Minute
)

type caller struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Guard admits status readers: a known API key when keys are configured,
// and a per-caller request budget either way. Callers are identified by
// key, or by client IP on an open surface.
type Guard struct {
	keys  map[string]struct{}
	limit rate.Limit
	burst int

	mu        sync.Mutex
	callers   map[string]*caller
	lastSweep time.Time
}

// NewGuard builds a Guard from the status configuration.
func NewGuard(cfg config.StatusConfig) *Guard {
	keys := make(map[string]struct{}, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}
	return &Guard{
		keys:    keys,
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		callers: make(map[string]*caller),
	}
}

// Admit decides on one request. It returns the caller identity, or an
// UNAUTHORIZED or RATE_LIMITED MonitorError.
func (g *Guard) Admit(key, clientIP string, now time.Time) (string, error) {
	identity := "ip:" + clientIP
	if len(g.keys) > 0 {
		if key == "" {
			return "", models.NewMonitorError(models.ErrCodeUnauthorized, "", "API key required", nil)
		}
		if _, ok := g.keys[key]; !ok {
			return "", models.NewMonitorError(models.ErrCodeUnauthorized, "", "unknown API key", nil)
		}
		identity = "key:" + key
	}

	if !g.limiter(identity, now).AllowN(now, 1) {
		return "", models.NewMonitorError(models.ErrCodeRateLimited, "", "too many status requests", nil)
	}
	return identity, nil
}

// Callers reports how many callers are currently tracked.
func (g *Guard) Callers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.callers)
}

func (g *Guard) limiter(identity string, now time.Time) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	if now.Sub(g.lastSweep) >= sweepEvery {
		for id, c := range g.callers {
			if now.Sub(c.lastSeen) >= callerTTL {
				delete(g.callers, id)
			}
		}
		g.lastSweep = now
	}

	c, ok := g.callers[identity]
	if !ok {
		c = &caller{limiter: rate.NewLimiter(g.limit, g.burst)}
		g.callers[identity] = c
	}
	c.lastSeen = now
	return c.limiter
}

// Middleware applies Admit to gin requests. The key comes from X-API-Key
// or an "Authorization: Bearer" header.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := g.Admit(requestKey(c), c.ClientIP(), time.Now())
		if err != nil {
			code := models.CodeOf(err)
			status := http.StatusUnauthorized
			if code == models.ErrCodeRateLimited {
				status = http.StatusTooManyRequests
			}
			var me *models.MonitorError
			errors.As(err, &me)
			c.AbortWithStatusJSON(status, models.ErrorResponse{
				Error: &models.ErrorDetail{Code: code, Message: me.Message},
			})
			return
		}
		c.Set("caller", identity)
		c.Next()
	}
}

func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
