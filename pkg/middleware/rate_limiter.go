package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig controls the per-client request limiter.
//
// Rate uses the limiter format, e.g. "100-M" or "10-S". Identifier is "ip"
// or "user"; PerRouteRates overrides the rate for specific route templates.
// SkipPaths are prefix-matched against the request path.
type RateLimiterConfig struct {
	Rate          string            `json:"rate"`
	Identifier    string            `json:"identifier"`
	PerRouteRates map[string]string `json:"per_route_rates"`
	SkipPaths     []string          `json:"skip_paths"`
	AddHeaders    bool              `json:"add_headers"`
}

// RateLimitObserver is notified about limiter decisions, typically backed
// by Prometheus counters.
type RateLimitObserver interface {
	OnRateLimitRejected()
}

// RateLimiter caches one limiter per rate string so per-route overrides do
// not rebuild state on every request.
type RateLimiter struct {
	store    limiter.Store
	observer RateLimitObserver

	mu       sync.RWMutex
	cfg      RateLimiterConfig
	limiters map[string]*limiter.Limiter
}

func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) *RateLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	return &RateLimiter{
		store:    store,
		cfg:      cfg,
		limiters: make(map[string]*limiter.Limiter),
	}
}

func (l *RateLimiter) WithObserver(observer RateLimitObserver) *RateLimiter {
	l.observer = observer
	return l
}

// Config returns a copy of the active configuration.
func (l *RateLimiter) Config() RateLimiterConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// UpdateConfig swaps the configuration at runtime.
func (l *RateLimiter) UpdateConfig(cfg RateLimiterConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = cfg
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := l.Config()

		if pathSkipped(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		key := l.limitKey(cfg, c)
		lim := l.limiterFor(l.rateFor(cfg, c))

		lctx, err := lim.Get(c.Request.Context(), key)
		if err != nil {
			c.Next()
			return
		}
		if cfg.AddHeaders {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
		}
		if lctx.Reached {
			retry := int(time.Until(time.Unix(lctx.Reset, 0)).Seconds())
			if retry < 0 {
				retry = 0
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			if l.observer != nil {
				l.observer.OnRateLimitRejected()
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Too Many Requests"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) rateFor(cfg RateLimiterConfig, c *gin.Context) string {
	if full := c.FullPath(); full != "" {
		if r, ok := cfg.PerRouteRates[full]; ok && r != "" {
			return r
		}
	}
	if cfg.Rate != "" {
		return cfg.Rate
	}
	return "60-M"
}

func (l *RateLimiter) limiterFor(rate string) *limiter.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[rate]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limiters[rate]; ok {
		return lim
	}
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		r = limiter.Rate{Period: time.Minute, Limit: 60}
	}
	lim = limiter.New(l.store, r)
	l.limiters[rate] = lim
	return lim
}

func (l *RateLimiter) limitKey(cfg RateLimiterConfig, c *gin.Context) string {
	if cfg.Identifier == "user" {
		if userID := c.GetString(UserIDKey); userID != "" {
			return "user:" + userID
		}
	}
	return "ip:" + c.ClientIP()
}

func pathSkipped(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
