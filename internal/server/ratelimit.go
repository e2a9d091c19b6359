package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"jdoptim/internal/errors"

	"golang.org/x/time/rate"
)

const defaultLimiterEvictionAge = 10 * time.Minute

// LimiterManager keeps one token-bucket limiter per client key (API key or
// IP). Idle limiters are evicted in the background so the map does not grow
// with every client ever seen.
type LimiterManager struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time

	rate        rate.Limit
	burst       int
	evictionAge time.Duration

	done   chan struct{}
	logger *errors.Logger
}

// NewLimiterManager creates a manager allowing requestsPerMin requests per
// minute with the given burst capacity. evictionAge bounds how long an idle
// client keeps its bucket; zero selects the default.
func NewLimiterManager(requestsPerMin, burstCapacity int, evictionAge time.Duration, logger *errors.Logger) *LimiterManager {
	if evictionAge <= 0 {
		evictionAge = defaultLimiterEvictionAge
	}

	m := &LimiterManager{
		limiters:    make(map[string]*rate.Limiter),
		lastSeen:    make(map[string]time.Time),
		rate:        rate.Limit(float64(requestsPerMin) / 60.0),
		burst:       burstCapacity,
		evictionAge: evictionAge,
		done:        make(chan struct{}),
		logger:      logger,
	}

	go m.evictLoop()
	return m
}

// Allow reports whether a request for key fits in its bucket. Non-blocking.
func (m *LimiterManager) Allow(key string) bool {
	m.mu.Lock()
	limiter, exists := m.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(m.rate, m.burst)
		m.limiters[key] = limiter
	}
	m.lastSeen[key] = time.Now()
	m.mu.Unlock()

	return limiter.Allow()
}

// GetStats returns current rate limiter statistics
func (m *LimiterManager) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.limiters),
		"rate_per_second": float64(m.rate),
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
	}
}

func (m *LimiterManager) evictLoop() {
	ticker := time.NewTicker(m.evictionAge)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.done:
			return
		}
	}
}

// evictIdle drops limiters not seen for at least evictionAge.
func (m *LimiterManager) evictIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.evictionAge)
	for key, seen := range m.lastSeen {
		if seen.Before(cutoff) {
			delete(m.limiters, key)
			delete(m.lastSeen, key)
		}
	}

	if m.logger != nil {
		m.logger.Debug("Rate limiter eviction completed",
			"remaining_limiters", len(m.limiters))
	}
}

// Close stops the eviction goroutine. Should be called when shutting down the server.
func (m *LimiterManager) Close() {
	close(m.done)
}

// rateLimitMiddleware creates rate limiting middleware using golang.org/x/time/rate.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rateLimitKey := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if rateLimitKey == "" {
				next(w, r)
				return
			}

			if !s.RateLimiter.Allow(rateLimitKey) {
				s.Logger.Info("Rate limit exceeded",
					"key", rateLimitKey,
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey picks the bucket key for a request: the API key when
// per-key limiting is enabled and a key is present, otherwise the client IP
// when per-IP limiting is enabled.
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			authHeader := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				apiKey = after
			}
		}
		if apiKey != "" {
			return "api:" + apiKey
		}
	}

	if byIP {
		return "ip:" + getClientIP(r)
	}

	return ""
}

// getClientIP extracts the client IP address from the request, preferring
// proxy headers over the raw remote address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first valid IP from a comma-separated list
func parseFirstIP(ips string) string {
	for ip := range strings.SplitSeq(ips, ",") {
		ip = strings.TrimSpace(ip)
		if parsed := net.ParseIP(ip); parsed != nil {
			return ip
		}
	}
	return ""
}
