package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"game-hub/internal/config"
)

// RateLimitConfig configures the per-IP REST limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration // How often idle IPs are forgotten
}

// DefaultRateLimitConfig mirrors the server defaults.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 20,
	Burst:             40,
	CleanupInterval:   5 * time.Minute,
}

// RateLimitConfigFrom takes the limiter settings out of the server config.
func RateLimitConfigFrom(cfg config.ServerConfig) RateLimitConfig {
	rl := DefaultRateLimitConfig
	if cfg.RequestsPerSec > 0 {
		rl.RequestsPerSecond = cfg.RequestsPerSec
	}
	if cfg.Burst > 0 {
		rl.Burst = cfg.Burst
	}
	return rl
}

// InputRateConfig bounds how fast one websocket client may send input.
type InputRateConfig struct {
	MessagesPerSecond float64
	Burst             int
}

// DefaultInputRateConfig leaves room for high-rate mice.
var DefaultInputRateConfig = InputRateConfig{
	MessagesPerSecond: 500,
	Burst:             200,
}

// InputRateConfigFrom takes the input limit out of the server config.
func InputRateConfigFrom(cfg config.ServerConfig) InputRateConfig {
	ir := DefaultInputRateConfig
	if cfg.InputPerSec > 0 {
		ir.MessagesPerSecond = cfg.InputPerSec
	}
	if cfg.InputBurst > 0 {
		ir.Burst = cfg.InputBurst
	}
	return ir
}

// releaseMessages give state back and are never throttled, so a client
// over its limit cannot be left with a key held.
var releaseMessages = map[string]bool{
	"keyup":       true,
	"blur":        true,
	"pointerlock": true,
	"visibility":  true,
}

// InputLimiter throttles the input of one websocket connection. Owned by
// that connection's read loop.
type InputLimiter struct {
	limiter *rate.Limiter
	dropped uint64
}

// NewInputLimiter creates a limiter for one connection.
func NewInputLimiter(cfg InputRateConfig) *InputLimiter {
	if cfg.MessagesPerSecond <= 0 {
		cfg = DefaultInputRateConfig
	}
	return &InputLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.Burst)}
}

// Allow reports whether a message of msgType should be applied.
func (il *InputLimiter) Allow(msgType string) bool {
	if releaseMessages[msgType] || il.limiter.Allow() {
		return true
	}
	il.dropped++
	return false
}

// Dropped returns how many messages were throttled.
func (il *InputLimiter) Dropped() uint64 { return il.dropped }

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// IPRateLimiter hands every client IP its own token bucket.
type IPRateLimiter struct {
	limiters sync.Map // map[string]*ipLimiterEntry
	config   RateLimitConfig
	stopChan chan struct{}
	stopOnce sync.Once

	rejected atomic.Uint64
	allowed  atomic.Uint64
}

// NewIPRateLimiter creates a limiter and its cleanup goroutine. Call Stop
// to end it.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig.CleanupInterval
	}
	rl := &IPRateLimiter{
		config:   cfg,
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup goroutine.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}

func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	now := time.Now().UnixNano()

	if v, ok := rl.limiters.Load(ip); ok {
		e := v.(*ipLimiterEntry)
		e.lastSeen.Store(now)
		return e.limiter
	}

	e := &ipLimiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst)}
	e.lastSeen.Store(now)
	actual, _ := rl.limiters.LoadOrStore(ip, e)
	return actual.(*ipLimiterEntry).limiter
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-2 * rl.config.CleanupInterval))
		}
	}
}

// cleanup forgets IPs not seen since cutoff.
func (rl *IPRateLimiter) cleanup(cutoff time.Time) {
	limit := cutoff.UnixNano()
	rl.limiters.Range(func(key, value interface{}) bool {
		if value.(*ipLimiterEntry).lastSeen.Load() < limit {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// Allow reports whether a request from ip may proceed.
func (rl *IPRateLimiter) Allow(ip string) bool {
	if rl.getLimiter(ip).Allow() {
		rl.allowed.Add(1)
		return true
	}
	rl.rejected.Add(1)
	return false
}

// Middleware rejects over-limit requests with 429.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(GetClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			writeError(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetStats returns rate limiter statistics
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"allowed":  rl.allowed.Load(),
		"rejected": rl.rejected.Load(),
	}
}

// GetClientIP extracts the client IP, preferring proxy headers.
func GetClientIP(r *http.Request) string {
	// CAUTION: spoofable unless a trusted proxy sets it
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// WebSocketRateLimiter caps concurrent websocket connections per IP.
type WebSocketRateLimiter struct {
	connections sync.Map // map[string]*atomic.Int32
	maxPerIP    int
	total       atomic.Int32

	rejected atomic.Uint64
}

// NewWebSocketRateLimiter creates a connection limiter.
func NewWebSocketRateLimiter(maxPerIP int) *WebSocketRateLimiter {
	return &WebSocketRateLimiter{maxPerIP: maxPerIP}
}

// Allow reserves a connection slot for ip.
func (wrl *WebSocketRateLimiter) Allow(ip string) bool {
	actual, _ := wrl.connections.LoadOrStore(ip, new(atomic.Int32))
	counter := actual.(*atomic.Int32)

	for {
		current := counter.Load()
		if int(current) >= wrl.maxPerIP {
			wrl.rejected.Add(1)
			return false
		}
		if counter.CompareAndSwap(current, current+1) {
			wrl.total.Add(1)
			return true
		}
	}
}

// Release frees a slot reserved by Allow.
func (wrl *WebSocketRateLimiter) Release(ip string) {
	if v, ok := wrl.connections.Load(ip); ok {
		if v.(*atomic.Int32).Add(-1) >= 0 {
			wrl.total.Add(-1)
		}
	}
}

// GetConnectionCount returns the open connections for ip.
func (wrl *WebSocketRateLimiter) GetConnectionCount(ip string) int {
	if v, ok := wrl.connections.Load(ip); ok {
		return int(v.(*atomic.Int32).Load())
	}
	return 0
}

// Total returns open connections across all IPs.
func (wrl *WebSocketRateLimiter) Total() int { return int(wrl.total.Load()) }

// GetStats returns WebSocket rate limiter statistics
func (wrl *WebSocketRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"open":     uint64(wrl.total.Load()),
		"rejected": wrl.rejected.Load(),
	}
}

// OriginChecker matches request origins against patterns with at most one
// '*' wildcard each, e.g. "http://localhost:*" or "https://*.example.com".
// A lone "*" allows everything.
type OriginChecker struct {
	any      bool
	patterns []string
}

// NewOriginChecker compiles the allowed origin list.
func NewOriginChecker(patterns []string) *OriginChecker {
	oc := &OriginChecker{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		switch p {
		case "":
		case "*":
			oc.any = true
		default:
			oc.patterns = append(oc.patterns, strings.ToLower(p))
		}
	}
	return oc
}

// Allowed reports whether origin may connect. Requests without an Origin
// header come from non-browser clients and are allowed.
func (oc *OriginChecker) Allowed(origin string) bool {
	if origin == "" || oc.any {
		return true
	}
	origin = strings.ToLower(origin)
	for _, p := range oc.patterns {
		if matchOrigin(p, origin) {
			return true
		}
	}
	return false
}

func matchOrigin(pattern, origin string) bool {
	i := strings.IndexByte(pattern, '*')
	if i < 0 {
		return pattern == origin
	}
	prefix, suffix := pattern[:i], pattern[i+1:]
	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) &&
		strings.HasSuffix(origin, suffix)
}
