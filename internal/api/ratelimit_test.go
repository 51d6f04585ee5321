package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"game-hub/internal/config"
	"game-hub/internal/hub"
)

// ============================================================================
// IP Rate Limiter Tests
// ============================================================================

func TestIPRateLimiterBurst(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 3})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("Expected request %d allowed", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("Expected request over burst rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("Expected other IP to have its own bucket")
	}

	stats := rl.GetStats()
	if stats["allowed"] != 4 || stats["rejected"] != 1 {
		t.Errorf("Expected 4 allowed / 1 rejected, got %v", stats)
	}
}

func TestIPRateLimiterCleanup(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.cleanup(time.Now().Add(time.Second))

	// A forgotten IP starts over with a full bucket.
	if !rl.Allow("10.0.0.1") {
		t.Error("Expected fresh bucket after cleanup")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := config.DefaultServer()
	m := hub.NewManager(config.AppConfig{Server: cfg})
	defer m.Close()

	router := NewRouter(RouterConfig{
		Hub:             m,
		RateLimitConfig: &RateLimitConfig{RequestsPerSecond: 1, Burst: 2},
		DisableLogging:  true,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected first two requests OK, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected 429 on third request, got %d", codes[2])
	}
}

func TestRateLimitConfigFrom(t *testing.T) {
	cfg := config.ServerConfig{RequestsPerSec: 5, Burst: 9}
	rl := RateLimitConfigFrom(cfg)
	if rl.RequestsPerSecond != 5 || rl.Burst != 9 {
		t.Errorf("Expected 5/9, got %v/%d", rl.RequestsPerSecond, rl.Burst)
	}

	rl = RateLimitConfigFrom(config.ServerConfig{})
	if rl.RequestsPerSecond != DefaultRateLimitConfig.RequestsPerSecond {
		t.Errorf("Expected default rate, got %v", rl.RequestsPerSecond)
	}
}

func TestInputLimiterKeepsReleases(t *testing.T) {
	il := NewInputLimiter(InputRateConfig{MessagesPerSecond: 1, Burst: 2})

	if !il.Allow("mousemove") || !il.Allow("keydown") {
		t.Fatal("Expected burst to pass")
	}
	if il.Allow("mousemove") {
		t.Error("Expected mousemove over the limit to be dropped")
	}
	for _, typ := range []string{"keyup", "blur", "pointerlock", "visibility"} {
		if !il.Allow(typ) {
			t.Errorf("Expected %s to pass while throttled", typ)
		}
	}
	if il.Dropped() != 1 {
		t.Errorf("Expected 1 dropped message, got %d", il.Dropped())
	}
}

func TestInputRateConfigFrom(t *testing.T) {
	ir := InputRateConfigFrom(config.ServerConfig{InputPerSec: 60, InputBurst: 10})
	if ir.MessagesPerSecond != 60 || ir.Burst != 10 {
		t.Errorf("Expected 60/10, got %v/%d", ir.MessagesPerSecond, ir.Burst)
	}

	ir = InputRateConfigFrom(config.ServerConfig{})
	if ir != DefaultInputRateConfig {
		t.Errorf("Expected defaults, got %+v", ir)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "203.0.113.5:4000", "203.0.113.5"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "10.0.0.1:80", "198.51.100.1"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.1:80", "198.51.100.7"},
		{"no port", nil, "203.0.113.9", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

// ============================================================================
// WebSocket Limiter And Origin Tests
// ============================================================================

func TestWebSocketRateLimiter(t *testing.T) {
	wrl := NewWebSocketRateLimiter(2)

	if !wrl.Allow("a") || !wrl.Allow("a") {
		t.Fatal("Expected two connections allowed")
	}
	if wrl.Allow("a") {
		t.Error("Expected third connection rejected")
	}
	if wrl.Total() != 2 {
		t.Errorf("Expected 2 open, got %d", wrl.Total())
	}

	wrl.Release("a")
	if wrl.GetConnectionCount("a") != 1 || wrl.Total() != 1 {
		t.Errorf("Expected 1 open after release, got %d/%d", wrl.GetConnectionCount("a"), wrl.Total())
	}
	if !wrl.Allow("a") {
		t.Error("Expected a slot after release")
	}
}

func TestOriginChecker(t *testing.T) {
	oc := NewOriginChecker([]string{"http://localhost:*", "https://*.example.com", "https://game.test"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"HTTP://LOCALHOST:8080", true},
		{"https://play.example.com", true},
		{"https://example.com", false},
		{"https://game.test", true},
		{"https://game.test.evil", false},
		{"http://evil.com", false},
	}
	for _, tt := range tests {
		if got := oc.Allowed(tt.origin); got != tt.want {
			t.Errorf("Allowed(%q): expected %v, got %v", tt.origin, tt.want, got)
		}
	}

	if !NewOriginChecker([]string{"*"}).Allowed("http://anything.io") {
		t.Error("Expected * to allow every origin")
	}
}
