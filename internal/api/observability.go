package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"game-hub/internal/config"
	"game-hub/internal/game"
)

// Metrics with bounded cardinality: no per-session labels.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in one session tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_sessions_active",
		Help: "Live play sessions",
	})

	liveEnemies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_enemies_live",
		Help: "Enemies across all sessions",
	})

	liveBullets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_bullets_live",
		Help: "Bullets in flight across all sessions",
	})

	shotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_shots_total",
		Help: "Trigger pulls by weapon",
	}, []string{"weapon"}) // Bounded: weapon table

	killsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_kills_total",
		Help: "Enemies killed by type",
	}, []string{"enemy"}) // Bounded: enemy table

	gameOversTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_over_total",
		Help: "Sessions that reached game over",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_ip_limit", "ws_total_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket messages by direction",
	}, []string{"direction"}) // "in", "out"

	wsInputThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_input_throttled_total",
		Help: "Client input messages dropped by the per-connection limiter",
	})
)

// SessionHooks returns engine hooks that feed the metrics above. Pass it
// to the hub so every new session reports.
func SessionHooks(string) game.Hooks {
	return game.Hooks{
		OnTick: RecordTick,
		OnShot: func(w game.WeaponID) {
			shotsTotal.WithLabelValues(string(w)).Inc()
		},
		OnKill: func(t game.EnemyType) {
			killsTotal.WithLabelValues(string(t)).Inc()
		},
		OnGameOver: func(game.GameResult) {
			gameOversTotal.Inc()
		},
	}
}

// StartDebugServer starts the pprof and metrics listener. It refuses to
// bind anything but loopback unless ALLOW_DEBUG_EXTERNAL=true.
// Returns nil when disabled.
func StartDebugServer(cfg config.ObservabilityConfig) *http.Server {
	if !cfg.EnableDebugServer {
		log.Println("📊 Debug server disabled")
		return nil
	}

	addr := cfg.DebugAddr
	if !isLoopback(addr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Printf("⚠️ Debug server forced to localhost (asked for %s)", addr)
		addr = "127.0.0.1:6060"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("📊 Debug server starting on %s", addr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", addr)
		log.Printf("   - metrics: http://%s/metrics", addr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
	return srv
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// instrument records latency and status per route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// RecordTick records tick timing
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// UpdateSessionGauges sets the cross-session population gauges.
func UpdateSessionGauges(sessions, enemies, bullets int) {
	activeSessions.Set(float64(sessions))
	liveEnemies.Set(float64(enemies))
	liveBullets.Set(float64(bullets))
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_ip_limit", "ws_total_limit"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, d time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages counts one message in direction "in" or "out".
func IncrementWSMessages(direction string) {
	wsMessagesTotal.WithLabelValues(direction).Inc()
}

// RecordInputThrottled counts one dropped client input message.
func RecordInputThrottled() {
	wsInputThrottled.Inc()
}
