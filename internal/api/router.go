package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"game-hub/internal/hub"
)

// SessionHub is the part of the session manager the API uses.
type SessionHub interface {
	Create(seed int64) (*hub.Session, error)
	Get(id string) (*hub.Session, error)
	List() []hub.Summary
	Remove(id string) error
	Count() int
	TotalCreated() uint64
	Leaderboard() *hub.Leaderboard
}

// RouterConfig contains everything NewRouter needs.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Hub: hub.NewManager(cfg),
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000,
//	        Burst:             1000,
//	    },
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Hub owns the sessions (required)
	Hub SessionHub

	// RateLimiter is an optional pre-configured limiter. If nil, one is
	// built from RateLimitConfig, or DefaultRateLimitConfig.
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// WSLimiter is reported by /api/stats when set.
	WSLimiter *WebSocketRateLimiter

	// CORSOrigins defaults to any origin.
	CORSOrigins []string

	// DisableLogging turns off the request logger (benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	hub       SessionHub
	limiter   *IPRateLimiter
	wsLimiter *WebSocketRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and REST routes.
//
// It has no side effects beyond the rate limiter's cleanup goroutine when
// none is passed in: no listeners, no session goroutines. Safe to use with
// httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	// Rate limiting before CORS to reject early
	limiter := cfg.RateLimiter
	if limiter == nil {
		rlCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rlCfg = *cfg.RateLimitConfig
		}
		limiter = NewIPRateLimiter(rlCfg)
	}
	r.Use(limiter.Middleware)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h := &routerHandlers{hub: cfg.Hub, limiter: limiter, wsLimiter: cfg.WSLimiter}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Get("/stats", h.handleGetStats)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/weapons", h.handleGetWeapons)
		r.Get("/enemies", h.handleGetEnemies)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.handleListSessions)
			r.Post("/", h.handleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetSession)
				r.Delete("/", h.handleDeleteSession)
				r.Get("/events", h.handleSessionEvents)
				r.Get("/minimap.png", h.handleMinimap)
				r.Post("/{command}", h.handleSessionCommand)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
