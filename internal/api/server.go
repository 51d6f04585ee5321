package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"game-hub/internal/config"
)

const (
	gaugeInterval   = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server is the HTTP API plus the session websocket.
type Server struct {
	hub         SessionHub
	cfg         config.ServerConfig
	router      *chi.Mux
	rateLimiter *IPRateLimiter
	wsLimiter   *WebSocketRateLimiter
	socket      *SessionSocket
}

// NewServer builds the router and websocket handler.
//
// Nothing listens and no metrics are sampled until Run. Tests can wrap
// Router() in httptest.NewServer.
func NewServer(h SessionHub, cfg config.ServerConfig) *Server {
	rlCfg := RateLimitConfigFrom(cfg)
	s := &Server{
		hub:         h,
		cfg:         cfg,
		rateLimiter: NewIPRateLimiter(rlCfg),
		wsLimiter:   NewWebSocketRateLimiter(cfg.MaxConnsPerIP),
	}
	s.socket = NewSessionSocket(h, s.wsLimiter, NewOriginChecker(cfg.AllowedOrigins), cfg.SnapshotInterval, InputRateConfigFrom(cfg))

	s.router = NewRouter(RouterConfig{
		Hub:         h,
		RateLimiter: s.rateLimiter,
		WSLimiter:   s.wsLimiter,
		CORSOrigins: cfg.AllowedOrigins,
	})
	s.router.Get("/ws", s.socket.ServeHTTP)

	return s
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run listens on the configured port until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.sampleGauges(ctx)

	errc := make(chan error, 1)
	go func() {
		log.Printf("🌐 API server starting on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.Stop()
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	log.Println("🌐 API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Stop()
	if err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

// Stop ends background workers.
func (s *Server) Stop() {
	s.rateLimiter.Stop()
}

// sampleGauges refreshes the cross-session gauges.
func (s *Server) sampleGauges(ctx context.Context) {
	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enemies, bullets := 0, 0
			list := s.hub.List()
			for _, sum := range list {
				enemies += sum.Enemies
				bullets += sum.Bullets
			}
			UpdateSessionGauges(len(list), enemies, bullets)
		}
	}
}
