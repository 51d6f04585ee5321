package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"game-hub/internal/api"
	"game-hub/internal/config"
	"game-hub/internal/hub"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  GAME HUB - FPS SIMULATION")
	log.Println("🎮 ================================")

	cfg := config.Load()
	log.Printf("🎮 Config: %d TPS, max %d sessions, snapshots every %v",
		cfg.Simulation.TickRate, cfg.Server.MaxSessions, cfg.Server.SnapshotInterval)
	log.Printf("🛡️ Resource limits: %d enemies, %d bullets, %d pickups, %d effects",
		cfg.Limits.MaxEnemies, cfg.Limits.MaxBullets, cfg.Limits.MaxPickups, cfg.Limits.MaxEffects)
	if cfg.EventLog.Dir != "" {
		if err := os.MkdirAll(cfg.EventLog.Dir, 0o755); err != nil {
			log.Printf("⚠️ Event log dir %s unusable, keeping events in memory: %v", cfg.EventLog.Dir, err)
			cfg.EventLog.Dir = ""
		} else {
			log.Printf("📝 Event logs: %s", cfg.EventLog.Dir)
		}
	}

	debug := api.StartDebugServer(cfg.Observability)

	sessions := hub.NewManager(cfg)
	sessions.SetHooks(api.SessionHooks)
	server := api.NewServer(sessions, cfg.Server)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error { return sessions.Run(ctx) })

	log.Printf("🌐 REST: http://localhost:%d/api/sessions", cfg.Server.Port)
	log.Printf("🔌 WebSocket: ws://localhost:%d/ws?session={id}", cfg.Server.Port)

	err := g.Wait()

	log.Println("🛑 Shutting down...")
	sessions.Close()
	if debug != nil {
		debug.Close()
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("👋 Goodbye!")
}
