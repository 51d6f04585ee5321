// Package config provides centralized configuration management.
// Every tunable of the simulation server lives here; other packages take
// these structs rather than reading the environment themselves.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimulationConfig holds the per-session frame scheduler settings.
type SimulationConfig struct {
	TickRate      int     // Simulation ticks per second
	MaxFrameDelta float64 // Upper bound on one frame's delta, seconds
	Seed          int64   // RNG seed; 0 means derive from wall clock
}

// DefaultSimulation returns the default simulation configuration.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		TickRate:      60,
		MaxFrameDelta: 0.1,
		Seed:          0,
	}
}

// SimulationFromEnv returns simulation configuration with environment overrides.
func SimulationFromEnv() SimulationConfig {
	cfg := DefaultSimulation()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if d := getEnvFloat("MAX_FRAME_DELTA", 0); d > 0 {
		cfg.MaxFrameDelta = d
	}
	if s := getEnvInt("SIM_SEED", 0); s != 0 {
		cfg.Seed = int64(s)
	}

	return cfg
}

// TickInterval converts the tick rate into a ticker period.
func (c SimulationConfig) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRate)
}

// =============================================================================
// GAME RESOURCE LIMITS
// =============================================================================

// ResourceLimits caps entity populations. Requests over a cap are dropped.
type ResourceLimits struct {
	MaxEnemies int // Live (active + dying) enemies
	MaxPickups int // Weapon pickups lying in the arena
	MaxBullets int // Bullets in flight
	MaxEffects int // Tracked timed effects
	KillFeed   int // Score gains kept for the HUD feed
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxEnemies: 10,
		MaxPickups: 5,
		MaxBullets: 200,
		MaxEffects: 256,
		KillFeed:   5,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP and websocket settings.
type ServerConfig struct {
	Port             int
	MaxSessions      int
	SnapshotInterval time.Duration // Websocket snapshot push period
	MaxConnsPerIP    int
	IdleTimeout      time.Duration // Sessions with no client for this long are removed
	RequestsPerSec   float64       // Per-IP REST limit
	Burst            int
	InputPerSec      float64 // Per-connection websocket input limit
	InputBurst       int
	AllowedOrigins   []string
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:             3000,
		MaxSessions:      100,
		SnapshotInterval: 50 * time.Millisecond,
		MaxConnsPerIP:    5,
		IdleTimeout:      10 * time.Minute,
		RequestsPerSec:   20,
		Burst:            40,
		InputPerSec:      500,
		InputBurst:       200,
		AllowedOrigins:   []string{"*"},
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if ms := getEnvInt("MAX_SESSIONS", 0); ms > 0 {
		cfg.MaxSessions = ms
	}
	if si := getEnvInt("SNAPSHOT_INTERVAL_MS", 0); si > 0 {
		cfg.SnapshotInterval = time.Duration(si) * time.Millisecond
	}
	if mc := getEnvInt("MAX_CONNS_PER_IP", 0); mc > 0 {
		cfg.MaxConnsPerIP = mc
	}
	if it := getEnvInt("SESSION_IDLE_TIMEOUT_SEC", 0); it > 0 {
		cfg.IdleTimeout = time.Duration(it) * time.Second
	}
	if rps := getEnvFloat("RATE_LIMIT_RPS", 0); rps > 0 {
		cfg.RequestsPerSec = rps
	}
	if b := getEnvInt("RATE_LIMIT_BURST", 0); b > 0 {
		cfg.Burst = b
	}
	if ir := getEnvFloat("WS_INPUT_RPS", 0); ir > 0 {
		cfg.InputPerSec = ir
	}
	if ib := getEnvInt("WS_INPUT_BURST", 0); ib > 0 {
		cfg.InputBurst = ib
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	return cfg
}

// =============================================================================
// EVENT LOG CONFIGURATION
// =============================================================================

// EventLogConfig controls the per-session gameplay event log.
type EventLogConfig struct {
	Enabled    bool
	Dir        string  // Directory for JSONL files; empty keeps events in memory only
	RatePerSec float64 // Sustained events per second
	Burst      int
	BufferSize int // Ring buffer capacity
}

// DefaultEventLog returns the default event log configuration.
func DefaultEventLog() EventLogConfig {
	return EventLogConfig{
		Enabled:    true,
		Dir:        "",
		RatePerSec: 200,
		Burst:      400,
		BufferSize: 1024,
	}
}

// EventLogFromEnv returns event log configuration with environment overrides.
func EventLogFromEnv() EventLogConfig {
	cfg := DefaultEventLog()

	if os.Getenv("EVENT_LOG_ENABLED") == "false" {
		cfg.Enabled = false
	}
	if dir := os.Getenv("EVENT_LOG_DIR"); dir != "" {
		cfg.Dir = dir
	}
	if r := getEnvFloat("EVENT_LOG_RATE", 0); r > 0 {
		cfg.RatePerSec = r
	}

	return cfg
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig controls the pprof debug listener.
type ObservabilityConfig struct {
	EnableDebugServer bool
	DebugAddr         string
}

// DefaultObservability returns the default observability configuration.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		EnableDebugServer: false,
		DebugAddr:         "127.0.0.1:6060",
	}
}

// ObservabilityFromEnv returns observability configuration with environment overrides.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservability()

	if os.Getenv("DEBUG_SERVER") == "true" {
		cfg.EnableDebugServer = true
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.DebugAddr = addr
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Simulation    SimulationConfig
	Limits        ResourceLimits
	Server        ServerConfig
	EventLog      EventLogConfig
	Observability ObservabilityConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Simulation:    SimulationFromEnv(),
		Limits:        DefaultLimits(),
		Server:        ServerFromEnv(),
		EventLog:      EventLogFromEnv(),
		Observability: ObservabilityFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
