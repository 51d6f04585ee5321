// Package hub owns the set of live play sessions. Each session is an
// isolated engine with its own arena, RNG and event log.
package hub

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"game-hub/internal/config"
	"game-hub/internal/game"
	"game-hub/internal/physics"
	"game-hub/internal/render"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("session limit reached")
)

// reapInterval is how often idle sessions are looked for.
const reapInterval = 30 * time.Second

// Session is one live play session.
type Session struct {
	ID        string
	Seed      int64
	Engine    *game.Engine
	Arena     *physics.Arena
	Minimap   *render.Minimap
	CreatedAt time.Time

	lastSeen atomic.Int64 // unix nanos
	clients  atomic.Int32
}

// Touch marks the session as in use.
func (s *Session) Touch() { s.lastSeen.Store(time.Now().UnixNano()) }

// Attach registers a connected client. The returned func detaches it.
// The first client starts with an empty command queue; when the last one
// leaves, held keys are released and a running game pauses.
func (s *Session) Attach() (detach func()) {
	if s.clients.Add(1) == 1 {
		s.Engine.DiscardCommands()
	}
	s.Touch()
	var once sync.Once
	return func() {
		once.Do(func() {
			if s.clients.Add(-1) == 0 {
				s.abandon()
			}
			s.Touch()
		})
	}
}

// abandon treats the loss of every client like the pointer being released.
func (s *Session) abandon() {
	in := s.Engine.Input()
	in.Blur()
	in.PointerLockChange(false)
}

// Clients returns the number of attached clients.
func (s *Session) Clients() int { return int(s.clients.Load()) }

// LastSeen returns when a client last used the session.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Summary is the list view of a session.
type Summary struct {
	ID        string     `json:"id"`
	Phase     game.Phase `json:"phase"`
	Score     int        `json:"score"`
	Health    int        `json:"health"`
	Elapsed   float64    `json:"elapsed"`
	Enemies   int        `json:"enemies"`
	Bullets   int        `json:"bullets"`
	Clients   int        `json:"clients"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Manager creates, finds and retires sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      config.AppConfig
	board    *Leaderboard
	hooks    func(id string) game.Hooks

	created atomic.Uint64
}

// NewManager creates an empty manager.
func NewManager(cfg config.AppConfig) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		board:    NewLeaderboard(DefaultLeaderboardSize),
	}
}

// SetHooks installs a factory for per-session engine hooks (metrics).
// Only sessions created afterwards get them.
func (m *Manager) SetHooks(fn func(id string) game.Hooks) {
	m.mu.Lock()
	m.hooks = fn
	m.mu.Unlock()
}

// Leaderboard returns the results board.
func (m *Manager) Leaderboard() *Leaderboard { return m.board }

// Create starts a new session. seed 0 uses the configured seed, or the
// wall clock when that is 0 too.
func (m *Manager) Create(seed int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if max := m.cfg.Server.MaxSessions; max > 0 && len(m.sessions) >= max {
		return nil, ErrSessionLimit
	}

	if seed == 0 {
		seed = m.cfg.Simulation.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	id := uuid.NewString()
	sim := m.cfg.Simulation
	sim.Seed = seed

	arena := physics.NewArena(rand.New(rand.NewSource(seed)))
	engine := game.NewEngine(game.EngineConfig{
		SessionID:  id,
		Simulation: sim,
		Limits:     m.cfg.Limits,
		EventLog:   m.cfg.EventLog,
	}, arena)

	var hooks game.Hooks
	if m.hooks != nil {
		hooks = m.hooks(id)
	}
	hooks.OnGameOver = m.recordThen(id, hooks.OnGameOver)
	engine.SetHooks(hooks)

	s := &Session{
		ID:        id,
		Seed:      seed,
		Engine:    engine,
		Arena:     arena,
		Minimap:   render.NewMinimap(render.DefaultSize, arena.Boxes()),
		CreatedAt: time.Now(),
	}
	s.Touch()
	m.sessions[id] = s
	m.created.Add(1)

	engine.Start()
	log.Printf("🆕 Session %s created (seed %d, %d live)", id, seed, len(m.sessions))
	return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List returns every session, oldest first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.sessions))
	for _, s := range m.sessions {
		snap := s.Engine.GetSnapshot()
		out = append(out, Summary{
			ID:        s.ID,
			Phase:     snap.Phase,
			Score:     snap.Session.Score,
			Health:    snap.Session.Health,
			Elapsed:   snap.Elapsed,
			Enemies:   snap.Stats.Enemies,
			Bullets:   snap.Stats.Bullets,
			Clients:   s.Clients(),
			CreatedAt: s.CreatedAt,
		})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// TotalCreated returns how many sessions were ever created.
func (m *Manager) TotalCreated() uint64 { return m.created.Load() }

// Remove stops a session and records its result unless it already ended.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	m.retire(s)
	log.Printf("🗑️ Session %s removed", id)
	return nil
}

func (m *Manager) retire(s *Session) {
	s.Engine.Stop()
	if s.Engine.Phase() != game.PhaseGameOver {
		m.record(s.ID, s.Engine.Result())
	}
}

// recordThen returns a game-over hook that records the result before
// calling next.
func (m *Manager) recordThen(id string, next func(game.GameResult)) func(game.GameResult) {
	return func(r game.GameResult) {
		m.record(id, r)
		if next != nil {
			next(r)
		}
	}
}

func (m *Manager) record(id string, r game.GameResult) {
	rank := m.board.Record(LeaderboardEntry{
		SessionID:  id,
		Score:      r.Score,
		Kills:      r.Kills,
		Survived:   r.Survived,
		FinishedAt: time.Now(),
	})
	if rank > 0 {
		log.Printf("🏆 Session %s placed #%d with %d points", id, rank, r.Score)
	}
}

// ReapIdle removes sessions without clients that have not been used
// for longer than maxIdle. Returns how many were removed.
func (m *Manager) ReapIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.Clients() == 0 && s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		m.retire(s)
		log.Printf("💤 Session %s reaped after %v idle", s.ID, maxIdle)
	}
	return len(idle)
}

// Run reaps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	if m.cfg.Server.IdleTimeout <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.ReapIdle(m.cfg.Server.IdleTimeout)
		}
	}
}

// Close stops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		m.retire(s)
	}
	log.Printf("🛑 Hub closed (%d sessions stopped)", len(all))
}
