package game

import (
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"game-hub/internal/config"
)

// Command is a message from the simulation to the client transport.
type Command struct {
	Type string `json:"type" msgpack:"type"`
}

// CommandRequestPointerLock asks the browser to capture the pointer.
const CommandRequestPointerLock = "request_pointer_lock"

const commandBuffer = 16

// EngineConfig configures one session's engine.
type EngineConfig struct {
	SessionID  string
	Simulation config.SimulationConfig
	Limits     config.ResourceLimits
	EventLog   config.EventLogConfig
	Time       TimeProvider // nil means wall clock
}

// Hooks are optional observers called synchronously from the tick.
type Hooks struct {
	OnTick     func(d time.Duration)
	OnShot     func(w WeaponID)
	OnKill     func(t EnemyType)
	OnGameOver func(r GameResult)
}

// GameResult summarizes a play-through.
type GameResult struct {
	Score    int     `json:"score"`
	Kills    int     `json:"kills"`
	Shots    int     `json:"shots"`
	Survived float64 `json:"survived"` // simulated seconds
}

// Engine runs one play session: it owns the session state, every
// subsystem and the pause controller, and advances them on a ticker.
// Browser input arrives through Input() from any goroutine and is read
// once per tick; readers get immutable snapshots.
type Engine struct {
	mu sync.Mutex

	id      string
	cfg     EngineConfig
	physics PhysicsWorld
	rng     *rand.Rand
	seed    int64
	clock   TimeProvider

	session    *Session
	input      *InputAggregator
	world      *WorldClock
	controller *PauseController
	effects    *Effects
	feed       *KillFeed

	enemies *EnemySystem
	pickups *PickupSystem
	shots   *ShotResolver
	bullets *ProjectileSystem
	player  *PlayerController

	snapshots *SnapshotBuffer
	eventLog  *EventLog
	commands  chan Command
	hooks     Hooks

	// Set when this frame's control events paused the game. Escape may
	// not undo that pause in the same frame.
	pausedThisFrame bool

	nextEntity uint64
	totalKills int
	totalShots int

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	lastTick time.Time
}

// NewEngine builds a session engine on top of physics. The engine is
// created in PhaseNotStarted and does not tick until Start.
func NewEngine(cfg EngineConfig, physics PhysicsWorld) *Engine {
	if cfg.Simulation.TickRate <= 0 {
		cfg.Simulation = config.DefaultSimulation()
	}
	if cfg.Limits.MaxEnemies <= 0 {
		cfg.Limits = config.DefaultLimits()
	}
	if cfg.Time == nil {
		cfg.Time = NewRealTimeProvider()
	}
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		id:         cfg.SessionID,
		cfg:        cfg,
		physics:    physics,
		rng:        rand.New(rand.NewSource(seed)),
		seed:       seed,
		clock:      cfg.Time,
		session:    NewSession(),
		input:      NewInputAggregator(256),
		world:      NewWorldClock(cfg.Simulation.MaxFrameDelta),
		controller: NewPauseController(),
		effects:    NewEffects(cfg.Limits.MaxEffects),
		feed:       NewKillFeed(cfg.Limits.KillFeed),
		snapshots:  NewSnapshotBuffer(),
		eventLog:   NewEventLog(cfg.EventLog),
		commands:   make(chan Command, commandBuffer),
		stopChan:   make(chan struct{}),
	}

	e.enemies = NewEnemySystem(physics, e.session, e.effects, e.rng, cfg.Limits.MaxEnemies, e.entityID("enemy"))
	e.pickups = NewPickupSystem(e.session, e.effects, e.rng, cfg.Limits.MaxPickups, e.entityID("pickup"))
	e.shots = NewShotResolver(e.enemies, e.session, e.effects)
	e.bullets = NewProjectileSystem(physics, e.enemies, e.shots, cfg.Limits.MaxBullets)
	e.player = NewPlayerController(physics, e.session, e.shots, e.bullets, e.rng)

	e.enemies.SetNotifier(e.emit)
	e.pickups.SetNotifier(e.emit)
	e.player.SetNotifier(e.emit)

	e.session.OnDamage(func(amount int) {
		e.effects.Trigger(EffectDamageFlash, "", e.world.Elapsed(), DamageFlashDuration)
		e.emit(EventTypePlayerDamaged, DamagePayload{Source: "melee", Damage: amount, Health: e.session.Health()})
	})
	e.session.OnScore(func(points int, reason string) {
		e.feed.Push(FeedEntry{Points: points, Reason: reason, At: e.world.Elapsed()})
	})
	e.session.OnReset(e.clearWorld)

	e.produceSnapshot()
	return e
}

func (e *Engine) entityID(prefix string) func() string {
	return func() string {
		e.nextEntity++
		return prefix + "-" + strconv.FormatUint(e.nextEntity, 10)
	}
}

// Start begins the tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.lastTick = e.clock.Now()
	e.ticker = time.NewTicker(e.cfg.Simulation.TickInterval())
	e.mu.Unlock()

	if e.cfg.EventLog.Enabled {
		path := ""
		if e.cfg.EventLog.Dir != "" {
			path = e.cfg.EventLog.Dir + "/session-" + e.id + ".jsonl"
		}
		if err := e.eventLog.Start(path); err != nil {
			log.Printf("⚠️ Event log for %s not started: %v", e.id, err)
		}
	}

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Session %s engine started at %d TPS (seed %d)", e.id, e.cfg.Simulation.TickRate, e.seed)
}

// Stop stops the tick loop and closes the event log. Safe to call twice.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	e.mu.Unlock()

	e.eventLog.Stop()
	log.Printf("🛑 Session %s engine stopped", e.id)
}

// tick is driven by the ticker with the measured wall delta.
func (e *Engine) tick() {
	start := time.Now()
	now := e.clock.Now()

	e.mu.Lock()
	raw := now.Sub(e.lastTick).Seconds()
	e.lastTick = now
	e.step(raw)
	onTick := e.hooks.OnTick
	e.mu.Unlock()

	if onTick != nil {
		onTick(time.Since(start))
	}
}

// Step advances the simulation by dt seconds of wall time. Tests drive
// the engine with it instead of Start.
func (e *Engine) Step(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.step(dt)
}

func (e *Engine) step(raw float64) {
	in := e.input.Drain()
	e.pausedThisFrame = false

	// Phase changes and sensitivity apply whether or not we are playing.
	for _, ev := range in.Events {
		e.handleControlEvent(ev)
	}

	f := e.world.Advance(raw)

	if e.controller.Active() {
		for _, ev := range in.Events {
			if ev.Kind == InputJump {
				e.player.RequestJump()
			}
		}
		e.player.PreStep(f, in)
		for _, ev := range in.Events {
			e.handleGameplayEvent(ev, f)
		}

		e.physics.Step(f.Delta)
		e.player.PostStep()

		pos := e.session.PlayerPosition()
		e.bullets.Update(f)
		e.enemies.Update(f, pos)
		e.pickups.Update(f, pos)
	}

	e.effects.Sweep(f.Elapsed, e.effectFired)

	if e.session.IsGameOver() {
		e.fire(TriggerHealthDepleted)
	}

	if f.Tick%TickSampleEvery == 0 {
		e.emit(EventTypeTick, TickPayload{
			Elapsed: f.Elapsed,
			Enemies: e.enemies.Count(),
			Bullets: e.bullets.Count(),
			Pickups: e.pickups.Count(),
		})
	}

	e.produceSnapshot()
}

func (e *Engine) handleControlEvent(ev InputEvent) {
	switch ev.Kind {
	case InputEscape:
		if e.pausedThisFrame {
			return
		}
		e.fire(TriggerEscape)
	case InputPointerLock:
		if !ev.Locked {
			e.fire(TriggerLockLost)
		}
	case InputVisibility:
		if ev.Hidden {
			e.fire(TriggerHidden)
		}
	case InputSensitivity:
		e.session.UpdateMouseSensitivity(e.session.MouseSensitivity() + ev.Delta)
	case InputStart:
		e.fire(TriggerStart)
	case InputResume:
		e.fire(TriggerResume)
	case InputRestart:
		e.session.ResetGame()
		e.fire(TriggerRestart)
	case InputReset:
		e.session.ResetGame()
		e.fire(TriggerReset)
	}
}

func (e *Engine) handleGameplayEvent(ev InputEvent, f Frame) {
	switch ev.Kind {
	case InputShoot:
		e.player.Shoot(f.Elapsed)
	case InputInteract:
		e.pickups.Interact(e.session.PlayerPosition(), f.Elapsed)
	case InputWeaponSlot:
		id, ok := WeaponForSlot(ev.Slot)
		if !ok {
			return
		}
		from := e.session.CurrentWeapon()
		e.session.SwitchWeapon(id)
		if to := e.session.CurrentWeapon(); to != from {
			e.emit(EventTypeWeaponSwitch, WeaponSwitchPayload{From: from, To: to})
		}
	}
}

// fire applies a controller trigger and, on a transition, its side
// effects: input gating, clock pause, session flag and lock requests.
func (e *Engine) fire(t Trigger) {
	from, to, ok := e.controller.Fire(t)
	if !ok {
		return
	}

	playing := to == PhasePlaying
	if from == PhasePlaying && to == PhasePaused {
		e.pausedThisFrame = true
	}
	if e.session.IsPaused() == playing {
		e.session.TogglePause()
	}
	e.input.SetGated(!playing)
	if playing {
		e.world.Resume()
	} else {
		e.input.ClearKeys()
		e.world.Pause()
	}

	switch {
	case t == TriggerStart || t == TriggerRestart:
		e.requestPointerLock()
	case playing && from == PhasePaused:
		e.requestPointerLock()
		e.effects.Trigger(EffectAutoLock, "", e.world.Elapsed(), AutoLockDelay)
	}

	e.emit(EventTypePhase, PhasePayload{From: from.String(), To: to.String(), Trigger: t.String()})
	if to == PhaseGameOver && e.hooks.OnGameOver != nil {
		e.hooks.OnGameOver(e.result())
	}
	if from != to {
		log.Printf("⏯️ Session %s: %s -> %s (%s)", e.id, from, to, t)
	}
}

func (e *Engine) effectFired(fx TimedEffect) {
	switch fx.Kind {
	case EffectAutoLock:
		if e.controller.Active() && !e.input.PointerLocked() {
			e.requestPointerLock()
		}
	case EffectPickupRespawn:
		if e.controller.Active() {
			e.pickups.SpawnNear(e.session.PlayerPosition())
		}
	}
}

func (e *Engine) requestPointerLock() {
	select {
	case e.commands <- Command{Type: CommandRequestPointerLock}:
	default:
		// Transport is not draining; a newer request will follow.
	}
}

// clearWorld runs after the session restores its defaults.
func (e *Engine) clearWorld() {
	e.bullets.Clear()
	e.shots.Clear()
	e.enemies.Clear()
	e.pickups.Clear()
	e.effects.Clear()
	e.feed.Clear()
	e.world.Reset()
	e.player.Reset()
	e.input.ClearKeys()
	e.totalKills = 0
	e.totalShots = 0
	e.emit(EventTypeReset, nil)
}

func (e *Engine) emit(t EventType, payload interface{}) {
	switch t {
	case EventTypeShot:
		e.totalShots++
		if p, ok := payload.(ShotPayload); ok && e.hooks.OnShot != nil {
			e.hooks.OnShot(p.Weapon)
		}
	case EventTypeEnemyKilled:
		e.totalKills++
		if p, ok := payload.(EnemyPayload); ok && e.hooks.OnKill != nil {
			e.hooks.OnKill(p.Type)
		}
	}
	e.eventLog.EmitSimple(t, e.world.Tick(), e.id, payload)
}

func (e *Engine) result() GameResult {
	return GameResult{
		Score:    e.session.Score(),
		Kills:    e.totalKills,
		Shots:    e.totalShots,
		Survived: e.world.Elapsed(),
	}
}

// produceSnapshot publishes an immutable copy of the session.
func (e *Engine) produceSnapshot() {
	now := e.world.Elapsed()

	prompt := false
	pickups := e.pickups.Views(now)
	for _, p := range pickups {
		if p.ShowPrompt {
			prompt = true
			break
		}
	}

	snap := &GameSnapshot{
		TickNumber: e.world.Tick(),
		SessionID:  e.id,
		Elapsed:    now,
		Phase:      e.controller.Phase(),
		Session:    e.session.State(),
		Camera:     e.player.View(),
		Enemies:    e.enemies.Views(now),
		Bullets:    e.bullets.Views(),
		Pickups:    pickups,
		HUD: HUDView{
			DamageFlash:  e.effects.Active(EffectDamageFlash, "", now),
			HitMarker:    e.effects.Active(EffectHitMarker, "", now),
			PickupPrompt: prompt,
			KillFeed:     e.feed.Entries(),
		},
		Stats: SnapshotStats{
			Enemies:      e.enemies.Count(),
			Bullets:      e.bullets.Count(),
			Pickups:      e.pickups.Count(),
			OpenShots:    e.shots.Open(),
			TotalKills:   e.totalKills,
			TotalShots:   e.totalShots,
			InputDropped: e.input.Dropped(),
		},
	}
	e.snapshots.Publish(snap, e.clock.Now())
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ID returns the session id.
func (e *Engine) ID() string { return e.id }

// Seed returns the RNG seed the session was created with.
func (e *Engine) Seed() int64 { return e.seed }

// Input returns the aggregator browser events are written to. Safe for
// use from any goroutine.
func (e *Engine) Input() *InputAggregator { return e.input }

// Commands delivers outbound messages for the client transport.
func (e *Engine) Commands() <-chan Command { return e.commands }

// DiscardCommands drops every pending command and returns how many there
// were. Called when a client attaches so it never sees stale requests.
func (e *Engine) DiscardCommands() int {
	n := 0
	for {
		select {
		case <-e.commands:
			n++
		default:
			return n
		}
	}
}

// GetSnapshot returns the latest published snapshot.
func (e *Engine) GetSnapshot() *GameSnapshot { return e.snapshots.Latest() }

// Phase returns the controller phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.controller.Phase()
}

// Result returns the current play-through's score and counters.
func (e *Engine) Result() GameResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result()
}

// SetHooks installs tick, shot, kill and game-over observers. Call before Start.
func (e *Engine) SetHooks(h Hooks) {
	e.mu.Lock()
	e.hooks = h
	e.mu.Unlock()
}

// RecentEvents returns up to n of the session's latest events.
func (e *Engine) RecentEvents(n int) []Event { return e.eventLog.Recent(n) }

// GetEventLogStats returns event log counters.
func (e *Engine) GetEventLogStats() map[string]interface{} { return e.eventLog.GetStats() }

// GetLimits returns the session's resource limits.
func (e *Engine) GetLimits() config.ResourceLimits { return e.cfg.Limits }
