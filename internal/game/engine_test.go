package game

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"game-hub/internal/config"
)

const tick = 1.0 / 60

func newTestEngine(t *testing.T) (*Engine, *flatWorld) {
	t.Helper()
	sim := config.DefaultSimulation()
	sim.Seed = 1

	world := newFlatWorld()
	e := NewEngine(EngineConfig{
		SessionID:  "test",
		Simulation: sim,
		Limits:     config.DefaultLimits(),
		EventLog:   config.DefaultEventLog(),
		Time:       NewMockTimeProvider(time.Unix(0, 0)),
	}, world)
	if err := e.eventLog.Start(""); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.eventLog.Stop)
	return e, world
}

// startedEngine returns an engine already in PhasePlaying with its
// pointer-lock request drained.
func startedEngine(t *testing.T) *Engine {
	t.Helper()
	e, _ := newTestEngine(t)
	e.Input().Command("start")
	e.Step(tick)
	if e.Phase() != PhasePlaying {
		t.Fatalf("Expected playing after start, got %s", e.Phase())
	}
	drainCommands(e)
	return e
}

func drainCommands(e *Engine) int {
	n := 0
	for {
		select {
		case <-e.Commands():
			n++
		default:
			return n
		}
	}
}

func steps(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.Step(tick)
	}
}

func hasEvent(e *Engine, t EventType) bool {
	for _, ev := range e.RecentEvents(0) {
		if ev.Type == t {
			return true
		}
	}
	return false
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestNewEngineInitialState(t *testing.T) {
	e, world := newTestEngine(t)
	snap := e.GetSnapshot()

	if snap.Phase != PhaseNotStarted {
		t.Errorf("Expected not started, got %s", snap.Phase)
	}
	if snap.SessionID != "test" || snap.Session.Health != 100 || !snap.Session.IsPaused {
		t.Errorf("Unexpected initial snapshot: %+v", snap.Session)
	}
	if world.count(LayerPlayer) != 1 {
		t.Errorf("Expected one player body, got %d", world.count(LayerPlayer))
	}
	if !e.Input().Gated() {
		t.Error("Input should be gated before start")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)

	e.Start()
	e.Start()
	time.Sleep(60 * time.Millisecond)
	e.Stop()
	e.Stop()

	if e.GetSnapshot().Sequence < 2 {
		t.Errorf("Expected the ticker to publish snapshots, sequence %d", e.GetSnapshot().Sequence)
	}
}

func TestOnTickHook(t *testing.T) {
	e, _ := newTestEngine(t)
	var ticks atomic.Int32
	e.SetHooks(Hooks{OnTick: func(time.Duration) { ticks.Add(1) }})

	e.Start()
	time.Sleep(60 * time.Millisecond)
	e.Stop()

	if ticks.Load() == 0 {
		t.Error("Expected OnTick to be called")
	}
}

// =============================================================================
// PAUSE AND POINTER LOCK
// =============================================================================

func TestStartRequestsPointerLock(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Input().Command("start")
	e.Step(tick)

	if e.Phase() != PhasePlaying {
		t.Fatalf("Expected playing, got %s", e.Phase())
	}
	if drainCommands(e) != 1 {
		t.Error("Expected one pointer lock request")
	}
	snap := e.GetSnapshot()
	if snap.Session.IsPaused {
		t.Error("Session should not be paused while playing")
	}
	if e.Input().Gated() {
		t.Error("Input should open while playing")
	}
}

func TestEscapeBeforeStartIgnored(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Input().KeyDown("Escape")
	e.Step(tick)

	if e.Phase() != PhaseNotStarted {
		t.Errorf("Expected not started, got %s", e.Phase())
	}
	if drainCommands(e) != 0 {
		t.Error("No lock request expected")
	}
}

func TestEscapeTogglesPause(t *testing.T) {
	e := startedEngine(t)

	e.Input().KeyDown("Escape")
	e.Step(tick)
	if e.Phase() != PhasePaused || !e.GetSnapshot().Session.IsPaused {
		t.Fatalf("Expected paused, got %s", e.Phase())
	}
	if !e.Input().Gated() {
		t.Error("Input should be gated while paused")
	}

	e.Input().KeyDown("Escape")
	e.Step(tick)
	if e.Phase() != PhasePlaying {
		t.Errorf("Expected playing after second escape, got %s", e.Phase())
	}
	if drainCommands(e) != 1 {
		t.Error("Expected a lock request on resume")
	}
}

func TestLockLossPausesAndKeepsProgress(t *testing.T) {
	e := startedEngine(t)
	e.session.AddScore(50, "test")
	e.session.TakeDamage(10)

	e.Input().PointerLockChange(false)
	e.Step(tick)

	snap := e.GetSnapshot()
	if snap.Phase != PhasePaused {
		t.Fatalf("Expected paused, got %s", snap.Phase)
	}
	if snap.Session.Health != 90 || snap.Session.Score != 50 {
		t.Errorf("Expected health 90 score 50, got %d %d", snap.Session.Health, snap.Session.Score)
	}
}

func TestLockLossAndEscapeInOneFrame(t *testing.T) {
	tests := []struct {
		name  string
		input func(in *InputAggregator)
	}{
		{"lock lost then escape", func(in *InputAggregator) {
			in.PointerLockChange(false)
			in.KeyDown("Escape")
		}},
		{"escape then lock lost", func(in *InputAggregator) {
			in.KeyDown("Escape")
			in.PointerLockChange(false)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := startedEngine(t)
			e.Input().PointerLockChange(true)
			e.Step(tick)

			tt.input(e.Input())
			e.Step(tick)

			if e.Phase() != PhasePaused {
				t.Errorf("Expected paused, got %s", e.Phase())
			}
			if e.Input().PointerLocked() {
				t.Error("Expected pointer unlocked")
			}
			if drainCommands(e) != 0 {
				t.Error("No lock request expected while paused")
			}

			// A later Escape still resumes.
			e.Input().KeyDown("Escape")
			e.Step(tick)
			if e.Phase() != PhasePlaying {
				t.Errorf("Expected playing on the next escape, got %s", e.Phase())
			}
		})
	}
}

func TestDiscardCommands(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Input().Command("start")
	e.Step(tick)

	if n := e.DiscardCommands(); n != 1 {
		t.Errorf("Expected 1 discarded command, got %d", n)
	}
	if drainCommands(e) != 0 {
		t.Error("Expected no commands left")
	}
}

func TestHiddenPauses(t *testing.T) {
	e := startedEngine(t)
	e.Input().KeyDown("KeyW")
	e.Input().VisibilityChange(true)
	e.Step(tick)

	if e.Phase() != PhasePaused {
		t.Fatalf("Expected paused, got %s", e.Phase())
	}

	e.Input().Command("resume")
	e.Step(tick)
	if in := e.Input().Drain(); in.Held != 0 {
		t.Errorf("Keys should not survive a hide, held %b", in.Held)
	}
}

func TestResumeSchedulesAutoLock(t *testing.T) {
	e := startedEngine(t)
	e.Input().KeyDown("Escape")
	e.Step(tick)

	e.Input().Command("resume")
	e.Step(tick)
	if drainCommands(e) != 1 {
		t.Fatal("Expected an immediate lock request")
	}

	steps(e, 12)
	if drainCommands(e) != 1 {
		t.Error("Expected the deferred lock request while still unlocked")
	}
}

func TestAutoLockSkippedWhenLocked(t *testing.T) {
	e := startedEngine(t)
	e.Input().KeyDown("Escape")
	e.Step(tick)

	e.Input().Command("resume")
	e.Step(tick)
	drainCommands(e)
	e.Input().PointerLockChange(true)

	steps(e, 12)
	if drainCommands(e) != 0 {
		t.Error("No deferred request once the pointer is locked")
	}
}

func TestPausedTimeStandsStill(t *testing.T) {
	e := startedEngine(t)
	steps(e, 10)

	e.Input().KeyDown("Escape")
	e.Step(tick)
	before := e.GetSnapshot()

	steps(e, 30)
	after := e.GetSnapshot()

	if after.Elapsed != before.Elapsed {
		t.Errorf("Elapsed moved while paused: %f -> %f", before.Elapsed, after.Elapsed)
	}
	if after.Camera.Position != before.Camera.Position {
		t.Error("Player moved while paused")
	}
	if after.TickNumber <= before.TickNumber {
		t.Error("Tick counter should keep counting")
	}
}

// =============================================================================
// GAMEPLAY
// =============================================================================

func TestShootThroughInput(t *testing.T) {
	e := startedEngine(t)
	var shots atomic.Int32
	e.SetHooks(Hooks{OnShot: func(WeaponID) { shots.Add(1) }})

	e.Input().MouseDown(0)
	e.Step(tick)

	snap := e.GetSnapshot()
	if snap.Session.Ammo[Pistol] != 29 {
		t.Errorf("Expected 29 rounds, got %d", snap.Session.Ammo[Pistol])
	}
	if snap.Stats.TotalShots != 1 || shots.Load() != 1 {
		t.Errorf("Expected one shot, got %d (hook %d)", snap.Stats.TotalShots, shots.Load())
	}
	if len(snap.Bullets) != 1 {
		t.Errorf("Expected one tracer, got %d", len(snap.Bullets))
	}
	if !hasEvent(e, EventTypeShot) {
		t.Error("Expected a shot event")
	}
}

func TestClicksIgnoredWhilePaused(t *testing.T) {
	e := startedEngine(t)
	e.Input().KeyDown("Escape")
	e.Step(tick)

	e.Input().MouseDown(0)
	e.Step(tick)

	if e.GetSnapshot().Session.Ammo[Pistol] != 30 {
		t.Error("Paused clicks must not fire")
	}
}

func TestWeaponSlotSwitch(t *testing.T) {
	e := startedEngine(t)
	e.session.PickupWeapon(Rifle)

	e.Input().KeyDown("Digit1")
	e.Step(tick)
	if got := e.GetSnapshot().Session.CurrentWeapon; got != Pistol {
		t.Fatalf("Expected pistol, got %s", got)
	}
	if !hasEvent(e, EventTypeWeaponSwitch) {
		t.Error("Expected a weapon switch event")
	}

	e.Input().KeyDown("Digit2")
	e.Step(tick)
	if got := e.GetSnapshot().Session.CurrentWeapon; got != Pistol {
		t.Errorf("Unowned shotgun should not equip, got %s", got)
	}
}

func TestWheelAdjustsSensitivityWhilePaused(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Input().Wheel(-100, true)
	e.Step(tick)

	if got := e.GetSnapshot().Session.MouseSensitivity; math.Abs(got-0.7) > 1e-9 {
		t.Errorf("Expected 0.7, got %f", got)
	}
}

func TestEnemiesArriveAfterDelay(t *testing.T) {
	e := startedEngine(t)
	steps(e, 100)
	if n := e.GetSnapshot().Stats.Enemies; n != 0 {
		t.Fatalf("Expected no enemies before 2s, got %d", n)
	}

	steps(e, 30)
	if n := e.GetSnapshot().Stats.Enemies; n != EnemyInitialBurst {
		t.Errorf("Expected %d enemies, got %d", EnemyInitialBurst, n)
	}
}

func TestGameOverAndRestart(t *testing.T) {
	e := startedEngine(t)
	steps(e, 130)
	e.session.AddScore(40, "test")
	e.session.TakeDamage(100)
	e.Step(tick)

	snap := e.GetSnapshot()
	if snap.Phase != PhaseGameOver || !snap.Session.IsGameOver {
		t.Fatalf("Expected game over, got %s", snap.Phase)
	}
	if !snap.HUD.DamageFlash {
		t.Error("Expected damage flash")
	}

	e.Input().KeyDown("Escape")
	e.Input().Command("resume")
	e.Step(tick)
	if e.Phase() != PhaseGameOver {
		t.Fatalf("Game over must be terminal, got %s", e.Phase())
	}

	e.Input().Command("restart")
	e.Step(tick)
	snap = e.GetSnapshot()
	if snap.Phase != PhasePlaying {
		t.Fatalf("Expected playing after restart, got %s", snap.Phase)
	}
	if snap.Session.Health != 100 || snap.Session.Score != 0 || snap.Session.IsGameOver {
		t.Errorf("Expected fresh session, got %+v", snap.Session)
	}
	if snap.Stats.Enemies != 0 || snap.Stats.Bullets != 0 || len(snap.HUD.KillFeed) != 0 {
		t.Errorf("Expected an empty world, got %+v", snap.Stats)
	}
	if !hasEvent(e, EventTypeReset) {
		t.Error("Expected a reset event")
	}
}

func TestResetReturnsToStart(t *testing.T) {
	e := startedEngine(t)
	steps(e, 10)

	e.Input().Command("reset")
	e.Step(tick)

	snap := e.GetSnapshot()
	if snap.Phase != PhaseNotStarted || !snap.Session.IsPaused {
		t.Errorf("Expected not started and paused, got %s", snap.Phase)
	}
	if snap.Elapsed != 0 {
		t.Errorf("Expected world time reset, got %f", snap.Elapsed)
	}
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func TestSnapshotsAreImmutable(t *testing.T) {
	e := startedEngine(t)
	first := e.GetSnapshot()
	seq, health := first.Sequence, first.Session.Health

	e.session.TakeDamage(30)
	e.Step(tick)

	if first.Sequence != seq || first.Session.Health != health {
		t.Error("Published snapshot was modified")
	}
	second := e.GetSnapshot()
	if second.Sequence != seq+1 || second.Session.Health != 70 {
		t.Errorf("Expected next snapshot with health 70, got seq %d health %d", second.Sequence, second.Session.Health)
	}
}

func TestSnapshotBufferSequence(t *testing.T) {
	b := NewSnapshotBuffer()
	if b.Latest() == nil {
		t.Fatal("Latest should never be nil")
	}

	now := time.Unix(100, 0)
	for i := 0; i < 3; i++ {
		b.Publish(&GameSnapshot{}, now)
	}
	if b.Latest().Sequence != 3 || !b.Latest().Timestamp.Equal(now) {
		t.Errorf("Expected sequence 3, got %d", b.Latest().Sequence)
	}
}

func TestGameOverHookReportsResult(t *testing.T) {
	e := startedEngine(t)
	var got []GameResult
	e.SetHooks(Hooks{OnGameOver: func(r GameResult) { got = append(got, r) }})

	steps(e, 30)
	e.session.AddScore(25, "test")
	e.session.TakeDamage(100)
	steps(e, 3)

	if len(got) != 1 {
		t.Fatalf("Expected one game over report, got %d", len(got))
	}
	if got[0].Score != 25 || got[0].Survived <= 0 {
		t.Errorf("Unexpected result %+v", got[0])
	}
	if r := e.Result(); r.Score != 25 {
		t.Errorf("Expected Result score 25, got %d", r.Score)
	}
}
