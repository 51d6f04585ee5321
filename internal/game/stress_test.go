package game

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"game-hub/internal/config"
)

// =============================================================================
// STRESS TESTS: CONCURRENT CLIENTS AGAINST A TICKING ENGINE
// Run with: go test -race -run=TestStress ./internal/game/...
// =============================================================================

var stressKeys = []string{"KeyW", "KeyA", "KeyS", "KeyD", "Space", "ShiftLeft", "Digit1", "Digit2", "KeyE"}

func TestStress_InputWhileTicking(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	sim := config.DefaultSimulation()
	sim.Seed = 99
	sim.TickRate = 120
	e := NewEngine(EngineConfig{
		SessionID:  "stress",
		Simulation: sim,
		Limits:     config.DefaultLimits(),
		EventLog:   config.DefaultEventLog(),
	}, newFlatWorld())

	var ticks atomic.Int64
	e.SetHooks(Hooks{OnTick: func(time.Duration) { ticks.Add(1) }})
	e.Input().Command("start")
	e.Start()
	defer e.Stop()

	stop := make(chan struct{})
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			in := e.Input()
			for {
				select {
				case <-stop:
					return
				default:
				}
				key := stressKeys[rng.Intn(len(stressKeys))]
				switch rng.Intn(5) {
				case 0:
					in.KeyDown(key)
				case 1:
					in.KeyUp(key)
				case 2:
					in.MouseMove(rng.Float64()*10-5, rng.Float64()*10-5)
				case 3:
					in.MouseDown(0)
				case 4:
					in.PointerLockChange(true)
				}
			}
		}(int64(w))
	}

	var lastSeq uint64
	var regressions atomic.Int32
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := e.GetSnapshot()
			if snap.Sequence < lastSeq {
				regressions.Add(1)
			}
			lastSeq = snap.Sequence
			if snap.Session.Health < 0 || snap.Session.Health > MaxHealth {
				regressions.Add(1)
			}
		}
	}()

	time.Sleep(500 * time.Millisecond)
	close(stop)
	wg.Wait()

	if ticks.Load() == 0 {
		t.Fatal("Engine never ticked")
	}
	if regressions.Load() != 0 {
		t.Errorf("Observed %d inconsistent snapshots", regressions.Load())
	}
	t.Logf("ticks=%d dropped=%d shots=%d", ticks.Load(), e.Input().Dropped(), e.GetSnapshot().Stats.TotalShots)
}

func TestStress_LongRunKeepsLimits(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	e, _ := newTestEngine(t)
	limits := e.GetLimits()
	e.Input().Command("start")
	e.Input().PointerLockChange(true)

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 60*120; i++ {
		if rng.Intn(4) == 0 {
			e.Input().MouseDown(0)
		}
		if rng.Intn(30) == 0 {
			e.Input().KeyDown("KeyE")
		}
		e.Input().MouseMove(rng.Float64()*40-20, 0)
		e.Step(tick)

		s := e.GetSnapshot().Stats
		if s.Enemies > limits.MaxEnemies || s.Bullets > limits.MaxBullets || s.Pickups > limits.MaxPickups {
			t.Fatalf("Limits exceeded at step %d: %+v", i, s)
		}
		if e.Phase() == PhaseGameOver {
			e.Input().Command("restart")
		}
	}
}
