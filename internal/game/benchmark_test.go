package game

import (
	"math/rand"
	"testing"

	"game-hub/internal/config"
	"game-hub/internal/game/spatial"
	"game-hub/internal/game/vmath"
)

// =============================================================================
// BENCHMARK SUITE: CRITICAL PATH PERFORMANCE TESTS
// Run with: go test -bench=. -benchmem ./internal/game/...
// =============================================================================

func BenchmarkEngineStep_Idle(b *testing.B)      { benchmarkEngineStep(b, 0) }
func BenchmarkEngineStep_10Enemies(b *testing.B) { benchmarkEngineStep(b, 10) }

func benchmarkEngineStep(b *testing.B, enemies int) {
	sim := config.DefaultSimulation()
	sim.Seed = 1
	limits := config.DefaultLimits()
	limits.MaxEnemies = enemies + 1
	e := NewEngine(EngineConfig{SessionID: "bench", Simulation: sim, Limits: limits}, newFlatWorld())
	e.Input().Command("start")
	e.Step(1.0 / 60)
	for i := 0; i < enemies; i++ {
		e.enemies.Spawn(EnemyBasic, vmath.V(float64(i*4-20), 1.5, -30))
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		e.Step(1.0 / 60)
	}
}

func BenchmarkProduceSnapshot(b *testing.B) {
	e := NewEngine(EngineConfig{SessionID: "bench"}, newFlatWorld())
	for i := 0; i < 10; i++ {
		e.enemies.Spawn(EnemyBasic, vmath.V(float64(i), 1.5, -20))
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		e.produceSnapshot()
	}
}

func BenchmarkInputDrain(b *testing.B) {
	in := NewInputAggregator(256)
	in.SetGated(false)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		in.KeyDown("KeyW")
		in.MouseMove(1, 1)
		in.MouseDown(0)
		in.Drain()
	}
}

func BenchmarkSpatialGridQuery(b *testing.B) {
	grid := spatial.NewSpatialGrid(-50, -50, 100, 100, 4, 64)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 64; i++ {
		grid.Insert(uint32(i), rng.Float64()*100-50, rng.Float64()*100-50)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = grid.QueryRadius(0, 0, 5)
	}
}

func BenchmarkHitscan(b *testing.B) {
	r := newTestRig(1)
	for i := 0; i < 10; i++ {
		r.enemies.Spawn(EnemyHeavy, vmath.V(float64(i*3-15), 1.5, -25))
	}
	origin, dir := vmath.V(0, 1.5, 0), vmath.V(0, 0, -1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.enemies.RayCast(origin, dir, HitscanRange)
	}
}
