package game

import (
	"math/rand"
	"strconv"

	"game-hub/internal/config"
	"game-hub/internal/game/vmath"
)

// flatWorld is a PhysicsWorld with a floor at y=0 and optional walls.
type flatWorld struct {
	bodies []*flatBody
	walls  [][2]vmath.Vec3 // min, max
	steps  int
}

type flatBody struct {
	pos, vel, rot vmath.Vec3
	half          vmath.Vec3
	gravity       float64
	layer         Layer
}

func (b *flatBody) Position() vmath.Vec3           { return b.pos }
func (b *flatBody) SetPosition(p vmath.Vec3)       { b.pos = p }
func (b *flatBody) LinearVelocity() vmath.Vec3     { return b.vel }
func (b *flatBody) SetLinearVelocity(v vmath.Vec3) { b.vel = v }
func (b *flatBody) Rotation() vmath.Vec3           { return b.rot }
func (b *flatBody) SetRotation(r vmath.Vec3)       { b.rot = r }

func newFlatWorld() *flatWorld { return &flatWorld{} }

func (w *flatWorld) CreateBody(desc BodyDesc) RigidBody {
	b := &flatBody{pos: desc.Position, half: desc.HalfExtents, gravity: desc.GravityScale, layer: desc.Layer}
	w.bodies = append(w.bodies, b)
	return b
}

func (w *flatWorld) RemoveBody(rb RigidBody) {
	for i, b := range w.bodies {
		if b == rb {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

func (w *flatWorld) CastRay(origin, dir vmath.Vec3, maxDist float64, mask Layer) (RayHit, bool) {
	best := RayHit{Distance: maxDist}
	found := false
	if mask&LayerStatic != 0 {
		if dir.Y < 0 && origin.Y >= 0 {
			if t := origin.Y / -dir.Y; t <= best.Distance {
				best, found = RayHit{Distance: t, Layer: LayerStatic}, true
			}
		}
		for _, wall := range w.walls {
			if t, ok := vmath.RayAABB(origin, dir, wall[0], wall[1]); ok && t <= best.Distance {
				best, found = RayHit{Distance: t, Layer: LayerStatic}, true
			}
		}
	}
	if !found {
		return RayHit{}, false
	}
	best.Point = origin.Add(dir.Scale(best.Distance))
	return best, true
}

func (w *flatWorld) Step(dt float64) {
	w.steps++
	for _, b := range w.bodies {
		b.vel.Y += -9.81 * b.gravity * dt
		b.pos = b.pos.Add(b.vel.Scale(dt))
		if b.gravity > 0 && b.pos.Y-b.half.Y < 0 {
			b.pos.Y = b.half.Y
			if b.vel.Y < 0 {
				b.vel.Y = 0
			}
		}
	}
}

func (w *flatWorld) count(layer Layer) int {
	n := 0
	for _, b := range w.bodies {
		if b.layer == layer {
			n++
		}
	}
	return n
}

// testRig wires the subsystems the way the engine does, without a ticker.
type testRig struct {
	world   *flatWorld
	session *Session
	effects *Effects
	enemies *EnemySystem
	pickups *PickupSystem
	shots   *ShotResolver
	bullets *ProjectileSystem
	player  *PlayerController
}

func newTestRig(seed int64) *testRig {
	limits := config.DefaultLimits()
	rng := rand.New(rand.NewSource(seed))
	n := 0
	newID := func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}

	r := &testRig{world: newFlatWorld(), session: NewSession(), effects: NewEffects(limits.MaxEffects)}
	r.enemies = NewEnemySystem(r.world, r.session, r.effects, rng, limits.MaxEnemies, newID)
	r.pickups = NewPickupSystem(r.session, r.effects, rng, limits.MaxPickups, newID)
	r.shots = NewShotResolver(r.enemies, r.session, r.effects)
	r.bullets = NewProjectileSystem(r.world, r.enemies, r.shots, limits.MaxBullets)
	r.player = NewPlayerController(r.world, r.session, r.shots, r.bullets, rng)
	return r
}

func frameAt(tick uint64, elapsed, delta float64) Frame {
	return Frame{Tick: tick, Elapsed: elapsed, Delta: delta}
}
