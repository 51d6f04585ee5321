// Package physics is a small rigid-body world for the shooter arena:
// static boxes, gravity-driven bodies pushed out of geometry, and
// nearest-hit ray casts. It implements game.PhysicsWorld.
package physics

import (
	"math"
	"math/rand"

	"game-hub/internal/game"
	"game-hub/internal/game/vmath"
)

// Arena layout
const (
	Gravity = -9.81

	FloorHalfSize   = 55.0
	FloorHalfHeight = 0.1
	WallHeight      = 4.0
	WallThickness   = 1.0

	ObstacleAttempts = 15
	ObstacleArea     = 80.0 // obstacles land within ±ObstacleArea/2
	ObstacleClearing = 5.0  // keep the spawn area free

	PlatformRadius = 5.0
	PlatformHeight = 1.0
)

// BoxKind labels static geometry for rendering.
type BoxKind string

const (
	KindFloor    BoxKind = "floor"
	KindWall     BoxKind = "wall"
	KindPad      BoxKind = "pad"
	KindObstacle BoxKind = "obstacle"
	KindPlatform BoxKind = "platform"
)

// Box is an axis-aligned static collider.
type Box struct {
	Kind BoxKind    `json:"kind"`
	Min  vmath.Vec3 `json:"min"`
	Max  vmath.Vec3 `json:"max"`
}

func boxAt(kind BoxKind, center, half vmath.Vec3) Box {
	return Box{Kind: kind, Min: center.Sub(half), Max: center.Add(half)}
}

// Center returns the middle of the box.
func (b Box) Center() vmath.Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

// Size returns the full extents of the box.
func (b Box) Size() vmath.Vec3 { return b.Max.Sub(b.Min) }

// Body is a dynamic AABB body.
type Body struct {
	pos  vmath.Vec3
	vel  vmath.Vec3
	rot  vmath.Vec3
	half vmath.Vec3

	gravityScale float64
	layer        game.Layer
}

func (b *Body) Position() vmath.Vec3           { return b.pos }
func (b *Body) SetPosition(p vmath.Vec3)       { b.pos = p }
func (b *Body) LinearVelocity() vmath.Vec3     { return b.vel }
func (b *Body) SetLinearVelocity(v vmath.Vec3) { b.vel = v }
func (b *Body) Rotation() vmath.Vec3           { return b.rot }
func (b *Body) SetRotation(r vmath.Vec3)       { b.rot = r }

// Layer returns the body's collision layer.
func (b *Body) Layer() game.Layer { return b.layer }

func (b *Body) bounds() (vmath.Vec3, vmath.Vec3) {
	return b.pos.Sub(b.half), b.pos.Add(b.half)
}

// Arena is the world: fixed geometry plus the bodies the simulation owns.
// Not safe for concurrent use; the engine serializes access. Static boxes
// never change after construction and may be read from anywhere.
type Arena struct {
	static []Box
	bodies []*Body
}

var _ game.PhysicsWorld = (*Arena)(nil)

// NewArena builds the arena. rng places the obstacles.
func NewArena(rng *rand.Rand) *Arena {
	a := &Arena{}
	a.static = append(a.static, boxAt(KindFloor,
		vmath.V(0, -FloorHalfHeight, 0),
		vmath.V(FloorHalfSize, FloorHalfHeight, FloorHalfSize)))

	// Corner pads sit flush with the floor.
	for _, c := range [][2]float64{{50, 50}, {-50, 50}, {50, -50}, {-50, -50}} {
		a.static = append(a.static, boxAt(KindPad, vmath.V(c[0], 0, c[1]), vmath.V(5, 0.1, 5)))
	}

	h := game.ArenaHalfSize
	wallY := WallHeight / 2
	a.static = append(a.static,
		boxAt(KindWall, vmath.V(0, wallY, -h), vmath.V(h, wallY, WallThickness/2)),
		boxAt(KindWall, vmath.V(0, wallY, h), vmath.V(h, wallY, WallThickness/2)),
		boxAt(KindWall, vmath.V(-h, wallY, 0), vmath.V(WallThickness/2, wallY, h)),
		boxAt(KindWall, vmath.V(h, wallY, 0), vmath.V(WallThickness/2, wallY, h)),
	)

	for i := 0; i < ObstacleAttempts; i++ {
		x := (rng.Float64() - 0.5) * ObstacleArea
		z := (rng.Float64() - 0.5) * ObstacleArea
		w := 2 + rng.Float64()*6
		ht := 1 + rng.Float64()*3
		d := 2 + rng.Float64()*6
		if math.Abs(x) < ObstacleClearing && math.Abs(z) < ObstacleClearing {
			continue
		}
		a.static = append(a.static, boxAt(KindObstacle, vmath.V(x, ht/2, z), vmath.V(w/2, ht/2, d/2)))
	}

	// The round platform is approximated by its bounding box.
	a.static = append(a.static, boxAt(KindPlatform,
		vmath.V(0, PlatformHeight/2, 0),
		vmath.V(PlatformRadius, PlatformHeight/2, PlatformRadius)))

	return a
}

// Boxes returns the static geometry. Callers must not modify it.
func (a *Arena) Boxes() []Box { return a.static }

// BodyCount returns the number of live bodies.
func (a *Arena) BodyCount() int { return len(a.bodies) }

// CreateBody adds a dynamic body.
func (a *Arena) CreateBody(desc game.BodyDesc) game.RigidBody {
	half := desc.HalfExtents
	if half.IsZero() {
		half = vmath.V(0.5, 0.5, 0.5)
	}
	b := &Body{
		pos:          desc.Position,
		half:         half,
		gravityScale: desc.GravityScale,
		layer:        desc.Layer,
	}
	a.bodies = append(a.bodies, b)
	return b
}

// RemoveBody drops a body. Unknown bodies are ignored.
func (a *Arena) RemoveBody(rb game.RigidBody) {
	for i, b := range a.bodies {
		if b == rb {
			last := len(a.bodies) - 1
			a.bodies[i] = a.bodies[last]
			a.bodies[last] = nil
			a.bodies = a.bodies[:last]
			return
		}
	}
}

// CastRay returns the nearest static box or body on mask hit by the ray.
func (a *Arena) CastRay(origin, dir vmath.Vec3, maxDist float64, mask game.Layer) (game.RayHit, bool) {
	best := game.RayHit{Distance: maxDist}
	found := false

	if mask&game.LayerStatic != 0 {
		for _, box := range a.static {
			if t, ok := vmath.RayAABB(origin, dir, box.Min, box.Max); ok && t <= best.Distance {
				best = game.RayHit{Distance: t, Layer: game.LayerStatic}
				found = true
			}
		}
	}
	for _, b := range a.bodies {
		if mask&b.layer == 0 {
			continue
		}
		lo, hi := b.bounds()
		if t, ok := vmath.RayAABB(origin, dir, lo, hi); ok && t <= best.Distance {
			best = game.RayHit{Distance: t, Layer: b.layer}
			found = true
		}
	}

	if !found {
		return game.RayHit{}, false
	}
	best.Point = origin.Add(dir.Scale(best.Distance))
	return best, true
}

// Step integrates gravity and velocity over dt, then pushes every body
// out of the static geometry.
func (a *Arena) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for _, b := range a.bodies {
		b.vel.Y += Gravity * b.gravityScale * dt
		b.pos = b.pos.Add(b.vel.Scale(dt))
		for _, box := range a.static {
			a.resolve(b, box)
		}
	}
}

// resolve separates b from box along the axis of least penetration and
// cancels the velocity pushing into it.
func (a *Arena) resolve(b *Body, box Box) {
	lo, hi := b.bounds()
	if hi.X <= box.Min.X || lo.X >= box.Max.X ||
		hi.Y <= box.Min.Y || lo.Y >= box.Max.Y ||
		hi.Z <= box.Min.Z || lo.Z >= box.Max.Z {
		return
	}

	c := box.Center()
	push := func(lo, hi, bmin, bmax, center, pos float64) float64 {
		if pos < center {
			return bmin - hi
		}
		return bmax - lo
	}
	px := push(lo.X, hi.X, box.Min.X, box.Max.X, c.X, b.pos.X)
	py := push(lo.Y, hi.Y, box.Min.Y, box.Max.Y, c.Y, b.pos.Y)
	pz := push(lo.Z, hi.Z, box.Min.Z, box.Max.Z, c.Z, b.pos.Z)

	switch {
	case math.Abs(py) <= math.Abs(px) && math.Abs(py) <= math.Abs(pz):
		b.pos.Y += py
		if (py > 0 && b.vel.Y < 0) || (py < 0 && b.vel.Y > 0) {
			b.vel.Y = 0
		}
	case math.Abs(px) <= math.Abs(pz):
		b.pos.X += px
		b.vel.X = 0
	default:
		b.pos.Z += pz
		b.vel.Z = 0
	}
}
