package game

import "game-hub/internal/game/vmath"

// Layer is a collision layer bitmask used to filter ray casts.
type Layer uint8

const (
	LayerStatic Layer = 1 << iota // Floor, walls, obstacles
	LayerPlayer
	LayerEnemy

	LayerAll = LayerStatic | LayerPlayer | LayerEnemy
)

// Arena extents on the XZ plane. Walls stand at ±ArenaHalfSize; spawns are
// clamped inside ±ArenaPlayableHalf.
const (
	ArenaHalfSize     = 50.0
	ArenaPlayableHalf = 48.0
)

// RigidBody is a handle to a body owned by the physics world.
type RigidBody interface {
	Position() vmath.Vec3
	SetPosition(vmath.Vec3)
	LinearVelocity() vmath.Vec3
	SetLinearVelocity(vmath.Vec3)
	// Rotation is an euler triple (pitch, yaw, roll) in radians.
	Rotation() vmath.Vec3
	SetRotation(vmath.Vec3)
}

// BodyDesc describes a dynamic body to create.
type BodyDesc struct {
	Position     vmath.Vec3
	HalfExtents  vmath.Vec3
	GravityScale float64
	Layer        Layer
}

// RayHit is the nearest intersection reported by CastRay.
type RayHit struct {
	Distance float64
	Point    vmath.Vec3
	Layer    Layer
}

// PhysicsWorld is everything the simulation needs from a physics engine:
// bodies with position/rotation/velocity, a nearest-hit ray cast and a step
// driven by the simulation's own frame tick.
type PhysicsWorld interface {
	CreateBody(desc BodyDesc) RigidBody
	RemoveBody(b RigidBody)
	// CastRay returns the nearest hit within maxDist on any layer in mask.
	// dir must be a unit vector.
	CastRay(origin, dir vmath.Vec3, maxDist float64, mask Layer) (RayHit, bool)
	Step(dt float64)
}
