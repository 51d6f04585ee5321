package game

import (
	"math"
	"math/rand"

	"game-hub/internal/game/vmath"
)

// Player tuning
const (
	MoveSpeed           = 8.0
	RunMultiplier       = 1.5
	JumpVelocity        = 8.0
	EyeHeight           = 1.5
	PitchLimit          = math.Pi/2 - 0.1
	LookRadiansPerPixel = 0.002 // scaled by mouse sensitivity
	RecoilRecoveryRate  = 0.1   // radians per 60Hz frame

	GroundProbeOffset   = 0.5
	GroundProbeDistance = 0.75
	GroundedThreshold   = 0.2
)

// PlayerHalfExtents is the player's collision box.
var PlayerHalfExtents = vmath.V(0.4, 0.6, 0.4)

// PlayerController moves the player body, owns the camera and fires the
// current weapon. It only runs while the pause controller is Playing.
type PlayerController struct {
	physics PhysicsWorld
	session *Session
	shots   *ShotResolver
	bullets *ProjectileSystem
	rng     *rand.Rand
	notify  func(EventType, interface{})

	body RigidBody

	// Camera. Pitch seen by the view is aim + kick.
	yaw  float64
	aim  float64
	kick float64 // recoil still to recover, never negative
	roll float64

	grounded    bool
	jumpPending bool

	hasFired bool
	lastShot float64
}

// NewPlayerController creates the player body at the session's position.
func NewPlayerController(physics PhysicsWorld, session *Session, shots *ShotResolver, bullets *ProjectileSystem, rng *rand.Rand) *PlayerController {
	pc := &PlayerController{
		physics: physics,
		session: session,
		shots:   shots,
		bullets: bullets,
		rng:     rng,
	}
	pc.body = physics.CreateBody(BodyDesc{
		Position:     session.PlayerPosition(),
		HalfExtents:  PlayerHalfExtents,
		GravityScale: 1,
		Layer:        LayerPlayer,
	})
	return pc
}

// SetNotifier routes shot events to fn.
func (pc *PlayerController) SetNotifier(fn func(EventType, interface{})) { pc.notify = fn }

// Body returns the player's rigid body.
func (pc *PlayerController) Body() RigidBody { return pc.body }

// Grounded reports the result of the last ground probe.
func (pc *PlayerController) Grounded() bool { return pc.grounded }

// Yaw returns the camera yaw; 0 looks down -Z.
func (pc *PlayerController) Yaw() float64 { return pc.yaw }

// Pitch returns the view pitch including recoil.
func (pc *PlayerController) Pitch() float64 {
	return vmath.Clamp(pc.aim+pc.kick, -PitchLimit, PitchLimit)
}

// Roll is always zero after a step.
func (pc *PlayerController) Roll() float64 { return pc.roll }

// Kick returns the recoil not yet recovered.
func (pc *PlayerController) Kick() float64 { return pc.kick }

// Forward is the yaw-only movement direction.
func (pc *PlayerController) Forward() vmath.Vec3 {
	return vmath.V(-math.Sin(pc.yaw), 0, -math.Cos(pc.yaw))
}

// Right is the yaw-only strafe direction.
func (pc *PlayerController) Right() vmath.Vec3 {
	return vmath.V(math.Cos(pc.yaw), 0, -math.Sin(pc.yaw))
}

// ViewDirection is the unit camera direction including pitch.
func (pc *PlayerController) ViewDirection() vmath.Vec3 {
	p := pc.Pitch()
	return vmath.V(-math.Sin(pc.yaw)*math.Cos(p), math.Sin(p), -math.Cos(pc.yaw)*math.Cos(p))
}

// Eye returns the camera position.
func (pc *PlayerController) Eye() vmath.Vec3 {
	return pc.body.Position().Add(vmath.V(0, EyeHeight, 0))
}

// RequestJump records a jump key-down edge for the next step.
func (pc *PlayerController) RequestJump() { pc.jumpPending = true }

// Look rotates the camera by a pointer delta in pixels.
func (pc *PlayerController) Look(dx, dy float64) {
	k := LookRadiansPerPixel * pc.session.MouseSensitivity()
	pc.yaw = normalizeAngle(pc.yaw - dx*k)
	pc.aim = vmath.Clamp(pc.aim-dy*k, -PitchLimit, PitchLimit)
}

// PreStep applies look, movement, jump and recoil recovery before the
// physics step.
func (pc *PlayerController) PreStep(f Frame, in FrameInput) {
	if in.PointerLocked {
		pc.Look(in.MouseDX, in.MouseDY)
	}

	move := vmath.Zero
	if in.Has(IntentForward) {
		move = move.Add(pc.Forward())
	}
	if in.Has(IntentBackward) {
		move = move.Sub(pc.Forward())
	}
	if in.Has(IntentRight) {
		move = move.Add(pc.Right())
	}
	if in.Has(IntentLeft) {
		move = move.Sub(pc.Right())
	}

	speed := MoveSpeed
	if in.Has(IntentRun) {
		speed *= RunMultiplier
	}
	move = move.Normalize().Scale(speed * f.Delta * 60)

	vel := pc.body.LinearVelocity()
	vel.X, vel.Z = move.X, move.Z
	if pc.jumpPending && pc.grounded {
		vel.Y = JumpVelocity
		pc.grounded = false
	}
	pc.jumpPending = false
	pc.body.SetLinearVelocity(vel)

	if pc.kick > 0 {
		pc.kick -= math.Min(pc.kick, RecoilRecoveryRate*f.Delta*60)
	}
}

// PostStep probes the ground, levels the camera and publishes the
// player position.
func (pc *PlayerController) PostStep() {
	pos := pc.body.Position()
	origin := pos.Sub(vmath.V(0, GroundProbeOffset, 0))
	hit, ok := pc.physics.CastRay(origin, vmath.Down, GroundProbeDistance, LayerStatic)
	pc.grounded = ok && hit.Distance < GroundedThreshold

	pc.roll = 0
	pc.session.UpdatePlayerPosition(pos)
}

// Shoot fires the current weapon. Returns false when out of ammo or still
// cooling down; nothing changes in that case.
func (pc *PlayerController) Shoot(now float64) (ShotResult, bool) {
	w := GetWeapon(pc.session.CurrentWeapon())
	if pc.session.CurrentAmmo() <= 0 {
		return ShotResult{}, false
	}
	if pc.hasFired && now-pc.lastShot < w.Cooldown() {
		return ShotResult{}, false
	}

	pc.session.UseAmmo(1)
	pc.hasFired = true
	pc.lastShot = now

	eye := pc.Eye()
	dir := pc.ViewDirection()
	pellets := w.Pellets
	if pellets < 1 {
		pellets = 1
	}

	res := pc.shots.Fire(w, eye, dir, pellets, now)
	for i := 0; i < pellets; i++ {
		d := dir
		if w.Spread > 0 {
			d = vmath.V(
				d.X+(pc.rng.Float64()-0.5)*w.Spread,
				d.Y+(pc.rng.Float64()-0.5)*w.Spread,
				d.Z+(pc.rng.Float64()-0.5)*w.Spread,
			).Normalize()
		}
		if pc.bullets.Spawn(res.ShotID, w, eye.Add(d.Scale(BulletSpawnOffset)), d, now) == nil {
			pc.shots.Release(res.ShotID)
		}
	}

	pc.kick += w.Recoil

	if pc.notify != nil {
		pc.notify(EventTypeShot, ShotPayload{
			Weapon:  w.ID,
			Origin:  eye,
			Dir:     dir,
			Pellets: pellets,
			HitID:   res.HitID,
			Ammo:    pc.session.CurrentAmmo(),
		})
	}
	return res, true
}

// Reset puts the body back at the session's position and levels the camera.
func (pc *PlayerController) Reset() {
	pc.body.SetPosition(pc.session.PlayerPosition())
	pc.body.SetLinearVelocity(vmath.Zero)
	pc.body.SetRotation(vmath.Zero)
	pc.yaw, pc.aim, pc.kick, pc.roll = 0, 0, 0, 0
	pc.grounded = false
	pc.jumpPending = false
	pc.hasFired = false
	pc.lastShot = 0
}

// CameraView is the snapshot form of the camera.
type CameraView struct {
	Position vmath.Vec3 `json:"position" msgpack:"position"`
	Yaw      float64    `json:"yaw" msgpack:"yaw"`
	Pitch    float64    `json:"pitch" msgpack:"pitch"`
	Roll     float64    `json:"roll" msgpack:"roll"`
	Grounded bool       `json:"grounded" msgpack:"grounded"`
}

// View returns the camera snapshot.
func (pc *PlayerController) View() CameraView {
	return CameraView{
		Position: pc.Eye(),
		Yaw:      pc.yaw,
		Pitch:    pc.Pitch(),
		Roll:     pc.roll,
		Grounded: pc.grounded,
	}
}
