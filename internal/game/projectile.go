package game

import (
	"strconv"

	"game-hub/internal/game/vmath"
)

// Projectile system constants
const (
	BulletLifetime    = 3.0 // seconds
	BulletSpawnOffset = 1.0 // units ahead of the eye
	BulletHitRadius   = 1.5 // enemy proximity that counts as contact
	BulletMinRayStep  = 0.5 // shortest world ray per step
)

// Bullet is one travelling projectile. Owned by the ProjectileSystem.
type Bullet struct {
	ID        string
	ShotID    uint64
	Weapon    WeaponID
	Position  vmath.Vec3
	Direction vmath.Vec3 // unit
	Speed     float64
	Damage    int
	Size      float64
	Color     string
	CreatedAt float64
	Lifetime  float64

	// Damaging is false for tracers of hitscan weapons.
	Damaging bool
}

// BulletEnd is why a bullet left the live set.
type BulletEnd uint8

const (
	BulletAlive BulletEnd = iota
	BulletHitWorld
	BulletHitEnemy
	BulletExpired
)

// ProjectileSystem advances bullets and resolves their contacts. Enemy
// contacts go through the ShotResolver so a pull lands at most once.
type ProjectileSystem struct {
	physics  PhysicsWorld
	enemies  *EnemySystem
	resolver *ShotResolver

	bullets []*Bullet
	max     int
	nextID  uint64
}

// NewProjectileSystem creates an empty projectile system capped at maxBullets.
func NewProjectileSystem(physics PhysicsWorld, enemies *EnemySystem, resolver *ShotResolver, maxBullets int) *ProjectileSystem {
	return &ProjectileSystem{
		physics:  physics,
		enemies:  enemies,
		resolver: resolver,
		bullets:  make([]*Bullet, 0, maxBullets),
		max:      maxBullets,
	}
}

// Count returns the number of live bullets.
func (ps *ProjectileSystem) Count() int { return len(ps.bullets) }

// All returns the live bullets. Callers must not modify them.
func (ps *ProjectileSystem) All() []*Bullet { return ps.bullets }

// Spawn adds a bullet of shot w travelling along dir from pos. Returns nil
// when the collection is full.
func (ps *ProjectileSystem) Spawn(shotID uint64, w Weapon, pos, dir vmath.Vec3, now float64) *Bullet {
	if len(ps.bullets) >= ps.max {
		return nil
	}
	ps.nextID++
	b := &Bullet{
		ID:        "b" + strconv.FormatUint(ps.nextID, 10),
		ShotID:    shotID,
		Weapon:    w.ID,
		Position:  pos,
		Direction: dir.Normalize(),
		Speed:     w.BulletSpeed,
		Damage:    w.Damage,
		Size:      w.BulletSize,
		Color:     w.BulletColor,
		CreatedAt: now,
		Lifetime:  BulletLifetime,
		Damaging:  w.Delivery == DeliveryProjectile,
	}
	ps.bullets = append(ps.bullets, b)
	return b
}

// Update advances every bullet one frame. World hits win over enemy
// contacts, which win over expiry.
func (ps *ProjectileSystem) Update(f Frame) {
	n := 0
	for _, b := range ps.bullets {
		if ps.step(b, f) != BulletAlive {
			ps.resolver.Release(b.ShotID)
			continue
		}
		ps.bullets[n] = b
		n++
	}
	for i := n; i < len(ps.bullets); i++ {
		ps.bullets[i] = nil
	}
	ps.bullets = ps.bullets[:n]
}

func (ps *ProjectileSystem) step(b *Bullet, f Frame) BulletEnd {
	dist := b.Speed * f.Delta
	ray := dist
	if ray < BulletMinRayStep {
		ray = BulletMinRayStep
	}
	if _, ok := ps.physics.CastRay(b.Position, b.Direction, ray, LayerStatic); ok {
		return BulletHitWorld
	}

	b.Position = b.Position.Add(b.Direction.Scale(dist))

	// A tracer stops on contact too; the resolver ignores its delivery.
	if e, _, ok := ps.enemies.Nearest(b.Position, BulletHitRadius); ok {
		ps.resolver.Contact(b.ShotID, e.ID, f.Elapsed)
		return BulletHitEnemy
	}

	if f.Elapsed-b.CreatedAt > b.Lifetime {
		return BulletExpired
	}
	return BulletAlive
}

// Clear removes every bullet.
func (ps *ProjectileSystem) Clear() {
	for i := range ps.bullets {
		ps.bullets[i] = nil
	}
	ps.bullets = ps.bullets[:0]
	ps.nextID = 0
}

// BulletView is the snapshot form of a bullet.
type BulletView struct {
	ID       string     `json:"id" msgpack:"id"`
	Weapon   WeaponID   `json:"weapon" msgpack:"weapon"`
	Position vmath.Vec3 `json:"position" msgpack:"position"`
	Size     float64    `json:"size" msgpack:"size"`
	Color    string     `json:"color" msgpack:"color"`
}

// Views returns snapshot views of all bullets.
func (ps *ProjectileSystem) Views() []BulletView {
	out := make([]BulletView, 0, len(ps.bullets))
	for _, b := range ps.bullets {
		out = append(out, BulletView{ID: b.ID, Weapon: b.Weapon, Position: b.Position, Size: b.Size, Color: b.Color})
	}
	return out
}
