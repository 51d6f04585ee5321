package game

import (
	"game-hub/internal/game/vmath"
)

// Combat constants.
const (
	HitBonus     = 5     // Score for any shot that lands damage
	HitscanRange = 200.0 // Longest instant camera ray
	maxOpenShots = 512
)

// shotRecord tracks one trigger pull until all its bullets are gone.
type shotRecord struct {
	weapon   WeaponID
	damage   int
	delivery Delivery
	landed   bool
	bullets  int
}

// ShotResult describes what a trigger pull did at fire time.
type ShotResult struct {
	ShotID  uint64
	HitID   string // Enemy damaged by the hitscan, if any
	Applied HitResult
}

// ShotResolver is the one place damage from the player's weapons is
// decided. Every trigger pull registers a shot; both the instant camera
// ray and the travelling bullets report contacts here, and a shot lands
// through the weapon's delivery only, at most once.
type ShotResolver struct {
	enemies *EnemySystem
	session *Session
	effects *Effects

	shots    map[uint64]*shotRecord
	nextShot uint64
}

// NewShotResolver creates a resolver bound to one session's enemies.
func NewShotResolver(enemies *EnemySystem, session *Session, effects *Effects) *ShotResolver {
	return &ShotResolver{
		enemies: enemies,
		session: session,
		effects: effects,
		shots:   make(map[uint64]*shotRecord),
	}
}

// Fire registers a trigger pull from origin along dir (unit) that will
// spawn bullets projectiles. Hitscan weapons resolve immediately.
func (r *ShotResolver) Fire(w Weapon, origin, dir vmath.Vec3, bullets int, now float64) ShotResult {
	r.nextShot++
	id := r.nextShot
	rec := &shotRecord{weapon: w.ID, damage: w.Damage, delivery: w.Delivery, bullets: bullets}
	if len(r.shots) < maxOpenShots && bullets > 0 {
		r.shots[id] = rec
	}

	res := ShotResult{ShotID: id}
	if enemy, _, ok := r.enemies.RayCast(origin, dir, HitscanRange); ok {
		res.Applied = r.resolve(rec, enemy.ID, DeliveryHitscan, now)
		if res.Applied.Applied {
			res.HitID = enemy.ID
		}
	}
	return res
}

// Contact reports a travelling bullet of shot touching an enemy.
func (r *ShotResolver) Contact(shotID uint64, enemyID string, now float64) HitResult {
	rec, ok := r.shots[shotID]
	if !ok {
		return HitResult{}
	}
	return r.resolve(rec, enemyID, DeliveryProjectile, now)
}

// resolve applies a shot's damage if via matches the weapon's delivery
// and the shot has not landed yet.
func (r *ShotResolver) resolve(rec *shotRecord, enemyID string, via Delivery, now float64) HitResult {
	if rec.delivery != via || rec.landed {
		return HitResult{}
	}
	res := r.enemies.Hit(enemyID, rec.damage, now)
	if !res.Applied {
		return res
	}
	rec.landed = true
	r.session.AddScore(HitBonus, "hit")
	r.effects.Trigger(EffectHitMarker, "", now, HitMarkerDuration)
	return res
}

// Release tells the resolver one bullet of shot is gone.
func (r *ShotResolver) Release(shotID uint64) {
	rec, ok := r.shots[shotID]
	if !ok {
		return
	}
	rec.bullets--
	if rec.bullets <= 0 {
		delete(r.shots, shotID)
	}
}

// Open returns the number of shots with bullets still in flight.
func (r *ShotResolver) Open() int { return len(r.shots) }

// Clear forgets every shot.
func (r *ShotResolver) Clear() {
	r.shots = make(map[uint64]*shotRecord)
}
