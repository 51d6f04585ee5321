package game

import (
	"math/rand"

	"game-hub/internal/game/vmath"
)

// Pickup tuning.
const (
	PickupRange         = 3.0
	PickupY             = 0.5
	PickupSpawnMinDist  = 10.0
	PickupSpawnMaxDist  = 40.0
	PickupInitialDelay  = 5.0
	PickupInitialBurst  = 2
	PickupSpawnInterval = 20.0
	PickupSpawnChance   = 0.3
)

// Pickup is a weapon lying in the arena.
type Pickup struct {
	ID       string
	Weapon   WeaponID
	Position vmath.Vec3
	Active   bool

	near bool
}

// PickupSystem spawns weapon pickups, tracks player proximity and hands
// weapons over on interact.
type PickupSystem struct {
	session *Session
	effects *Effects
	rng     *rand.Rand
	newID   func() string
	notify  func(EventType, interface{})

	pickups []*Pickup
	max     int

	initialDone bool
	nextRoll    float64
}

// NewPickupSystem creates an empty pickup system.
func NewPickupSystem(session *Session, effects *Effects, rng *rand.Rand, maxPickups int, newID func() string) *PickupSystem {
	ps := &PickupSystem{
		session: session,
		effects: effects,
		rng:     rng,
		newID:   newID,
		max:     maxPickups,
	}
	ps.resetSchedule()
	return ps
}

// SetNotifier routes pickup events to fn.
func (ps *PickupSystem) SetNotifier(fn func(EventType, interface{})) { ps.notify = fn }

func (ps *PickupSystem) emit(t EventType, payload interface{}) {
	if ps.notify != nil {
		ps.notify(t, payload)
	}
}

func (ps *PickupSystem) resetSchedule() {
	ps.initialDone = false
	ps.nextRoll = PickupInitialDelay
}

// Count returns the number of pickups in the arena.
func (ps *PickupSystem) Count() int { return len(ps.pickups) }

// All returns the pickup collection. Callers must not modify it.
func (ps *PickupSystem) All() []*Pickup { return ps.pickups }

// Spawn places a pickup of weapon w at pos. Returns nil at the cap.
func (ps *PickupSystem) Spawn(w WeaponID, pos vmath.Vec3) *Pickup {
	if len(ps.pickups) >= ps.max {
		return nil
	}
	p := &Pickup{ID: ps.newID(), Weapon: w, Position: pos, Active: true}
	ps.pickups = append(ps.pickups, p)
	ps.emit(EventTypePickupSpawn, PickupPayload{PickupID: p.ID, Weapon: w, Position: pos})
	return p
}

// SpawnNear places a random pickup type on a ring around center.
func (ps *PickupSystem) SpawnNear(center vmath.Vec3) *Pickup {
	if len(ps.pickups) >= ps.max {
		return nil
	}
	pos := RingPoint(ps.rng, center, PickupSpawnMinDist, PickupSpawnMaxDist, PickupY)
	w := PickupTypes[ps.rng.Intn(len(PickupTypes))]
	return ps.Spawn(w, pos)
}

// Update runs the spawn schedule and proximity tracking.
func (ps *PickupSystem) Update(f Frame, player vmath.Vec3) {
	ps.updateSpawns(f, player)

	for _, p := range ps.pickups {
		near := p.Position.Dist(player) < PickupRange
		if near && !p.near {
			ps.effects.Trigger(EffectPickupPrompt, p.ID, f.Elapsed, PickupPromptDuration)
		}
		p.near = near
	}
}

func (ps *PickupSystem) updateSpawns(f Frame, player vmath.Vec3) {
	if f.Elapsed < ps.nextRoll {
		return
	}
	ps.nextRoll = f.Elapsed + PickupSpawnInterval

	if !ps.initialDone {
		ps.initialDone = true
		if len(ps.pickups) == 0 {
			for i := 0; i < PickupInitialBurst; i++ {
				ps.SpawnNear(player)
			}
		}
		return
	}

	if ps.rng.Float64() < PickupSpawnChance {
		ps.SpawnNear(player)
	}
}

// Interact grants the nearest pickup within range. Returns false when
// nothing is in range.
func (ps *PickupSystem) Interact(player vmath.Vec3, now float64) (*Pickup, bool) {
	best := -1
	bestDist := PickupRange
	for i, p := range ps.pickups {
		if !p.Active {
			continue
		}
		if d := p.Position.Dist(player); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return nil, false
	}

	p := ps.pickups[best]
	p.Active = false
	ps.session.PickupWeapon(p.Weapon)
	ps.remove(best)
	ps.effects.Cancel(EffectPickupPrompt, p.ID)
	ps.effects.Trigger(EffectPickupRespawn, p.ID, now, PickupRespawnDelay)
	ps.emit(EventTypePickupCollected, PickupPayload{PickupID: p.ID, Weapon: p.Weapon, Position: p.Position})
	return p, true
}

func (ps *PickupSystem) remove(i int) {
	copy(ps.pickups[i:], ps.pickups[i+1:])
	ps.pickups[len(ps.pickups)-1] = nil
	ps.pickups = ps.pickups[:len(ps.pickups)-1]
}

// Clear removes every pickup and restarts the spawn schedule.
func (ps *PickupSystem) Clear() {
	for i := range ps.pickups {
		ps.pickups[i] = nil
	}
	ps.pickups = ps.pickups[:0]
	ps.resetSchedule()
}

// PickupView is the snapshot form of a pickup.
type PickupView struct {
	ID         string     `json:"id" msgpack:"id"`
	Weapon     WeaponID   `json:"weapon" msgpack:"weapon"`
	Position   vmath.Vec3 `json:"position" msgpack:"position"`
	Near       bool       `json:"near" msgpack:"near"`
	ShowPrompt bool       `json:"showPrompt" msgpack:"showPrompt"`
}

// Views returns snapshot views of all pickups.
func (ps *PickupSystem) Views(now float64) []PickupView {
	out := make([]PickupView, 0, len(ps.pickups))
	for _, p := range ps.pickups {
		out = append(out, PickupView{
			ID:         p.ID,
			Weapon:     p.Weapon,
			Position:   p.Position,
			Near:       p.near,
			ShowPrompt: ps.effects.Active(EffectPickupPrompt, p.ID, now),
		})
	}
	return out
}
