package game

import (
	"fmt"
	"math"
	"math/rand"

	"game-hub/internal/game/spatial"
	"game-hub/internal/game/vmath"
)

// EnemyType identifies one row of the enemy table.
type EnemyType string

const (
	EnemyBasic EnemyType = "basic"
	EnemyFast  EnemyType = "fast"
	EnemyHeavy EnemyType = "heavy"
)

// EnemyStats is the fixed per-type enemy definition.
type EnemyStats struct {
	Type   EnemyType `json:"type"`
	Health int       `json:"health"`
	Speed  float64   `json:"speed"`
	Damage int       `json:"damage"`
	Points int       `json:"points"`
	Scale  float64   `json:"scale"`
	Color  string    `json:"color"`
	Weight float64   `json:"weight"` // Spawn probability
}

// EnemyTypes is the enemy table.
var EnemyTypes = map[EnemyType]EnemyStats{
	EnemyBasic: {Type: EnemyBasic, Health: 100, Speed: 3.5, Damage: 10, Points: 10, Scale: 1, Color: "red", Weight: 0.6},
	EnemyFast:  {Type: EnemyFast, Health: 50, Speed: 6, Damage: 5, Points: 15, Scale: 0.8, Color: "orange", Weight: 0.3},
	EnemyHeavy: {Type: EnemyHeavy, Health: 200, Speed: 2, Damage: 20, Points: 25, Scale: 1.2, Color: "darkred", Weight: 0.1},
}

// EnemyOrder fixes iteration order for weighted picks.
var EnemyOrder = []EnemyType{EnemyBasic, EnemyFast, EnemyHeavy}

// GetEnemyStats returns the stats for t, defaulting to basic.
func GetEnemyStats(t EnemyType) EnemyStats {
	if s, ok := EnemyTypes[t]; ok {
		return s
	}
	return EnemyTypes[EnemyBasic]
}

// Enemy tuning.
const (
	MeleeRange         = 2.0
	AttackInterval     = 1.0 // seconds between melee hits
	DeathDuration      = 2.0
	DeathGravity       = 0.01 // per 60Hz frame
	DeathFloorY        = 0.5
	EnemyMinY          = 1.0
	EnemySpawnY        = 1.5
	EnemySpawnMinDist  = 15.0
	EnemySpawnMaxDist  = 30.0
	EnemyInitialDelay  = 2.0
	EnemyInitialBurst  = 3
	EnemySpawnInterval = 3.0
	EnemyBatchChance   = 0.2
	EnemyQueryCell     = 4.0
)

// EnemyState is the life-cycle stage of an enemy.
type EnemyState uint8

const (
	EnemyActive EnemyState = iota
	EnemyDying
	EnemyRemoved
)

func (s EnemyState) String() string {
	switch s {
	case EnemyActive:
		return "active"
	case EnemyDying:
		return "dying"
	case EnemyRemoved:
		return "removed"
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s EnemyState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *EnemyState) UnmarshalText(b []byte) error {
	for _, st := range []EnemyState{EnemyActive, EnemyDying, EnemyRemoved} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown enemy state %q", b)
}

// Enemy is one live enemy. Owned by the EnemySystem.
type Enemy struct {
	ID     string
	Type   EnemyType
	Health int
	State  EnemyState

	body       RigidBody
	attacked   bool
	lastAttack float64

	deathStart float64
	deathVel   vmath.Vec3 // per 60Hz frame
	deathSpin  vmath.Vec3
	scale      float64
}

// Position returns the enemy's body position.
func (e *Enemy) Position() vmath.Vec3 { return e.body.Position() }

// Scale returns the render/hitbox scale, shrinking while dying.
func (e *Enemy) Scale() float64 { return e.scale }

// Hitbox returns the enemy's current hitscan box.
func (e *Enemy) Hitbox() Hitbox {
	return EnemyHitbox(e.body.Position(), GetEnemyStats(e.Type).Scale*e.scale)
}

// HitResult reports what a hit did.
type HitResult struct {
	Applied bool // false when the enemy was not active
	Killed  bool // this hit moved the enemy into dying
	Points  int
}

// EnemySystem owns every enemy: spawning, pursuit, melee, damage and the
// death animation. Enemies are addressed by id; other subsystems find
// them through spatial queries each tick, never by holding pointers.
type EnemySystem struct {
	physics PhysicsWorld
	session *Session
	effects *Effects
	rng     *rand.Rand
	newID   func() string
	notify  func(EventType, interface{})

	enemies []*Enemy
	index   map[string]*Enemy
	grid    *spatial.SpatialGrid
	max     int

	initialDone bool
	nextRoll    float64
}

// NewEnemySystem creates an empty enemy system.
func NewEnemySystem(physics PhysicsWorld, session *Session, effects *Effects, rng *rand.Rand, maxEnemies int, newID func() string) *EnemySystem {
	es := &EnemySystem{
		physics: physics,
		session: session,
		effects: effects,
		rng:     rng,
		newID:   newID,
		index:   make(map[string]*Enemy),
		grid:    spatial.NewSpatialGrid(-ArenaHalfSize, -ArenaHalfSize, 2*ArenaHalfSize, 2*ArenaHalfSize, EnemyQueryCell, maxEnemies),
		max:     maxEnemies,
	}
	es.resetSchedule()
	return es
}

// SetNotifier routes gameplay events (spawn, hit, kill) to fn.
func (es *EnemySystem) SetNotifier(fn func(EventType, interface{})) { es.notify = fn }

func (es *EnemySystem) emit(t EventType, payload interface{}) {
	if es.notify != nil {
		es.notify(t, payload)
	}
}

func (es *EnemySystem) resetSchedule() {
	es.initialDone = false
	es.nextRoll = EnemyInitialDelay
}

// Count returns the number of enemies in the collection (active or dying).
func (es *EnemySystem) Count() int { return len(es.enemies) }

// Get returns an enemy by id.
func (es *EnemySystem) Get(id string) (*Enemy, bool) {
	e, ok := es.index[id]
	return e, ok
}

// All returns the live collection. Callers must not modify it.
func (es *EnemySystem) All() []*Enemy { return es.enemies }

// Spawn creates an enemy of type t at pos. Returns nil when at the cap.
func (es *EnemySystem) Spawn(t EnemyType, pos vmath.Vec3) *Enemy {
	if len(es.enemies) >= es.max {
		return nil
	}
	stats := GetEnemyStats(t)
	if pos.Y < EnemySpawnY {
		pos.Y = EnemySpawnY
	}

	half := enemyHalfSize * stats.Scale
	e := &Enemy{
		ID:     es.newID(),
		Type:   stats.Type,
		Health: stats.Health,
		State:  EnemyActive,
		scale:  1,
		body: es.physics.CreateBody(BodyDesc{
			Position:    pos,
			HalfExtents: vmath.V(half, half, half),
			Layer:       LayerEnemy,
		}),
	}
	es.enemies = append(es.enemies, e)
	es.index[e.ID] = e

	es.emit(EventTypeEnemySpawn, EnemyPayload{EnemyID: e.ID, Type: e.Type, Position: pos, Health: e.Health})
	return e
}

// SpawnNear spawns a randomly typed enemy on a ring around center.
func (es *EnemySystem) SpawnNear(center vmath.Vec3) *Enemy {
	if len(es.enemies) >= es.max {
		return nil
	}
	pos := RingPoint(es.rng, center, EnemySpawnMinDist, EnemySpawnMaxDist, EnemySpawnY)
	return es.Spawn(es.pickType(), pos)
}

func (es *EnemySystem) pickType() EnemyType {
	r := es.rng.Float64()
	acc := 0.0
	for _, t := range EnemyOrder {
		acc += EnemyTypes[t].Weight
		if r < acc {
			return t
		}
	}
	return EnemyBasic
}

// RingPoint picks a uniform angle and a uniform distance in [minR, maxR)
// around center, at height y.
func RingPoint(rng *rand.Rand, center vmath.Vec3, minR, maxR, y float64) vmath.Vec3 {
	angle := rng.Float64() * 2 * math.Pi
	dist := minR + rng.Float64()*(maxR-minR)
	p := vmath.V(center.X+math.Cos(angle)*dist, y, center.Z+math.Sin(angle)*dist)
	p.X = vmath.Clamp(p.X, -ArenaPlayableHalf, ArenaPlayableHalf)
	p.Z = vmath.Clamp(p.Z, -ArenaPlayableHalf, ArenaPlayableHalf)
	return p
}

// Hit applies damage to an enemy. Ignored unless the enemy is active, so
// a kill is scored exactly once however many hits land while it dies.
func (es *EnemySystem) Hit(id string, damage int, now float64) HitResult {
	e, ok := es.index[id]
	if !ok || e.State != EnemyActive {
		return HitResult{}
	}
	if damage < 0 {
		damage = 0
	}

	e.Health -= damage
	es.effects.Trigger(EffectEnemyHitFlash, e.ID, now, EnemyHitFlashDuration)
	es.emit(EventTypeEnemyHit, EnemyPayload{EnemyID: e.ID, Type: e.Type, Position: e.Position(), Damage: damage, Health: e.Health})

	if e.Health > 0 {
		return HitResult{Applied: true}
	}

	e.Health = 0
	stats := GetEnemyStats(e.Type)
	es.startDying(e, now)
	es.session.AddScore(stats.Points, "kill:"+string(e.Type))
	es.emit(EventTypeEnemyKilled, EnemyPayload{EnemyID: e.ID, Type: e.Type, Position: e.Position(), Points: stats.Points})

	return HitResult{Applied: true, Killed: true, Points: stats.Points}
}

func (es *EnemySystem) startDying(e *Enemy, now float64) {
	e.State = EnemyDying
	e.deathStart = now
	angle := es.rng.Float64() * 2 * math.Pi
	e.deathVel = vmath.V(math.Cos(angle)*0.05, 0.05, math.Sin(angle)*0.05)
	e.deathSpin = vmath.V(
		(es.rng.Float64()-0.5)*0.1,
		(es.rng.Float64()-0.5)*0.1,
		(es.rng.Float64()-0.5)*0.1,
	)
	e.body.SetLinearVelocity(vmath.Zero)
}

// Update runs spawning, AI and death animation for one frame.
func (es *EnemySystem) Update(f Frame, player vmath.Vec3) {
	es.updateSpawns(f, player)

	n := 0
	for _, e := range es.enemies {
		switch e.State {
		case EnemyActive:
			es.pursue(e, f, player)
		case EnemyDying:
			es.animateDeath(e, f)
		}

		if e.State == EnemyRemoved {
			es.evict(e)
			continue
		}
		es.enemies[n] = e
		n++
	}
	for i := n; i < len(es.enemies); i++ {
		es.enemies[i] = nil
	}
	es.enemies = es.enemies[:n]

	es.rebuildGrid()
}

func (es *EnemySystem) updateSpawns(f Frame, player vmath.Vec3) {
	if f.Elapsed < es.nextRoll {
		return
	}

	if !es.initialDone {
		es.initialDone = true
		if len(es.enemies) == 0 {
			for i := 0; i < EnemyInitialBurst; i++ {
				es.SpawnNear(player)
			}
		}
		es.nextRoll = f.Elapsed + EnemySpawnInterval
		return
	}

	es.nextRoll = f.Elapsed + EnemySpawnInterval
	chance := 0.5 + float64(es.max-len(es.enemies))*0.05
	if es.rng.Float64() >= chance {
		return
	}
	es.SpawnNear(player)
	if es.rng.Float64() < EnemyBatchChance {
		es.SpawnNear(player)
	}
}

// pursue steers toward the player, or stands and attacks inside melee range.
func (es *EnemySystem) pursue(e *Enemy, f Frame, player vmath.Vec3) {
	pos := e.body.Position()
	if pos.Y < EnemyMinY {
		pos.Y = EnemyMinY
		e.body.SetPosition(pos)
	}

	toPlayer := player.Sub(pos).Flat()
	dist := toPlayer.Len()
	stats := GetEnemyStats(e.Type)

	if dist > MeleeRange {
		dir := toPlayer.Normalize()
		e.body.SetLinearVelocity(dir.Scale(stats.Speed))
		e.body.SetRotation(vmath.V(0, math.Atan2(dir.X, dir.Z), 0))
		return
	}

	e.body.SetLinearVelocity(vmath.Zero)
	if e.attacked && f.Elapsed-e.lastAttack < AttackInterval {
		return
	}
	e.attacked = true
	e.lastAttack = f.Elapsed
	es.session.TakeDamage(stats.Damage)
}

func (es *EnemySystem) animateDeath(e *Enemy, f Frame) {
	t := f.Elapsed - e.deathStart
	frames := f.Delta * 60

	e.deathVel.Y -= DeathGravity * frames
	pos := e.body.Position().Add(e.deathVel.Scale(frames))
	if pos.Y < DeathFloorY {
		pos.Y = DeathFloorY
	}
	e.body.SetPosition(pos)
	e.body.SetRotation(e.body.Rotation().Add(e.deathSpin.Scale(frames)))
	e.scale = math.Max(0.01, 1-t*0.5)

	if t >= DeathDuration {
		e.State = EnemyRemoved
	}
}

func (es *EnemySystem) evict(e *Enemy) {
	es.physics.RemoveBody(e.body)
	delete(es.index, e.ID)
	es.effects.Cancel(EffectEnemyHitFlash, e.ID)
}

func (es *EnemySystem) rebuildGrid() {
	es.grid.Clear()
	for i, e := range es.enemies {
		if e.State != EnemyActive {
			continue
		}
		p := e.body.Position()
		es.grid.Insert(uint32(i), p.X, p.Z)
	}
}

// Nearest returns the closest active enemy within radius of p.
func (es *EnemySystem) Nearest(p vmath.Vec3, radius float64) (*Enemy, float64, bool) {
	var best *Enemy
	bestDist := radius
	for _, idx := range es.grid.QueryRadius(p.X, p.Z, radius) {
		if int(idx) >= len(es.enemies) {
			continue
		}
		e := es.enemies[idx]
		if e.State != EnemyActive {
			continue
		}
		if d := e.body.Position().Dist(p); d < bestDist {
			best, bestDist = e, d
		}
	}
	if best == nil {
		return nil, 0, false
	}
	return best, bestDist, true
}

// RayCast returns the first active enemy whose hitbox the ray crosses
// within maxDist.
func (es *EnemySystem) RayCast(origin, dir vmath.Vec3, maxDist float64) (*Enemy, float64, bool) {
	var best *Enemy
	bestDist := maxDist
	for _, e := range es.enemies {
		if e.State != EnemyActive {
			continue
		}
		if d, ok := e.Hitbox().RayDistance(origin, dir, bestDist); ok {
			best, bestDist = e, d
		}
	}
	if best == nil {
		return nil, 0, false
	}
	return best, bestDist, true
}

// Clear removes every enemy and restarts the spawn schedule.
func (es *EnemySystem) Clear() {
	for _, e := range es.enemies {
		es.physics.RemoveBody(e.body)
	}
	for i := range es.enemies {
		es.enemies[i] = nil
	}
	es.enemies = es.enemies[:0]
	es.index = make(map[string]*Enemy)
	es.grid.Clear()
	es.resetSchedule()
}

// EnemyView is the snapshot form of an enemy.
type EnemyView struct {
	ID       string     `json:"id" msgpack:"id"`
	Type     EnemyType  `json:"type" msgpack:"type"`
	Health   int        `json:"health" msgpack:"health"`
	MaxHP    int        `json:"maxHealth" msgpack:"maxHealth"`
	State    EnemyState `json:"state" msgpack:"state"`
	Position vmath.Vec3 `json:"position" msgpack:"position"`
	Rotation vmath.Vec3 `json:"rotation" msgpack:"rotation"`
	Scale    float64    `json:"scale" msgpack:"scale"`
	HitFlash bool       `json:"hitFlash" msgpack:"hitFlash"`
}

// Views returns snapshot views of all enemies.
func (es *EnemySystem) Views(now float64) []EnemyView {
	out := make([]EnemyView, 0, len(es.enemies))
	for _, e := range es.enemies {
		stats := GetEnemyStats(e.Type)
		out = append(out, EnemyView{
			ID:       e.ID,
			Type:     e.Type,
			Health:   e.Health,
			MaxHP:    stats.Health,
			State:    e.State,
			Position: e.body.Position(),
			Rotation: e.body.Rotation(),
			Scale:    e.scale * stats.Scale,
			HitFlash: es.effects.Active(EffectEnemyHitFlash, e.ID, now),
		})
	}
	return out
}
