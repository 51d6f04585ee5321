package game

import "game-hub/internal/game/vmath"

// Session defaults.
const (
	MaxHealth          = 100
	DefaultSensitivity = 0.6
	MinSensitivity     = 0.1
	MaxSensitivity     = 2.0
	StartingAmmo       = 30
)

// DefaultPlayerPosition is where a fresh session places the player.
var DefaultPlayerPosition = vmath.V(0, 1, 0)

// Session is the authoritative per-play-session state: health, score,
// inventory, position and flags. It is mutated only through the methods
// below; subsystems receive the *Session they act on instead of reaching
// for shared state.
//
// A Session is not safe for concurrent use. The engine serializes access.
type Session struct {
	health        int
	score         int
	weapons       []WeaponID
	ammo          map[WeaponID]int
	current       WeaponID
	position      vmath.Vec3
	sensitivity   float64
	paused        bool
	gameOver      bool
	resetHandlers []func()
	damageHooks   []func(amount int)
	scoreHooks    []func(points int, reason string)
}

// NewSession creates a session in its start-of-play state.
func NewSession() *Session {
	s := &Session{}
	s.restoreDefaults()
	return s
}

func (s *Session) restoreDefaults() {
	s.health = MaxHealth
	s.score = 0
	s.weapons = []WeaponID{Pistol}
	s.ammo = make(map[WeaponID]int, len(WeaponOrder))
	for _, id := range WeaponOrder {
		s.ammo[id] = 0
	}
	s.ammo[Pistol] = StartingAmmo
	s.current = Pistol
	s.position = DefaultPlayerPosition
	s.sensitivity = DefaultSensitivity
	s.paused = true
	s.gameOver = false
}

// OnReset registers fn to run after ResetGame restores defaults.
// Subsystems use it to clear their own collections.
func (s *Session) OnReset(fn func()) {
	s.resetHandlers = append(s.resetHandlers, fn)
}

// OnDamage registers fn to run whenever TakeDamage lowers health.
func (s *Session) OnDamage(fn func(amount int)) {
	s.damageHooks = append(s.damageHooks, fn)
}

// OnScore registers fn to run whenever AddScore awards points.
func (s *Session) OnScore(fn func(points int, reason string)) {
	s.scoreHooks = append(s.scoreHooks, fn)
}

// TakeDamage lowers health, never below zero. Game over is set exactly
// when health reaches zero.
func (s *Session) TakeDamage(amount int) {
	if amount < 0 {
		amount = 0
	}
	before := s.health
	s.health -= amount
	if s.health < 0 {
		s.health = 0
	}
	s.gameOver = s.health == 0

	if lost := before - s.health; lost > 0 {
		for _, fn := range s.damageHooks {
			fn(lost)
		}
	}
}

// AddScore awards points. reason labels the gain for the kill feed.
func (s *Session) AddScore(points int, reason string) {
	if points <= 0 {
		return
	}
	s.score += points
	for _, fn := range s.scoreHooks {
		fn(points, reason)
	}
}

// PickupWeapon grants a weapon's pickup ammo. The first pickup of a weapon
// also unlocks it and makes it current.
func (s *Session) PickupWeapon(id WeaponID) {
	if !IsWeapon(id) {
		return
	}
	if !s.HasWeapon(id) {
		s.weapons = append(s.weapons, id)
		s.current = id
	}
	s.ammo[id] += GetWeapon(id).PickupAmmo
}

// SwitchWeapon makes id current if it is owned; otherwise nothing changes.
func (s *Session) SwitchWeapon(id WeaponID) {
	if s.HasWeapon(id) {
		s.current = id
	}
}

// UseAmmo spends ammo from the current weapon, floored at zero.
func (s *Session) UseAmmo(amount int) {
	if amount < 0 {
		amount = 0
	}
	s.ammo[s.current] -= amount
	if s.ammo[s.current] < 0 {
		s.ammo[s.current] = 0
	}
}

// TogglePause flips the paused flag.
func (s *Session) TogglePause() {
	s.paused = !s.paused
}

// ResetGame restores every field to its start-of-play value, then lets
// the registered subsystems clear their collections.
func (s *Session) ResetGame() {
	s.restoreDefaults()
	for _, fn := range s.resetHandlers {
		fn()
	}
}

// UpdatePlayerPosition records the player's latest body position.
func (s *Session) UpdatePlayerPosition(pos vmath.Vec3) {
	s.position = pos
}

// UpdateMouseSensitivity sets sensitivity, clamped to [0.1, 2.0].
func (s *Session) UpdateMouseSensitivity(v float64) {
	s.sensitivity = vmath.Clamp(v, MinSensitivity, MaxSensitivity)
}

// =============================================================================
// READ ACCESSORS
// =============================================================================

func (s *Session) Health() int                 { return s.health }
func (s *Session) Score() int                  { return s.score }
func (s *Session) CurrentWeapon() WeaponID     { return s.current }
func (s *Session) PlayerPosition() vmath.Vec3  { return s.position }
func (s *Session) MouseSensitivity() float64   { return s.sensitivity }
func (s *Session) IsPaused() bool              { return s.paused }
func (s *Session) IsGameOver() bool            { return s.gameOver }
func (s *Session) Ammo(id WeaponID) int        { return s.ammo[id] }
func (s *Session) CurrentAmmo() int            { return s.ammo[s.current] }
func (s *Session) Weapons() []WeaponID         { return append([]WeaponID(nil), s.weapons...) }
func (s *Session) AmmoTable() map[WeaponID]int { return copyAmmo(s.ammo) }

// HasWeapon reports whether id has been unlocked.
func (s *Session) HasWeapon(id WeaponID) bool {
	for _, w := range s.weapons {
		if w == id {
			return true
		}
	}
	return false
}

// SessionState is a value copy of a Session for snapshots and the API.
type SessionState struct {
	Health           int              `json:"health" msgpack:"health"`
	Score            int              `json:"score" msgpack:"score"`
	Weapons          []WeaponID       `json:"weapons" msgpack:"weapons"`
	Ammo             map[WeaponID]int `json:"ammo" msgpack:"ammo"`
	CurrentWeapon    WeaponID         `json:"currentWeapon" msgpack:"currentWeapon"`
	PlayerPosition   vmath.Vec3       `json:"playerPosition" msgpack:"playerPosition"`
	MouseSensitivity float64          `json:"mouseSensitivity" msgpack:"mouseSensitivity"`
	IsPaused         bool             `json:"isPaused" msgpack:"isPaused"`
	IsGameOver       bool             `json:"isGameOver" msgpack:"isGameOver"`
}

// State copies the session into a SessionState.
func (s *Session) State() SessionState {
	return SessionState{
		Health:           s.health,
		Score:            s.score,
		Weapons:          s.Weapons(),
		Ammo:             copyAmmo(s.ammo),
		CurrentWeapon:    s.current,
		PlayerPosition:   s.position,
		MouseSensitivity: s.sensitivity,
		IsPaused:         s.paused,
		IsGameOver:       s.gameOver,
	}
}

func copyAmmo(src map[WeaponID]int) map[WeaponID]int {
	out := make(map[WeaponID]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
