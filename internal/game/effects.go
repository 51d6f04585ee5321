package game

// EffectKind identifies a short-lived timed effect.
type EffectKind uint8

const (
	EffectDamageFlash   EffectKind = iota // HUD red flash after the player is hurt
	EffectHitMarker                       // HUD crosshair marker after a damaging shot
	EffectEnemyHitFlash                   // Per-enemy flash, keyed by enemy id
	EffectPickupPrompt                    // "Press E" prompt, keyed by pickup id
	EffectAutoLock                        // Deferred pointer lock request after resume
	EffectPickupRespawn                   // Deferred pickup spawn attempt
)

// Durations in simulated seconds.
const (
	DamageFlashDuration   = 0.3
	HitMarkerDuration     = 0.2
	EnemyHitFlashDuration = 0.15
	PickupPromptDuration  = 3.0
	AutoLockDelay         = 0.1
	PickupRespawnDelay    = 10.0
)

var effectNames = [...]string{
	EffectDamageFlash:   "damage_flash",
	EffectHitMarker:     "hit_marker",
	EffectEnemyHitFlash: "enemy_hit_flash",
	EffectPickupPrompt:  "pickup_prompt",
	EffectAutoLock:      "auto_lock",
	EffectPickupRespawn: "pickup_respawn",
}

func (k EffectKind) String() string {
	if int(k) < len(effectNames) {
		return effectNames[k]
	}
	return "unknown"
}

// TimedEffect is a fire-and-forget timer evaluated against the world clock.
type TimedEffect struct {
	Kind     EffectKind
	Key      string
	Start    float64
	Duration float64
}

// Expired reports whether the effect has run its course at time now.
func (e TimedEffect) Expired(now float64) bool {
	return now-e.Start >= e.Duration
}

// Effects tracks timed effects. Retriggering a (kind, key) pair restarts it.
type Effects struct {
	list []TimedEffect
	max  int
}

// NewEffects creates a tracker holding at most max effects.
func NewEffects(max int) *Effects {
	if max <= 0 {
		max = 256
	}
	return &Effects{list: make([]TimedEffect, 0, 16), max: max}
}

// Trigger starts (or restarts) an effect. Dropped silently at capacity.
func (e *Effects) Trigger(kind EffectKind, key string, now, duration float64) {
	for i := range e.list {
		if e.list[i].Kind == kind && e.list[i].Key == key {
			e.list[i].Start = now
			e.list[i].Duration = duration
			return
		}
	}
	if len(e.list) >= e.max {
		return
	}
	e.list = append(e.list, TimedEffect{Kind: kind, Key: key, Start: now, Duration: duration})
}

// Active reports whether (kind, key) is running at time now.
func (e *Effects) Active(kind EffectKind, key string, now float64) bool {
	for _, fx := range e.list {
		if fx.Kind == kind && fx.Key == key {
			return !fx.Expired(now)
		}
	}
	return false
}

// Pending reports whether (kind, key) is tracked at all, expired or not.
func (e *Effects) Pending(kind EffectKind, key string) bool {
	for _, fx := range e.list {
		if fx.Kind == kind && fx.Key == key {
			return true
		}
	}
	return false
}

// Cancel drops (kind, key) without firing it.
func (e *Effects) Cancel(kind EffectKind, key string) {
	n := 0
	for _, fx := range e.list {
		if fx.Kind == kind && fx.Key == key {
			continue
		}
		e.list[n] = fx
		n++
	}
	e.list = e.list[:n]
}

// Sweep removes expired effects, calling fired for each one.
// Effects triggered from inside fired are kept for the next sweep.
func (e *Effects) Sweep(now float64, fired func(TimedEffect)) {
	var expired []TimedEffect
	n := 0
	for _, fx := range e.list {
		if fx.Expired(now) {
			expired = append(expired, fx)
			continue
		}
		e.list[n] = fx
		n++
	}
	e.list = e.list[:n]

	if fired == nil {
		return
	}
	for _, fx := range expired {
		fired(fx)
	}
}

// Clear drops every effect. Used on reset so nothing fires against stale state.
func (e *Effects) Clear() {
	e.list = e.list[:0]
}

// Len returns the number of tracked effects.
func (e *Effects) Len() int { return len(e.list) }

// =============================================================================
// KILL FEED
// =============================================================================

// FeedEntry is one score gain shown in the HUD feed.
type FeedEntry struct {
	Points int     `json:"points" msgpack:"points"`
	Reason string  `json:"reason" msgpack:"reason"`
	At     float64 `json:"at" msgpack:"at"`
}

// KillFeed keeps the most recent score gains, newest last.
type KillFeed struct {
	entries []FeedEntry
	size    int
}

// NewKillFeed creates a feed holding size entries.
func NewKillFeed(size int) *KillFeed {
	if size <= 0 {
		size = 5
	}
	return &KillFeed{entries: make([]FeedEntry, 0, size), size: size}
}

// Push appends an entry, evicting the oldest when full.
func (f *KillFeed) Push(entry FeedEntry) {
	if len(f.entries) == f.size {
		copy(f.entries, f.entries[1:])
		f.entries = f.entries[:f.size-1]
	}
	f.entries = append(f.entries, entry)
}

// Entries returns a copy of the feed.
func (f *KillFeed) Entries() []FeedEntry {
	out := make([]FeedEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

func (f *KillFeed) Clear() { f.entries = f.entries[:0] }
