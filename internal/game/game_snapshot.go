package game

import (
	"sync/atomic"
	"time"
)

// HUDView carries the short-lived overlays the client draws.
type HUDView struct {
	DamageFlash  bool        `json:"damageFlash" msgpack:"damageFlash"`
	HitMarker    bool        `json:"hitMarker" msgpack:"hitMarker"`
	PickupPrompt bool        `json:"pickupPrompt" msgpack:"pickupPrompt"`
	KillFeed     []FeedEntry `json:"killFeed" msgpack:"killFeed"`
}

// SnapshotStats are aggregate counters for dashboards and the minimap.
type SnapshotStats struct {
	Enemies      int    `json:"enemies" msgpack:"enemies"`
	Bullets      int    `json:"bullets" msgpack:"bullets"`
	Pickups      int    `json:"pickups" msgpack:"pickups"`
	OpenShots    int    `json:"openShots" msgpack:"openShots"`
	TotalKills   int    `json:"totalKills" msgpack:"totalKills"`
	TotalShots   int    `json:"totalShots" msgpack:"totalShots"`
	InputDropped uint64 `json:"inputDropped" msgpack:"inputDropped"`
}

// GameSnapshot is a complete immutable copy of one session after a tick.
// Once published it is never written again, so readers on any goroutine
// may encode it without locking.
type GameSnapshot struct {
	Sequence   uint64    `json:"seq" msgpack:"seq"`
	Timestamp  time.Time `json:"timestamp" msgpack:"timestamp"`
	TickNumber uint64    `json:"tick" msgpack:"tick"`
	SessionID  string    `json:"sessionId" msgpack:"sessionId"`
	Elapsed    float64   `json:"elapsed" msgpack:"elapsed"`

	Phase   Phase        `json:"phase" msgpack:"phase"`
	Session SessionState `json:"session" msgpack:"session"`
	Camera  CameraView   `json:"camera" msgpack:"camera"`

	Enemies []EnemyView  `json:"enemies" msgpack:"enemies"`
	Bullets []BulletView `json:"bullets" msgpack:"bullets"`
	Pickups []PickupView `json:"pickups" msgpack:"pickups"`

	HUD   HUDView       `json:"hud" msgpack:"hud"`
	Stats SnapshotStats `json:"stats" msgpack:"stats"`
}

// SnapshotBuffer hands the latest snapshot from the tick goroutine to any
// number of readers. The producer builds a fresh snapshot each tick and
// swaps it in; readers keep whatever pointer they loaded.
type SnapshotBuffer struct {
	latest   atomic.Pointer[GameSnapshot]
	sequence atomic.Uint64
}

// NewSnapshotBuffer creates a buffer holding an empty snapshot.
func NewSnapshotBuffer() *SnapshotBuffer {
	b := &SnapshotBuffer{}
	b.latest.Store(&GameSnapshot{})
	return b
}

// Publish stamps snap with the next sequence number and makes it current.
// snap must not be modified afterwards.
func (b *SnapshotBuffer) Publish(snap *GameSnapshot, now time.Time) {
	snap.Sequence = b.sequence.Add(1)
	snap.Timestamp = now
	b.latest.Store(snap)
}

// Latest returns the most recently published snapshot. Never nil.
func (b *SnapshotBuffer) Latest() *GameSnapshot {
	return b.latest.Load()
}
