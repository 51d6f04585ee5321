package game

import (
	"encoding/json"
	"time"

	"game-hub/internal/game/vmath"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Sampled tick boundary
	EventTypePhase             // Pause/lock controller transition
	EventTypeShot
	EventTypeEnemySpawn
	EventTypeEnemyHit
	EventTypeEnemyKilled
	EventTypePlayerDamaged
	EventTypePickupSpawn
	EventTypePickupCollected
	EventTypeWeaponSwitch
	EventTypeReset
)

// EventVersion for backwards compatibility of the JSONL files
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic per log
	TickNum   uint64          `json:"tickNum"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

var eventTypeNames = [...]string{
	EventTypeUnknown:         "unknown",
	EventTypeTick:            "tick",
	EventTypePhase:           "phase",
	EventTypeShot:            "shot",
	EventTypeEnemySpawn:      "enemy_spawn",
	EventTypeEnemyHit:        "enemy_hit",
	EventTypeEnemyKilled:     "enemy_killed",
	EventTypePlayerDamaged:   "player_damaged",
	EventTypePickupSpawn:     "pickup_spawn",
	EventTypePickupCollected: "pickup_collected",
	EventTypeWeaponSwitch:    "weapon_switch",
	EventTypeReset:           "reset",
}

// String returns human-readable event type
func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

// MarshalText encodes the type by name in JSON.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Typed payloads for different event types

// TickPayload is written for sampled ticks.
type TickPayload struct {
	Elapsed float64 `json:"elapsed"`
	Enemies int     `json:"enemies"`
	Bullets int     `json:"bullets"`
	Pickups int     `json:"pickups"`
}

// PhasePayload records a controller transition.
type PhasePayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Trigger string `json:"trigger"`
}

// ShotPayload records a trigger pull.
type ShotPayload struct {
	Weapon  WeaponID   `json:"weapon"`
	Origin  vmath.Vec3 `json:"origin"`
	Dir     vmath.Vec3 `json:"dir"`
	Pellets int        `json:"pellets"`
	HitID   string     `json:"hitId,omitempty"`
	Ammo    int        `json:"ammo"`
}

// EnemyPayload records an enemy spawn, hit or kill.
type EnemyPayload struct {
	EnemyID  string     `json:"enemyId"`
	Type     EnemyType  `json:"type"`
	Position vmath.Vec3 `json:"position"`
	Damage   int        `json:"damage,omitempty"`
	Health   int        `json:"health"`
	Points   int        `json:"points,omitempty"`
}

// DamagePayload records damage taken by the player.
type DamagePayload struct {
	Source string `json:"source"`
	Damage int    `json:"damage"`
	Health int    `json:"health"`
}

// PickupPayload records a pickup spawn or collection.
type PickupPayload struct {
	PickupID string     `json:"pickupId"`
	Weapon   WeaponID   `json:"weapon"`
	Position vmath.Vec3 `json:"position"`
}

// WeaponSwitchPayload records an active weapon change.
type WeaponSwitchPayload struct {
	From WeaponID `json:"from"`
	To   WeaponID `json:"to"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, sessionID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		SessionID: sessionID,
		Payload:   EncodePayload(payload),
	}
}
