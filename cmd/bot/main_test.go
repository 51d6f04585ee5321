package main

import (
	"math"
	"testing"

	"game-hub/internal/game"
	"game-hub/internal/game/vmath"
)

func TestYawTo(t *testing.T) {
	eye := vmath.V(0, 1.5, 0)

	tests := []struct {
		name   string
		yaw    float64
		target vmath.Vec3
		want   float64
	}{
		{"straight ahead", 0, vmath.V(0, 1, -10), 0},
		{"to the left", 0, vmath.V(-10, 1, 0), math.Pi / 2},
		{"to the right", 0, vmath.V(10, 1, 0), -math.Pi / 2},
		{"already facing left", math.Pi / 2, vmath.V(-10, 1, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yawTo(eye, tt.yaw, tt.target); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected %.4f, got %.4f", tt.want, got)
			}
		})
	}
}

func TestLookPixelsTurnsTowardTarget(t *testing.T) {
	pc := 0.0
	yawErr := 0.5
	dx := lookPixels(yawErr, 1)

	// The player controller subtracts dx * k from yaw.
	pc -= dx * game.LookRadiansPerPixel
	if math.Abs(pc-yawErr) > game.LookRadiansPerPixel {
		t.Errorf("Expected yaw near %.3f, got %.3f", yawErr, pc)
	}
}

func TestBestSlot(t *testing.T) {
	s := game.SessionState{
		CurrentWeapon: "pistol",
		Ammo:          map[game.WeaponID]int{"pistol": 30, "shotgun": 0, "rifle": 0},
	}
	if slot := bestSlot(s); slot != 0 {
		t.Errorf("Expected no switch with only pistol ammo, got slot %d", slot)
	}

	s.Ammo["rifle"] = 60
	if slot := bestSlot(s); slot != 3 {
		t.Errorf("Expected slot 3 for rifle, got %d", slot)
	}
}

func TestDecideWithoutEnemies(t *testing.T) {
	msgs := decide(&game.GameSnapshot{})
	if len(msgs) != 1 || msgs[0].Type != "keyup" {
		t.Errorf("Expected a single keyup, got %+v", msgs)
	}
}

func TestDecideFiresWhenAimed(t *testing.T) {
	snap := &game.GameSnapshot{
		Camera:  game.CameraView{Position: vmath.V(0, 1.5, 0)},
		Session: game.SessionState{MouseSensitivity: 1, CurrentWeapon: "pistol", Ammo: map[game.WeaponID]int{"pistol": 30}},
		Enemies: []game.EnemyView{{ID: "e1", State: game.EnemyActive, Position: vmath.V(0, 1, -20)}},
	}

	var fired, walking bool
	for _, m := range decide(snap) {
		switch {
		case m.Type == "mousedown":
			fired = true
		case m.Type == "keydown" && m.Code == "KeyW":
			walking = true
		case m.Type == "mousemove":
			t.Errorf("Expected no turn when aimed, got dx %v", m.DX)
		}
	}
	if !fired {
		t.Error("Expected the bot to fire at an enemy straight ahead")
	}
	if !walking {
		t.Error("Expected the bot to approach a distant enemy")
	}
}

func TestTrackKeys(t *testing.T) {
	b := &bot{held: make(map[string]bool)}

	if !b.trackKeys(message{Type: "keydown", Code: "KeyW"}) {
		t.Error("Expected first keydown sent")
	}
	if b.trackKeys(message{Type: "keydown", Code: "KeyW"}) {
		t.Error("Expected repeated keydown dropped")
	}
	if !b.trackKeys(message{Type: "keyup", Code: "KeyW"}) {
		t.Error("Expected keyup sent")
	}
	if b.trackKeys(message{Type: "keyup", Code: "KeyW"}) {
		t.Error("Expected repeated keyup dropped")
	}
}
