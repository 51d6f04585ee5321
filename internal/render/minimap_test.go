package render

import (
	"bytes"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"game-hub/internal/game"
	"game-hub/internal/game/vmath"
	"game-hub/internal/physics"
)

func TestRenderEmptyArena(t *testing.T) {
	m := NewMinimap(128, physics.NewArena(rand.New(rand.NewSource(1))).Boxes())
	img := m.Render(nil)

	if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
		t.Errorf("Expected 128x128, got %v", b)
	}
}

func TestRenderDrawsPlayer(t *testing.T) {
	m := NewMinimap(256, nil)
	snap := &game.GameSnapshot{
		Camera:  game.CameraView{Position: vmath.V(0, 2.5, 0)},
		Session: game.SessionState{Health: 100},
	}

	img := m.Render(snap)
	r, g, b, _ := img.At(128, 128).RGBA()
	want := playerColor
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
		t.Errorf("Expected player color at center, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestEncodePNG(t *testing.T) {
	m := NewMinimap(0, nil)
	snap := &game.GameSnapshot{
		Enemies: []game.EnemyView{{ID: "enemy-1", Type: game.EnemyFast, Health: 25, MaxHP: 50, Scale: 0.8, Position: vmath.V(10, 1.5, 10)}},
		Bullets: []game.BulletView{{ID: "b1", Position: vmath.V(1, 2, -3), Color: "#00ffff"}},
		Pickups: []game.PickupView{{ID: "pickup-1", Weapon: game.Rifle, Position: vmath.V(-5, 0.5, 5), Near: true}},
	}

	var buf bytes.Buffer
	if err := m.EncodePNG(&buf, snap); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != DefaultSize {
		t.Errorf("Expected default size %d, got %d", DefaultSize, img.Bounds().Dx())
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#ff6600", color.RGBA{255, 102, 0, 255}},
		{"#00ffff", color.RGBA{0, 255, 255, 255}},
		{"red", color.RGBA{255, 255, 255, 255}},
		{"", color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.in); got != tt.want {
			t.Errorf("parseHexColor(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}
