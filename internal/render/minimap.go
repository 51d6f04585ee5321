// Package render draws top-down debug views of a session.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"

	"game-hub/internal/game"
	"game-hub/internal/physics"
)

// DefaultSize is the minimap edge in pixels.
const DefaultSize = 512

var (
	backgroundColor = color.RGBA{12, 12, 28, 255}
	gridColor       = color.RGBA{30, 30, 45, 255}
	playerColor     = color.RGBA{83, 255, 69, 255}
	healthBack      = color.RGBA{51, 51, 51, 255}
)

var boxColors = map[physics.BoxKind]color.RGBA{
	physics.KindFloor:    {40, 44, 52, 255},
	physics.KindWall:     {120, 120, 130, 255},
	physics.KindPad:      {70, 90, 120, 255},
	physics.KindObstacle: {140, 110, 80, 255},
	physics.KindPlatform: {90, 140, 90, 255},
}

var enemyColors = map[string]color.RGBA{
	"red":     {255, 62, 62, 255},
	"orange":  {255, 149, 0, 255},
	"darkred": {139, 0, 0, 255},
}

// Minimap renders arena geometry and a snapshot onto a square canvas
// looking down the Y axis, +X right and +Z down.
type Minimap struct {
	size   int
	extent float64 // world half-size shown
	boxes  []physics.Box
}

// NewMinimap creates a renderer for the given static geometry.
func NewMinimap(size int, boxes []physics.Box) *Minimap {
	if size <= 0 {
		size = DefaultSize
	}
	return &Minimap{size: size, extent: physics.FloorHalfSize, boxes: boxes}
}

// Size returns the canvas edge in pixels.
func (m *Minimap) Size() int { return m.size }

// toPixel maps world XZ to canvas coordinates.
func (m *Minimap) toPixel(x, z float64) (float64, float64) {
	k := float64(m.size) / (2 * m.extent)
	return (x + m.extent) * k, (z + m.extent) * k
}

func (m *Minimap) scale(d float64) float64 {
	return d * float64(m.size) / (2 * m.extent)
}

// Render draws the arena and snap. snap may be nil.
func (m *Minimap) Render(snap *game.GameSnapshot) image.Image {
	return m.draw(snap).Image()
}

// EncodePNG renders snap and writes it to w as a PNG.
func (m *Minimap) EncodePNG(w io.Writer, snap *game.GameSnapshot) error {
	if err := m.draw(snap).EncodePNG(w); err != nil {
		return fmt.Errorf("encode minimap: %w", err)
	}
	return nil
}

func (m *Minimap) draw(snap *game.GameSnapshot) *gg.Context {
	dc := gg.NewContext(m.size, m.size)

	dc.SetColor(backgroundColor)
	dc.DrawRectangle(0, 0, float64(m.size), float64(m.size))
	dc.Fill()

	m.drawGrid(dc)
	m.drawBoxes(dc)

	if snap != nil {
		m.drawPickups(dc, snap.Pickups)
		m.drawEnemies(dc, snap.Enemies)
		m.drawBullets(dc, snap.Bullets)
		m.drawPlayer(dc, snap.Camera)
		m.drawHealth(dc, snap.Session.Health)
	}
	return dc
}

func (m *Minimap) drawGrid(dc *gg.Context) {
	dc.SetColor(gridColor)
	dc.SetLineWidth(1)

	for w := -m.extent; w <= m.extent; w += 10 {
		x0, z0 := m.toPixel(w, -m.extent)
		x1, z1 := m.toPixel(w, m.extent)
		dc.DrawLine(x0, z0, x1, z1)
		dc.Stroke()

		x0, z0 = m.toPixel(-m.extent, w)
		x1, z1 = m.toPixel(m.extent, w)
		dc.DrawLine(x0, z0, x1, z1)
		dc.Stroke()
	}
}

func (m *Minimap) drawBoxes(dc *gg.Context) {
	for _, b := range m.boxes {
		if b.Kind == physics.KindFloor {
			continue
		}
		c, ok := boxColors[b.Kind]
		if !ok {
			c = color.RGBA{255, 255, 255, 255}
		}
		x, z := m.toPixel(b.Min.X, b.Min.Z)
		size := b.Size()
		dc.SetColor(c)
		dc.DrawRectangle(x, z, m.scale(size.X), m.scale(size.Z))
		dc.Fill()
	}
}

func (m *Minimap) drawPickups(dc *gg.Context, pickups []game.PickupView) {
	for _, p := range pickups {
		x, z := m.toPixel(p.Position.X, p.Position.Z)
		dc.SetColor(parseHexColor(game.GetWeapon(p.Weapon).PickupColor))
		dc.DrawRegularPolygon(4, x, z, 5, 0)
		dc.Fill()
		if p.Near {
			dc.SetColor(color.White)
			dc.SetLineWidth(1)
			dc.DrawCircle(x, z, m.scale(game.PickupRange))
			dc.Stroke()
		}
	}
}

func (m *Minimap) drawEnemies(dc *gg.Context, enemies []game.EnemyView) {
	for _, e := range enemies {
		x, z := m.toPixel(e.Position.X, e.Position.Z)
		c, ok := enemyColors[game.GetEnemyStats(e.Type).Color]
		if !ok {
			c = enemyColors["red"]
		}
		if e.State != game.EnemyActive {
			c.A = 96
		}
		if e.HitFlash {
			c = color.RGBA{255, 255, 255, 255}
		}

		r := math.Max(2, m.scale(0.5*e.Scale))
		dc.SetColor(c)
		dc.DrawCircle(x, z, r)
		dc.Fill()

		if e.State == game.EnemyActive && e.MaxHP > 0 {
			frac := float64(e.Health) / float64(e.MaxHP)
			dc.SetColor(healthBack)
			dc.DrawRectangle(x-6, z-r-4, 12, 2)
			dc.Fill()
			dc.SetColor(playerColor)
			dc.DrawRectangle(x-6, z-r-4, 12*frac, 2)
			dc.Fill()
		}
	}
}

func (m *Minimap) drawBullets(dc *gg.Context, bullets []game.BulletView) {
	for _, b := range bullets {
		x, z := m.toPixel(b.Position.X, b.Position.Z)
		dc.SetColor(parseHexColor(b.Color))
		dc.DrawCircle(x, z, 1.5)
		dc.Fill()
	}
}

func (m *Minimap) drawPlayer(dc *gg.Context, cam game.CameraView) {
	x, z := m.toPixel(cam.Position.X, cam.Position.Z)

	// Heading: yaw 0 looks down -Z, which is up on the canvas.
	hx := x - math.Sin(cam.Yaw)*12
	hz := z - math.Cos(cam.Yaw)*12

	dc.SetColor(playerColor)
	dc.SetLineWidth(2)
	dc.DrawLine(x, z, hx, hz)
	dc.Stroke()

	dc.DrawCircle(x, z, 4)
	dc.Fill()
	dc.SetColor(color.White)
	dc.SetLineWidth(1)
	dc.DrawCircle(x, z, 4)
	dc.Stroke()
}

func (m *Minimap) drawHealth(dc *gg.Context, health int) {
	width := float64(m.size) / 4
	frac := float64(health) / float64(game.MaxHealth)

	dc.SetColor(healthBack)
	dc.DrawRectangle(8, 8, width, 6)
	dc.Fill()

	switch {
	case frac > 0.5:
		dc.SetColor(color.RGBA{83, 255, 69, 255})
	case frac > 0.25:
		dc.SetColor(color.RGBA{255, 149, 0, 255})
	default:
		dc.SetColor(color.RGBA{255, 62, 62, 255})
	}
	dc.DrawRectangle(8, 8, width*frac, 6)
	dc.Fill()
}

func parseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{255, 255, 255, 255}
	}

	var r, g, b uint8
	fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	return color.RGBA{r, g, b, 255}
}
