package game

import (
	"math"

	"game-hub/internal/game/vmath"
)

// Hitbox is an axis-aligned cube used for hitscan tests.
// All checks are O(1).
type Hitbox struct {
	Center vmath.Vec3
	Half   float64
}

// enemyHalfSize is half the edge of an unscaled enemy cube.
const enemyHalfSize = 0.5

// EnemyHitbox returns the hitbox of an enemy body at pos with the given scale.
func EnemyHitbox(pos vmath.Vec3, scale float64) Hitbox {
	return Hitbox{Center: pos, Half: enemyHalfSize * scale}
}

// RayDistance returns the distance along a unit ray to the box, if it is
// hit within maxDist.
func (h Hitbox) RayDistance(origin, dir vmath.Vec3, maxDist float64) (float64, bool) {
	ext := vmath.V(h.Half, h.Half, h.Half)
	t, ok := vmath.RayAABB(origin, dir, h.Center.Sub(ext), h.Center.Add(ext))
	if !ok || t > maxDist {
		return 0, false
	}
	return t, true
}

// normalizeAngle wraps an angle into [-π, π].
func normalizeAngle(angle float64) float64 {
	const twoPi = 2 * math.Pi
	angle = math.Mod(angle, twoPi)
	if angle < 0 {
		angle += twoPi
	}
	if angle > math.Pi {
		angle -= twoPi
	}
	return angle
}
