package arena

import "spaceship-shmup/entity"

// CheckCollision checks if two circles overlap
func CheckCollision(a entity.Vec2, ra float64, b entity.Vec2, rb float64) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	radSum := ra + rb
	return dx*dx+dy*dy <= radSum*radSum
}

// Bounds is the play area, a rectangle centered on the origin
type Bounds struct {
	HalfWidth  float64
	HalfHeight float64
}

// OnScreen reports whether any part of a circle at pos is inside the area
func (b Bounds) OnScreen(pos entity.Vec2, radius float64) bool {
	return pos.X+radius >= -b.HalfWidth && pos.X-radius <= b.HalfWidth &&
		pos.Y+radius >= -b.HalfHeight && pos.Y-radius <= b.HalfHeight
}

// Keep pulls a circle at pos fully inside the area
func (b Bounds) Keep(pos entity.Vec2, radius float64) entity.Vec2 {
	return entity.Vec2{
		X: entity.Clamp(pos.X, -b.HalfWidth+radius, b.HalfWidth-radius),
		Y: entity.Clamp(pos.Y, -b.HalfHeight+radius, b.HalfHeight-radius),
	}
}
