// Package entity holds the small value types shared by the simulation packages.
package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is a handle to a spawned object. Zero is never issued.
type ID uint64

// Faction decides which side an object fights for
type Faction int

const (
	FactionNeutral Faction = iota
	FactionHero
	FactionEnemy
)

func (f Faction) String() string {
	switch f {
	case FactionHero:
		return "hero"
	case FactionEnemy:
		return "enemy"
	default:
		return "neutral"
	}
}

// Kind identifies what touched an actor in a contact report
type Kind int

const (
	KindOther Kind = iota
	KindEnemy
	KindPowerUp
	KindProjectile
)

func (k Kind) String() string {
	switch k {
	case KindEnemy:
		return "enemy"
	case KindPowerUp:
		return "powerup"
	case KindProjectile:
		return "projectile"
	default:
		return "other"
	}
}

// Vec2 is a point or velocity on the play plane. +Y is up.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Scale returns v*s
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the magnitude of v
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Rotate turns v counter-clockwise by deg degrees
func (v Vec2) Rotate(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec2{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// Angle returns the direction of v in degrees, counter-clockwise from +X
func (v Vec2) Angle() float64 {
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

// Color is an opaque RGB color. Its text form is "#rrggbb".
type Color struct {
	R, G, B uint8
}

var White = Color{255, 255, 255}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalText implements encoding.TextMarshaler
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses "#rrggbb" or "rrggbb"
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.TrimSpace(string(text)), "#")
	if len(s) != 6 {
		return fmt.Errorf("invalid color %q", string(text))
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", string(text), err)
	}
	c.R = uint8(v >> 16)
	c.G = uint8(v >> 8)
	c.B = uint8(v)
	return nil
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
