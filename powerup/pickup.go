// Package powerup implements the drifting, fading pickups that grant weapons
// and shield points.
package powerup

import (
	"errors"
	"math"

	"spaceship-shmup/entity"
	"spaceship-shmup/weapon"
)

const (
	Radius          = 1.0
	LetterFadeRatio = 0.5 // the letter fades at half the cube's rate
)

var ErrNoneType = errors.New("pickup cannot carry weapon type none")

// Config holds the tunables every pickup is created with
type Config struct {
	LifeTime float64 // seconds before fading starts
	FadeTime float64 // seconds of fade before expiry
	DriftMin float64 // drift speed range
	DriftMax float64
	RotMin   float64 // per-axis spin range, degrees/s
	RotMax   float64
}

// DefaultConfig returns the standard pickup timings
func DefaultConfig() Config {
	return Config{
		LifeTime: 6,
		FadeTime: 4,
		DriftMin: 0.25,
		DriftMax: 2,
		RotMin:   15,
		RotMax:   90,
	}
}

// Rand is the random source drift and spin are drawn from
type Rand interface {
	Float64() float64
}

// Effects are world-wide consequences of absorbing a pickup
type Effects interface {
	DestroyAllEnemies()
}

// Bounds reports whether an object is still inside the play area
type Bounds interface {
	OnScreen(pos entity.Vec2, radius float64) bool
}

// Pickup is a power-up floating in the world
type Pickup struct {
	ID           entity.ID
	Type         weapon.Type
	Letter       string
	Color        entity.Color
	Position     entity.Vec2
	Velocity     entity.Vec2
	RotPerSecond [3]float64 // euler spin of the cube
	Rotation     [3]float64
	BirthTime    float64
	LifeTime     float64
	FadeTime     float64
	CubeAlpha    float64
	LetterAlpha  float64
	Alive        bool
}

// New creates a pickup for def at pos. Drift and spin are drawn once from rng.
func New(id entity.ID, def weapon.Definition, pos entity.Vec2, now float64, cfg Config, rng Rand) (*Pickup, error) {
	if def.Type == weapon.None {
		return nil, ErrNoneType
	}
	dir := rng.Float64() * 2 * math.Pi
	speed := cfg.DriftMin + rng.Float64()*(cfg.DriftMax-cfg.DriftMin)
	p := &Pickup{
		ID:          id,
		Type:        def.Type,
		Letter:      def.Letter,
		Color:       def.Color,
		Position:    pos,
		Velocity:    entity.Vec2{X: math.Cos(dir) * speed, Y: math.Sin(dir) * speed},
		BirthTime:   now,
		LifeTime:    cfg.LifeTime,
		FadeTime:    cfg.FadeTime,
		CubeAlpha:   1,
		LetterAlpha: 1,
		Alive:       true,
	}
	for i := range p.RotPerSecond {
		p.RotPerSecond[i] = cfg.RotMin + rng.Float64()*(cfg.RotMax-cfg.RotMin)
	}
	return p, nil
}

// Fade returns the fade parameter at now: <= 0 while solid, 1 at expiry
func (p *Pickup) Fade(now float64) float64 {
	if p.FadeTime <= 0 {
		if now >= p.BirthTime+p.LifeTime {
			return 1
		}
		return 0
	}
	return (now - (p.BirthTime + p.LifeTime)) / p.FadeTime
}

// Tick advances drift, spin and fade. It returns false once the pickup is gone.
func (p *Pickup) Tick(now, dt float64, bounds Bounds) bool {
	if !p.Alive {
		return false
	}
	p.Position = p.Position.Add(p.Velocity.Scale(dt))
	for i := range p.Rotation {
		p.Rotation[i] = math.Mod(p.RotPerSecond[i]*now, 360)
	}

	u := p.Fade(now)
	if u >= 1 {
		p.Alive = false
		return false
	}
	if u > 0 {
		p.CubeAlpha = 1 - u
		p.LetterAlpha = 1 - u*LetterFadeRatio
	} else {
		p.CubeAlpha = 1
		p.LetterAlpha = 1
	}

	if bounds != nil && !bounds.OnScreen(p.Position, Radius) {
		p.Alive = false
		return false
	}
	return true
}

// OnAbsorbed destroys the pickup and applies its world effect. Only the first
// call has any effect; it reports whether this call consumed the pickup.
func (p *Pickup) OnAbsorbed(effects Effects) bool {
	if !p.Alive {
		return false
	}
	p.Alive = false
	if p.Type == weapon.Nuke && effects != nil {
		effects.DestroyAllEnemies()
	}
	return true
}
