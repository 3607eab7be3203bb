package hero

import "math"

const (
	ShieldTextureStep     = 0.2 // texture offset per shield level
	DefaultShieldRotSpeed = 0.1 // revolutions per second
)

// ShieldSource is anything with a shield level to display
type ShieldSource interface {
	Shield() float64
}

// ShieldIndicator turns a shield level into display properties
type ShieldIndicator struct {
	source            ShieldSource
	RotationPerSecond float64

	LevelShown     int
	TextureOffset  float64 // horizontal texture offset selecting the level frame
	TextureVisible bool
	Rotation       float64 // degrees about Z
}

// NewShieldIndicator watches src
func NewShieldIndicator(src ShieldSource, rotationPerSecond float64) *ShieldIndicator {
	return &ShieldIndicator{source: src, RotationPerSecond: rotationPerSecond}
}

// SetSource points the indicator at a different ship
func (s *ShieldIndicator) SetSource(src ShieldSource) { s.source = src }

// Update refreshes the display for the current time
func (s *ShieldIndicator) Update(now float64) {
	if s.source != nil {
		level := int(math.Floor(s.source.Shield()))
		if level != s.LevelShown {
			s.LevelShown = level
			s.TextureOffset = ShieldTextureStep * float64(level)
			s.TextureVisible = level != 0
		}
	}
	s.Rotation = -math.Mod(s.RotationPerSecond*now*360, 360)
}
