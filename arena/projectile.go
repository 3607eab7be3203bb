package arena

import (
	"spaceship-shmup/entity"
	"spaceship-shmup/weapon"
)

const ProjectileRadius = 0.5

// Projectile is a shot in flight. Type and Faction come from the slot that
// fired it and drive damage and collision filtering.
type Projectile struct {
	ID       entity.ID
	Type     weapon.Type
	Faction  entity.Faction
	Pos      entity.Vec2
	Vel      entity.Vec2
	Rotation float64
	Damage   float64
	Color    entity.Color
	Alive    bool
}

// NewProjectile creates a projectile from a slot's shot
func NewProjectile(id entity.ID, s weapon.Shot) *Projectile {
	return &Projectile{
		ID:       id,
		Type:     s.Type,
		Faction:  s.Faction,
		Pos:      s.Position,
		Vel:      s.Velocity,
		Rotation: s.Rotation,
		Damage:   s.Damage,
		Color:    s.Color,
		Alive:    true,
	}
}

// Update moves the projectile one tick
func (p *Projectile) Update(dt float64) {
	if !p.Alive {
		return
	}
	p.Pos = p.Pos.Add(p.Vel.Scale(dt))
}

// ToState converts to snapshot state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		ID:      uint64(p.ID),
		X:       round2(p.Pos.X),
		Y:       round2(p.Pos.Y),
		R:       round2(p.Rotation),
		Type:    p.Type.String(),
		Faction: int(p.Faction),
	}
}
