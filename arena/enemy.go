package arena

import "spaceship-shmup/entity"

// Enemy is a hostile ship drifting down the play area
type Enemy struct {
	ID     entity.ID
	Pos    entity.Vec2
	Speed  float64
	Health float64
	Radius float64
	Score  int
	Alive  bool
}

// NewEnemy creates an enemy at pos
func NewEnemy(id entity.ID, pos entity.Vec2, cfg Config) *Enemy {
	return &Enemy{
		ID:     id,
		Pos:    pos,
		Speed:  cfg.EnemySpeed,
		Health: cfg.EnemyHealth,
		Radius: cfg.EnemyRadius,
		Score:  cfg.EnemyScore,
		Alive:  true,
	}
}

// Update moves the enemy one tick
func (e *Enemy) Update(dt float64) {
	if !e.Alive {
		return
	}
	e.Pos.Y -= e.Speed * dt
}

// TakeDamage reduces health and returns true if the enemy died
func (e *Enemy) TakeDamage(dmg float64) bool {
	if !e.Alive {
		return false
	}
	e.Health -= dmg
	if e.Health <= 0 {
		e.Health = 0
		e.Alive = false
		return true
	}
	return false
}

// ToState converts to snapshot state
func (e *Enemy) ToState() EnemyState {
	return EnemyState{
		ID: uint64(e.ID),
		X:  round2(e.Pos.X),
		Y:  round2(e.Pos.Y),
		HP: round2(e.Health),
	}
}
