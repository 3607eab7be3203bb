package weapon

import (
	"math"

	"spaceship-shmup/entity"
)

const (
	SpreadAngle        = 10.0 // degrees either side of the center shot
	MissileSpeedFactor = 0.8
)

// neverFired makes the first shot after SetType pass the cooldown check
var neverFired = math.Inf(-1)

// Owner is the actor a slot is mounted on
type Owner interface {
	Position() entity.Vec2
	Inverted() bool // local up points toward -Y
	Faction() entity.Faction
	Alive() bool
}

// Shot describes one projectile a slot asks to have spawned
type Shot struct {
	Type             Type
	Faction          entity.Faction
	Position         entity.Vec2
	Velocity         entity.Vec2
	Rotation         float64 // degrees relative to the base direction
	Projectile       string
	Color            entity.Color
	Damage           float64
	ContinuousDamage float64
}

// Spawner creates projectiles in the world
type Spawner interface {
	SpawnProjectile(s Shot) entity.ID
}

// Slot is one weapon mount on an actor
type Slot struct {
	catalog *Catalog
	owner   Owner
	spawner Spawner
	offset  entity.Vec2 // muzzle offset from the owner position

	typ          Type
	def          Definition
	lastShotTime float64
	visible      bool
	collar       entity.Color
}

// NewSlot creates an empty slot
func NewSlot(catalog *Catalog, owner Owner, spawner Spawner, offset entity.Vec2) *Slot {
	return &Slot{
		catalog:      catalog,
		owner:        owner,
		spawner:      spawner,
		offset:       offset,
		lastShotTime: neverFired,
	}
}

// SetType equips t. None empties the slot. On error the slot is left empty.
func (s *Slot) SetType(t Type) error {
	s.lastShotTime = neverFired
	if t == None {
		s.clear()
		return nil
	}
	if !t.Fires() {
		s.clear()
		return ErrNotEquippable
	}
	def, err := s.catalog.Lookup(t)
	if err != nil {
		s.clear()
		return err
	}
	s.typ = t
	s.def = def
	s.visible = true
	s.collar = def.Color
	return nil
}

func (s *Slot) clear() {
	s.typ = None
	s.def = Definition{}
	s.visible = false
}

// Type returns the equipped weapon type
func (s *Slot) Type() Type { return s.typ }

// Definition returns the equipped weapon's definition
func (s *Slot) Definition() Definition { return s.def }

// Active reports whether the slot holds a weapon
func (s *Slot) Active() bool { return s.typ != None }

// Visible reports whether the slot should be drawn
func (s *Slot) Visible() bool { return s.visible }

// Collar returns the color the slot's collar is drawn with
func (s *Slot) Collar() entity.Color { return s.collar }

// LastShotTime returns when the slot last fired, -Inf if never
func (s *Slot) LastShotTime() float64 { return s.lastShotTime }

// Muzzle returns the world position projectiles leave from
func (s *Slot) Muzzle() entity.Vec2 {
	off := s.offset
	if s.owner.Inverted() {
		off.Y = -off.Y
	}
	return s.owner.Position().Add(off)
}

// TryFire shoots if the slot is armed and its cooldown has elapsed. It returns
// the number of projectiles actually spawned.
func (s *Slot) TryFire(now float64) int {
	if !s.Active() || s.owner == nil || !s.owner.Alive() {
		return 0
	}
	if now-s.lastShotTime < s.def.DelayBetweenShots {
		return 0
	}

	vel := entity.Vec2{Y: s.def.Velocity}
	if s.owner.Inverted() {
		vel.Y = -vel.Y
	}

	n := 0
	switch s.typ {
	case Blaster, Phaser, Laser, Nuke:
		n += s.spawn(vel, 0)
	case Spread:
		n += s.spawn(vel, 0)
		n += s.spawn(vel.Rotate(-SpreadAngle), -SpreadAngle)
		n += s.spawn(vel.Rotate(SpreadAngle), SpreadAngle)
	case Missile:
		n += s.spawn(vel.Scale(MissileSpeedFactor), 0)
	default:
		// shield and none never reach here through SetType
		return 0
	}
	// a shot nothing could spawn does not start the cooldown
	if n > 0 {
		s.lastShotTime = now
	}
	return n
}

// spawn returns 1 if the spawner accepted the shot. A zero ID means refused.
func (s *Slot) spawn(vel entity.Vec2, rotation float64) int {
	if s.spawner == nil {
		return 0
	}
	id := s.spawner.SpawnProjectile(Shot{
		Type:             s.typ,
		Faction:          s.owner.Faction(),
		Position:         s.Muzzle(),
		Velocity:         vel,
		Rotation:         rotation,
		Projectile:       s.def.Projectile,
		Color:            s.def.ProjectileColor,
		Damage:           s.def.DamageOnHit,
		ContinuousDamage: s.def.ContinuousDamage,
	})
	if id == 0 {
		return 0
	}
	return 1
}
