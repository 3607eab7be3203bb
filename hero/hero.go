// Package hero implements the player ship: its shield level, weapon slots and
// reactions to enemies and pickups.
package hero

import (
	"log"
	"math"

	"spaceship-shmup/entity"
	"spaceship-shmup/powerup"
	"spaceship-shmup/weapon"
)

const (
	MaxShieldLevel = 4
	SlotCount      = 5
	Radius         = 2.0
)

// Config holds the ship tunables
type Config struct {
	Speed        float64 // units/s at full axis
	RollMult     float64 // degrees of roll at full X axis
	PitchMult    float64 // degrees of pitch at full Y axis
	RestartDelay float64 // seconds between destruction and restart
	StartShield  float64
	StartWeapon  weapon.Type
	SlotOffsets  []entity.Vec2 // muzzle offset per slot; slot 0 is primary
}

// DefaultConfig returns the standard ship setup
func DefaultConfig() Config {
	return Config{
		Speed:        30,
		RollMult:     -45,
		PitchMult:    30,
		RestartDelay: 2,
		StartShield:  1,
		StartWeapon:  weapon.Blaster,
		SlotOffsets: []entity.Vec2{
			{X: 0, Y: 2},
			{X: -1.5, Y: 1},
			{X: 1.5, Y: 1},
			{X: -3, Y: 0},
			{X: 3, Y: 0},
		},
	}
}

// Restarter schedules a level restart
type Restarter interface {
	DelayedRestart(delay float64)
}

// World is everything the ship needs from its surroundings
type World interface {
	weapon.Spawner
	powerup.Effects
	Restarter
}

// Contact is a collision report against the ship
type Contact struct {
	Other   entity.ID
	Kind    entity.Kind
	Faction entity.Faction
	Pickup  *powerup.Pickup // set when Kind is KindPowerUp
}

// Input is one tick of player controls
type Input struct {
	X, Y float64 // axes in [-1, 1]
	Fire bool
}

// Hero is the player ship
type Hero struct {
	id    entity.ID
	cfg   Config
	world World

	pos         entity.Vec2
	pitch, roll float64
	shield      float64
	destroyed   bool
	slots       []*weapon.Slot
	lastTrigger entity.ID
}

// New builds a ship with every slot empty except slot 0, which holds the
// configured start weapon.
func New(id entity.ID, cfg Config, catalog *weapon.Catalog, world World) (*Hero, error) {
	offsets := cfg.SlotOffsets
	if len(offsets) == 0 {
		offsets = make([]entity.Vec2, SlotCount)
	}
	h := &Hero{
		id:     id,
		cfg:    cfg,
		world:  world,
		shield: math.Min(cfg.StartShield, MaxShieldLevel),
	}
	h.slots = make([]*weapon.Slot, len(offsets))
	for i, off := range offsets {
		h.slots[i] = weapon.NewSlot(catalog, h, world, off)
	}
	h.clearWeapons()
	if err := h.slots[0].SetType(cfg.StartWeapon); err != nil {
		return nil, err
	}
	return h, nil
}

// ID returns the ship's handle
func (h *Hero) ID() entity.ID { return h.id }

// Position implements weapon.Owner
func (h *Hero) Position() entity.Vec2 { return h.pos }

// SetPosition moves the ship directly
func (h *Hero) SetPosition(p entity.Vec2) { h.pos = p }

// Inverted implements weapon.Owner; the ship always faces up
func (h *Hero) Inverted() bool { return false }

// Faction implements weapon.Owner
func (h *Hero) Faction() entity.Faction { return entity.FactionHero }

// Alive implements weapon.Owner
func (h *Hero) Alive() bool { return !h.destroyed }

// Destroyed reports whether the shield has failed
func (h *Hero) Destroyed() bool { return h.destroyed }

// Pitch and Roll return the current tilt in degrees
func (h *Hero) Pitch() float64 { return h.pitch }
func (h *Hero) Roll() float64  { return h.roll }

// Slots returns the ordered weapon slots
func (h *Hero) Slots() []*weapon.Slot { return h.slots }

// Loadout returns the type held by each slot
func (h *Hero) Loadout() []weapon.Type {
	out := make([]weapon.Type, len(h.slots))
	for i, s := range h.slots {
		out[i] = s.Type()
	}
	return out
}

// Shield returns the current shield level
func (h *Hero) Shield() float64 { return h.shield }

// SetShield stores v capped at MaxShieldLevel. A negative value destroys the
// ship and schedules a restart, once.
func (h *Hero) SetShield(v float64) {
	h.shield = math.Min(v, MaxShieldLevel)
	if v < 0 && !h.destroyed {
		h.destroyed = true
		log.Printf("hero %d destroyed, restarting in %.1fs", h.id, h.cfg.RestartDelay)
		if h.world != nil {
			h.world.DelayedRestart(h.cfg.RestartDelay)
		}
	}
}

// Move applies axis input for dt seconds and tilts the ship
func (h *Hero) Move(in Input, dt float64) {
	if h.destroyed {
		return
	}
	x := entity.Clamp(in.X, -1, 1)
	y := entity.Clamp(in.Y, -1, 1)
	h.pos.X += x * h.cfg.Speed * dt
	h.pos.Y += y * h.cfg.Speed * dt
	h.pitch = y * h.cfg.PitchMult
	h.roll = x * h.cfg.RollMult
}

// Fire triggers every slot in order and returns the total projectiles spawned
func (h *Hero) Fire(now float64) int {
	if h.destroyed {
		return 0
	}
	n := 0
	for _, s := range h.slots {
		n += s.TryFire(now)
	}
	return n
}

// OnContact handles a collision. Repeat reports from the object that last
// triggered are ignored. It returns true when the other object was an enemy
// the ship rammed, which the caller should destroy.
func (h *Hero) OnContact(c Contact) bool {
	if c.Other != 0 && c.Other == h.lastTrigger {
		return false
	}
	h.lastTrigger = c.Other

	switch c.Kind {
	case entity.KindEnemy:
		h.SetShield(h.shield - 1)
		return true
	case entity.KindPowerUp:
		if c.Pickup != nil {
			h.AbsorbPowerUp(c.Pickup)
		}
	default:
		log.Printf("hero %d: triggered by non-enemy %d (%s, %s)", h.id, c.Other, c.Kind, c.Faction)
	}
	return false
}

// AbsorbPowerUp applies a pickup to the ship and consumes it
func (h *Hero) AbsorbPowerUp(p *powerup.Pickup) {
	if !p.Alive {
		return
	}
	switch p.Type {
	case weapon.Shield:
		h.SetShield(h.shield + 1)
	default:
		if p.Type == h.slots[0].Type() {
			if s := h.emptySlot(); s != nil {
				h.equip(s, p.Type)
			}
		} else {
			h.clearWeapons()
			h.equip(h.slots[0], p.Type)
		}
	}
	p.OnAbsorbed(h.world)
}

func (h *Hero) equip(s *weapon.Slot, t weapon.Type) {
	if err := s.SetType(t); err != nil {
		log.Printf("hero %d: cannot equip %s: %v", h.id, t, err)
	}
}

func (h *Hero) emptySlot() *weapon.Slot {
	for _, s := range h.slots {
		if s.Type() == weapon.None {
			return s
		}
	}
	return nil
}

func (h *Hero) clearWeapons() {
	for _, s := range h.slots {
		s.SetType(weapon.None)
	}
}
