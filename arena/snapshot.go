package arena

import (
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is the full visible state of a level at one tick
type Snapshot struct {
	Tick        uint64            `msgpack:"tk"`
	Time        float64           `msgpack:"t"`
	Hero        HeroState         `msgpack:"h"`
	Shield      ShieldState       `msgpack:"sh"`
	Enemies     []EnemyState      `msgpack:"e"`
	Projectiles []ProjectileState `msgpack:"pr"`
	Pickups     []PickupState     `msgpack:"pu"`
	Score       int               `msgpack:"sc"`
	Restarting  bool              `msgpack:"rs,omitempty"`
}

type HeroState struct {
	ID     uint64      `msgpack:"id"`
	X      float64     `msgpack:"x"`
	Y      float64     `msgpack:"y"`
	Pitch  float64     `msgpack:"p"`
	Roll   float64     `msgpack:"r"`
	Shield float64     `msgpack:"s"`
	Alive  bool        `msgpack:"a"`
	Slots  []SlotState `msgpack:"sl"`
}

// SlotState is the visible part of a weapon slot
type SlotState struct {
	Type    string `msgpack:"t"`
	Visible bool   `msgpack:"v"`
	Collar  string `msgpack:"c,omitempty"`
}

type ShieldState struct {
	Level          int     `msgpack:"l"`
	TextureOffset  float64 `msgpack:"o"`
	TextureVisible bool    `msgpack:"v"`
	Rotation       float64 `msgpack:"r"`
}

type EnemyState struct {
	ID uint64  `msgpack:"id"`
	X  float64 `msgpack:"x"`
	Y  float64 `msgpack:"y"`
	HP float64 `msgpack:"hp"`
}

type ProjectileState struct {
	ID      uint64  `msgpack:"id"`
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	R       float64 `msgpack:"r"`
	Type    string  `msgpack:"t"`
	Faction int     `msgpack:"f"`
}

type PickupState struct {
	ID          uint64     `msgpack:"id"`
	Type        string     `msgpack:"t"`
	Letter      string     `msgpack:"l"`
	Color       string     `msgpack:"c"`
	X           float64    `msgpack:"x"`
	Y           float64    `msgpack:"y"`
	Rotation    [3]float64 `msgpack:"r"`
	CubeAlpha   float64    `msgpack:"ca"`
	LetterAlpha float64    `msgpack:"la"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Snapshot captures the current state. Slices are ordered by ID.
func (a *Arena) Snapshot() Snapshot {
	h := a.hero
	pos := h.Position()
	s := Snapshot{
		Tick: a.ticks,
		Time: round2(a.now),
		Hero: HeroState{
			ID:     uint64(h.ID()),
			X:      round2(pos.X),
			Y:      round2(pos.Y),
			Pitch:  round2(h.Pitch()),
			Roll:   round2(h.Roll()),
			Shield: h.Shield(),
			Alive:  h.Alive(),
		},
		Shield: ShieldState{
			Level:          a.shield.LevelShown,
			TextureOffset:  a.shield.TextureOffset,
			TextureVisible: a.shield.TextureVisible,
			Rotation:       round2(a.shield.Rotation),
		},
		Score:      a.run.Score,
		Restarting: a.restartPending,
	}
	for _, sl := range h.Slots() {
		st := SlotState{Type: sl.Type().String(), Visible: sl.Visible()}
		if sl.Visible() {
			st.Collar = sl.Collar().String()
		}
		s.Hero.Slots = append(s.Hero.Slots, st)
	}
	for _, id := range sortedIDs(a.enemies) {
		s.Enemies = append(s.Enemies, a.enemies[id].ToState())
	}
	for _, id := range sortedIDs(a.projectiles) {
		s.Projectiles = append(s.Projectiles, a.projectiles[id].ToState())
	}
	for _, id := range sortedIDs(a.pickups) {
		p := a.pickups[id]
		s.Pickups = append(s.Pickups, PickupState{
			ID:          uint64(p.ID),
			Type:        p.Type.String(),
			Letter:      p.Letter,
			Color:       p.Color.String(),
			X:           round2(p.Position.X),
			Y:           round2(p.Position.Y),
			Rotation:    [3]float64{round2(p.Rotation[0]), round2(p.Rotation[1]), round2(p.Rotation[2])},
			CubeAlpha:   round2(p.CubeAlpha),
			LetterAlpha: round2(p.LetterAlpha),
		})
	}
	return s
}

// EncodeSnapshot serializes a snapshot for the wire
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return msgpack.Marshal(s)
}

// DecodeSnapshot parses a snapshot produced by EncodeSnapshot
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	err := msgpack.Unmarshal(data, &s)
	return s, err
}
