package arena

import (
	"spaceship-shmup/entity"
	"spaceship-shmup/weapon"
)

type EventKind int

const (
	EventEnemyDestroyed EventKind = iota + 1
	EventPickupAbsorbed
	EventNuke
	EventHeroDestroyed
	EventRestarted
)

var eventNames = map[EventKind]string{
	EventEnemyDestroyed: "enemy_destroyed",
	EventPickupAbsorbed: "pickup_absorbed",
	EventNuke:           "nuke",
	EventHeroDestroyed:  "hero_destroyed",
	EventRestarted:      "restarted",
}

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return "unknown"
}

// Event is something that happened during a tick that the host may want to
// relay or persist
type Event struct {
	Kind      EventKind
	Time      float64
	ID        entity.ID
	Weapon    weapon.Type
	Count     int       // enemies cleared by a nuke
	RestartIn float64   // seconds until restart, on hero destruction
	Run       *RunStats // the finished run, on restart
}

// RunStats summarizes one life of the hero
type RunStats struct {
	StartedAt  float64
	Duration   float64
	Score      int
	Kills      int
	ShotsFired int
	Pickups    int
	Weapon     weapon.Type // primary weapon when the run ended
}
