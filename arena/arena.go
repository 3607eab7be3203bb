// Package arena runs one level: the hero, the enemies it fights and the
// projectiles and pickups between them. It is the composition root for the
// core packages and advances them in a fixed order once per tick.
package arena

import (
	"errors"
	"log"
	"math/rand"
	"sort"
	"time"

	"spaceship-shmup/entity"
	"spaceship-shmup/hero"
	"spaceship-shmup/powerup"
	"spaceship-shmup/weapon"
)

// Config holds the level tunables
type Config struct {
	Width  float64
	Height float64

	Hero   hero.Config
	Pickup powerup.Config

	EnemySpawnPerSecond float64
	EnemySpeed          float64
	EnemyHealth         float64
	EnemyRadius         float64
	EnemyScore          int

	PowerUpDropChance float64
	PowerUpFrequency  []weapon.Type // drop table, picked uniformly

	ShieldRotation float64 // indicator revolutions per second
	MaxProjectiles int
}

// DefaultConfig returns the standard level setup
func DefaultConfig() Config {
	return Config{
		Width:               64,
		Height:              80,
		Hero:                hero.DefaultConfig(),
		Pickup:              powerup.DefaultConfig(),
		EnemySpawnPerSecond: 0.5,
		EnemySpeed:          10,
		EnemyHealth:         4,
		EnemyRadius:         2,
		EnemyScore:          100,
		PowerUpDropChance:   1,
		PowerUpFrequency: []weapon.Type{
			weapon.Blaster, weapon.Blaster, weapon.Spread, weapon.Shield,
		},
		ShieldRotation: hero.DefaultShieldRotSpeed,
		MaxProjectiles: 500,
	}
}

// Arena is one running level. It is not safe for concurrent use.
type Arena struct {
	cfg     Config
	catalog *weapon.Catalog
	rng     *rand.Rand
	bounds  Bounds
	grid    *Grid

	now    float64
	ticks  uint64
	nextID entity.ID

	hero   *hero.Hero
	shield *hero.ShieldIndicator
	input  hero.Input

	enemies     map[entity.ID]*Enemy
	projectiles map[entity.ID]*Projectile
	pickups     map[entity.ID]*powerup.Pickup

	enemyTimer     float64
	restartPending bool
	restartAt      float64
	closed         bool

	run        RunStats
	events     []Event
	candidates []entity.ID // broad-phase scratch
}

// New creates a level with a fresh hero. A zero seed uses the current time.
func New(cfg Config, catalog *weapon.Catalog, seed int64) (*Arena, error) {
	if catalog == nil {
		return nil, errors.New("arena: nil weapon catalog")
	}
	for _, t := range cfg.PowerUpFrequency {
		if _, err := catalog.Lookup(t); err != nil {
			return nil, err
		}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	a := &Arena{
		cfg:         cfg,
		catalog:     catalog,
		rng:         rand.New(rand.NewSource(seed)),
		bounds:      Bounds{HalfWidth: cfg.Width / 2, HalfHeight: cfg.Height / 2},
		enemies:     make(map[entity.ID]*Enemy),
		projectiles: make(map[entity.ID]*Projectile),
		pickups:     make(map[entity.ID]*powerup.Pickup),
	}
	a.grid = NewGrid(a.bounds, GridCellSize)
	a.shield = hero.NewShieldIndicator(nil, cfg.ShieldRotation)
	if err := a.spawnHero(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Arena) newID() entity.ID {
	a.nextID++
	return a.nextID
}

func (a *Arena) spawnHero() error {
	h, err := hero.New(a.newID(), a.cfg.Hero, a.catalog, a)
	if err != nil {
		return err
	}
	h.SetPosition(entity.Vec2{Y: -a.bounds.HalfHeight / 2})
	a.hero = h
	a.shield.SetSource(h)
	a.run = RunStats{StartedAt: a.now}
	return nil
}

// Now returns the simulation clock in seconds
func (a *Arena) Now() float64 { return a.now }

// Hero returns the current ship
func (a *Arena) Hero() *hero.Hero { return a.hero }

// ShieldIndicator returns the shield display state
func (a *Arena) ShieldIndicator() *hero.ShieldIndicator { return a.shield }

// Bounds returns the play area
func (a *Arena) Bounds() Bounds { return a.bounds }

// Run returns the stats of the run in progress
func (a *Arena) Run() RunStats { return a.run }

// RestartPending reports whether a restart is scheduled
func (a *Arena) RestartPending() bool { return a.restartPending }

// EnemyCount, ProjectileCount and PickupCount report live object counts
func (a *Arena) EnemyCount() int      { return len(a.enemies) }
func (a *Arena) ProjectileCount() int { return len(a.projectiles) }
func (a *Arena) PickupCount() int     { return len(a.pickups) }

// SetInput stores the controls applied on following ticks
func (a *Arena) SetInput(in hero.Input) { a.input = in }

// Close tears the level down. A pending restart is dropped.
func (a *Arena) Close() {
	a.closed = true
	a.restartPending = false
}

// Events returns and clears the events raised since the last call
func (a *Arena) Events() []Event {
	ev := a.events
	a.events = nil
	return ev
}

func (a *Arena) emit(e Event) {
	e.Time = a.now
	a.events = append(a.events, e)
}

// Tick advances the level by dt seconds. Contacts are resolved before the
// hero fires and before the shield display reads the level.
func (a *Arena) Tick(dt float64) {
	if a.closed {
		return
	}
	a.now += dt
	a.ticks++
	now := a.now
	h := a.hero

	if h.Alive() {
		h.Move(a.input, dt)
		h.SetPosition(a.bounds.Keep(h.Position(), hero.Radius))
	}
	for id, p := range a.projectiles {
		p.Update(dt)
		if !a.bounds.OnScreen(p.Pos, ProjectileRadius) {
			delete(a.projectiles, id)
		}
	}
	for id, e := range a.enemies {
		e.Update(dt)
		if e.Pos.Y+e.Radius < -a.bounds.HalfHeight {
			delete(a.enemies, id)
		}
	}

	a.checkHeroContacts()
	a.checkProjectileHits()

	if h.Alive() && a.input.Fire {
		a.run.ShotsFired += h.Fire(now)
	}
	a.shield.Update(now)

	for id, p := range a.pickups {
		if !p.Tick(now, dt, a.bounds) {
			delete(a.pickups, id)
		}
	}

	a.spawnEnemies(dt)

	if a.restartPending && now >= a.restartAt {
		a.restart()
	}
}

// sortedIDs gives contact handling a stable order
func sortedIDs[T any](m map[entity.ID]T) []entity.ID {
	ids := make([]entity.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// checkHeroContacts stops at the contact that destroys the hero, so a dead
// ship never absorbs pickups.
func (a *Arena) checkHeroContacts() {
	h := a.hero
	pos := h.Position()
	for _, id := range sortedIDs(a.enemies) {
		if !h.Alive() {
			return
		}
		e := a.enemies[id]
		if !CheckCollision(pos, hero.Radius, e.Pos, e.Radius) {
			continue
		}
		if h.OnContact(hero.Contact{Other: id, Kind: entity.KindEnemy, Faction: entity.FactionEnemy}) {
			delete(a.enemies, id)
		}
	}
	for _, id := range sortedIDs(a.pickups) {
		if !h.Alive() {
			return
		}
		p := a.pickups[id]
		if !CheckCollision(pos, hero.Radius, p.Position, powerup.Radius) {
			continue
		}
		h.OnContact(hero.Contact{Other: id, Kind: entity.KindPowerUp, Faction: entity.FactionNeutral, Pickup: p})
		if !p.Alive {
			delete(a.pickups, id)
			a.run.Pickups++
			a.emit(Event{Kind: EventPickupAbsorbed, ID: id, Weapon: p.Type})
		}
	}
	for _, id := range sortedIDs(a.projectiles) {
		if !h.Alive() {
			return
		}
		p := a.projectiles[id]
		if p.Faction != entity.FactionEnemy || !CheckCollision(pos, hero.Radius, p.Pos, ProjectileRadius) {
			continue
		}
		h.OnContact(hero.Contact{Other: id, Kind: entity.KindProjectile, Faction: p.Faction})
		delete(a.projectiles, id)
	}
}

func (a *Arena) checkProjectileHits() {
	if len(a.enemies) == 0 {
		return
	}
	a.grid.Clear()
	for id, e := range a.enemies {
		a.grid.Insert(e.Pos, e.Radius, id)
	}
	for _, pid := range sortedIDs(a.projectiles) {
		p := a.projectiles[pid]
		if p.Faction != entity.FactionHero {
			continue
		}
		a.candidates = a.grid.QueryBuf(p.Pos, ProjectileRadius, a.candidates[:0])
		sort.Slice(a.candidates, func(i, j int) bool { return a.candidates[i] < a.candidates[j] })
		for i, eid := range a.candidates {
			if i > 0 && eid == a.candidates[i-1] {
				continue
			}
			e, ok := a.enemies[eid]
			if !ok || !CheckCollision(p.Pos, ProjectileRadius, e.Pos, e.Radius) {
				continue
			}
			delete(a.projectiles, pid)
			if e.TakeDamage(p.Damage) {
				a.shipDestroyed(e)
			}
			break
		}
	}
}

// shipDestroyed scores a kill and rolls the pickup drop
func (a *Arena) shipDestroyed(e *Enemy) {
	delete(a.enemies, e.ID)
	a.run.Kills++
	a.run.Score += e.Score
	a.emit(Event{Kind: EventEnemyDestroyed, ID: e.ID})

	if len(a.cfg.PowerUpFrequency) == 0 || a.rng.Float64() > a.cfg.PowerUpDropChance {
		return
	}
	t := a.cfg.PowerUpFrequency[a.rng.Intn(len(a.cfg.PowerUpFrequency))]
	a.SpawnPickup(t, e.Pos)
}

// SpawnPickup drops a pickup of type t at pos
func (a *Arena) SpawnPickup(t weapon.Type, pos entity.Vec2) (entity.ID, error) {
	def, err := a.catalog.Lookup(t)
	if err != nil {
		return 0, err
	}
	p, err := powerup.New(a.newID(), def, pos, a.now, a.cfg.Pickup, a.rng)
	if err != nil {
		return 0, err
	}
	a.pickups[p.ID] = p
	return p.ID, nil
}

// SpawnEnemy places an enemy at pos
func (a *Arena) SpawnEnemy(pos entity.Vec2) entity.ID {
	e := NewEnemy(a.newID(), pos, a.cfg)
	a.enemies[e.ID] = e
	return e.ID
}

func (a *Arena) spawnEnemies(dt float64) {
	if a.cfg.EnemySpawnPerSecond <= 0 || !a.hero.Alive() {
		return
	}
	a.enemyTimer += dt
	interval := 1 / a.cfg.EnemySpawnPerSecond
	for a.enemyTimer >= interval {
		a.enemyTimer -= interval
		r := a.cfg.EnemyRadius
		x := -a.bounds.HalfWidth + r + a.rng.Float64()*(a.cfg.Width-2*r)
		a.SpawnEnemy(entity.Vec2{X: x, Y: a.bounds.HalfHeight + r})
	}
}

// SpawnProjectile implements weapon.Spawner
func (a *Arena) SpawnProjectile(s weapon.Shot) entity.ID {
	if a.cfg.MaxProjectiles > 0 && len(a.projectiles) >= a.cfg.MaxProjectiles {
		return 0
	}
	p := NewProjectile(a.newID(), s)
	a.projectiles[p.ID] = p
	return p.ID
}

// DestroyAllEnemies implements powerup.Effects
func (a *Arena) DestroyAllEnemies() {
	n := len(a.enemies)
	for id := range a.enemies {
		delete(a.enemies, id)
	}
	a.emit(Event{Kind: EventNuke, Count: n})
}

// DelayedRestart implements hero.Restarter. Only the first request of a run
// is honored; it can only be cancelled by Close.
func (a *Arena) DelayedRestart(delay float64) {
	if a.restartPending || a.closed {
		return
	}
	a.restartPending = true
	a.restartAt = a.now + delay
	a.run.Duration = a.now - a.run.StartedAt
	a.run.Weapon = a.hero.Loadout()[0]
	a.emit(Event{Kind: EventHeroDestroyed, ID: a.hero.ID(), RestartIn: delay})
}

func (a *Arena) restart() {
	a.restartPending = false
	ended := a.run
	for id := range a.enemies {
		delete(a.enemies, id)
	}
	for id := range a.projectiles {
		delete(a.projectiles, id)
	}
	for id := range a.pickups {
		delete(a.pickups, id)
	}
	a.enemyTimer = 0
	if err := a.spawnHero(); err != nil {
		// the catalog was validated when the first hero spawned
		log.Printf("arena: restart failed: %v", err)
		return
	}
	log.Printf("arena: restarted after run with score %d", ended.Score)
	a.emit(Event{Kind: EventRestarted, ID: a.hero.ID(), Run: &ended})
}
