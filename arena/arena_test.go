package arena

import (
	"testing"

	"spaceship-shmup/entity"
	"spaceship-shmup/hero"
	"spaceship-shmup/weapon"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.EnemySpawnPerSecond = 0
	cfg.EnemySpeed = 0
	return cfg
}

func newTestArena(t *testing.T, cfg Config) *Arena {
	t.Helper()
	a, err := New(cfg, weapon.DefaultCatalog(), 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func countEvents(events []Event, kind EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestNewArenaStartsWithBlaster(t *testing.T) {
	a := newTestArena(t, testConfig())
	h := a.Hero()
	if !h.Alive() {
		t.Fatal("hero should start alive")
	}
	loadout := h.Loadout()
	if loadout[0] != weapon.Blaster {
		t.Errorf("expected blaster in slot 0, got %s", loadout[0])
	}
	for i, typ := range loadout[1:] {
		if typ != weapon.None {
			t.Errorf("slot %d: expected none, got %s", i+1, typ)
		}
	}
}

func TestNewRejectsUnknownDropType(t *testing.T) {
	cfg := testConfig()
	cfg.PowerUpFrequency = []weapon.Type{weapon.None}
	if _, err := New(cfg, weapon.DefaultCatalog(), 1); err == nil {
		t.Error("expected error for none in the drop table")
	}
	if _, err := New(testConfig(), nil, 1); err == nil {
		t.Error("expected error for nil catalog")
	}
}

func TestHeroKeptInBounds(t *testing.T) {
	a := newTestArena(t, testConfig())
	a.SetInput(hero.Input{X: 1, Y: 1})
	for i := 0; i < 200; i++ {
		a.Tick(0.05)
	}
	pos := a.Hero().Position()
	b := a.Bounds()
	if pos.X != b.HalfWidth-hero.Radius || pos.Y != b.HalfHeight-hero.Radius {
		t.Errorf("expected hero pinned to the corner, got (%v,%v)", pos.X, pos.Y)
	}
}

func TestHeroShootsEnemy(t *testing.T) {
	cfg := testConfig()
	cfg.EnemyHealth = 1
	cfg.PowerUpFrequency = []weapon.Type{weapon.Spread}
	a := newTestArena(t, cfg)
	a.SpawnEnemy(entity.Vec2{X: 0, Y: 0})
	a.SetInput(hero.Input{Fire: true})

	var events []Event
	for i := 0; i < 40; i++ {
		a.Tick(0.05)
		events = append(events, a.Events()...)
	}
	if a.EnemyCount() != 0 {
		t.Errorf("expected enemy destroyed, %d left", a.EnemyCount())
	}
	run := a.Run()
	if run.Kills != 1 || run.Score != cfg.EnemyScore {
		t.Errorf("expected 1 kill and score %d, got %d kills score %d", cfg.EnemyScore, run.Kills, run.Score)
	}
	if run.ShotsFired == 0 {
		t.Error("expected shots fired")
	}
	if countEvents(events, EventEnemyDestroyed) != 1 {
		t.Error("expected one enemy_destroyed event")
	}
	if a.PickupCount() != 1 {
		t.Fatalf("expected a dropped pickup, got %d", a.PickupCount())
	}
	snap := a.Snapshot()
	if snap.Pickups[0].Type != "spread" {
		t.Errorf("expected spread pickup, got %s", snap.Pickups[0].Type)
	}
}

func TestProjectileCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxProjectiles = 2
	a := newTestArena(t, cfg)
	shot := weapon.Shot{Type: weapon.Blaster, Faction: entity.FactionHero}
	if a.SpawnProjectile(shot) == 0 || a.SpawnProjectile(shot) == 0 {
		t.Fatal("expected projectiles under the cap to spawn")
	}
	if id := a.SpawnProjectile(shot); id != 0 {
		t.Errorf("expected spawn over the cap to be refused, got id %d", id)
	}
}

func TestNukePickupClearsEnemies(t *testing.T) {
	a := newTestArena(t, testConfig())
	a.SpawnEnemy(entity.Vec2{X: -20, Y: 30})
	a.SpawnEnemy(entity.Vec2{X: 20, Y: 30})
	if _, err := a.SpawnPickup(weapon.Nuke, a.Hero().Position()); err != nil {
		t.Fatalf("SpawnPickup: %v", err)
	}

	a.Tick(0.1)
	if a.EnemyCount() != 0 {
		t.Errorf("expected nuke to clear enemies, %d left", a.EnemyCount())
	}
	if a.PickupCount() != 0 {
		t.Error("expected pickup consumed")
	}
	events := a.Events()
	found := false
	for _, e := range events {
		if e.Kind == EventNuke {
			found = true
			if e.Count != 2 {
				t.Errorf("expected nuke count 2, got %d", e.Count)
			}
		}
	}
	if !found {
		t.Error("expected nuke event")
	}
	if got := a.Hero().Loadout()[0]; got != weapon.Nuke {
		t.Errorf("expected nuke equipped, got %s", got)
	}
	if len(a.Events()) != 0 {
		t.Error("events should be cleared after reading")
	}
}

func TestShieldIndicatorSeesSameTickPickup(t *testing.T) {
	a := newTestArena(t, testConfig())
	a.Tick(0.5)
	if a.ShieldIndicator().LevelShown != 1 {
		t.Fatalf("expected level 1, got %d", a.ShieldIndicator().LevelShown)
	}
	a.SpawnPickup(weapon.Shield, a.Hero().Position())
	a.Tick(0.5)
	if a.Hero().Shield() != 2 {
		t.Errorf("expected shield 2, got %v", a.Hero().Shield())
	}
	if a.ShieldIndicator().LevelShown != 2 {
		t.Errorf("expected indicator level 2 on the same tick, got %d", a.ShieldIndicator().LevelShown)
	}
}

func TestRestartAfterDelay(t *testing.T) {
	cfg := testConfig()
	cfg.Hero.StartShield = 0
	a := newTestArena(t, cfg)
	first := a.Hero()
	pos := first.Position()
	a.SpawnEnemy(pos)
	a.SpawnEnemy(entity.Vec2{X: pos.X + 1, Y: pos.Y})

	a.Tick(0.5)
	if first.Alive() {
		t.Fatal("hero should be destroyed")
	}
	if !a.RestartPending() {
		t.Fatal("restart should be pending")
	}
	events := a.Events()
	if n := countEvents(events, EventHeroDestroyed); n != 1 {
		t.Errorf("expected a single hero_destroyed event, got %d", n)
	}

	// restart is scheduled at 0.5 + 2
	for i := 0; i < 3; i++ {
		a.Tick(0.5)
	}
	if a.Hero() != first {
		t.Fatal("restart happened before the delay")
	}
	a.Tick(0.5)
	if a.Hero() == first {
		t.Fatal("expected a new hero after the delay")
	}
	if !a.Hero().Alive() || a.RestartPending() {
		t.Error("new hero should be alive with no restart pending")
	}
	if a.Hero().Loadout()[0] != weapon.Blaster {
		t.Error("new hero should start with blaster")
	}
	events = a.Events()
	if countEvents(events, EventRestarted) != 1 {
		t.Fatal("expected restarted event")
	}
	for _, e := range events {
		if e.Kind == EventRestarted && (e.Run == nil || e.Run.Duration != 0.5) {
			t.Errorf("expected finished run of 0.5s, got %+v", e.Run)
		}
	}
}

func TestCloseCancelsRestart(t *testing.T) {
	cfg := testConfig()
	cfg.Hero.StartShield = 0
	a := newTestArena(t, cfg)
	first := a.Hero()
	a.SpawnEnemy(first.Position())
	a.Tick(0.5)
	a.Close()
	for i := 0; i < 10; i++ {
		a.Tick(0.5)
	}
	if a.Hero() != first || a.RestartPending() {
		t.Error("closed arena should not restart")
	}
	if a.Now() != 0.5 {
		t.Errorf("closed arena should not advance, now %v", a.Now())
	}
}

func TestSnapshotEncodeDecode(t *testing.T) {
	a := newTestArena(t, testConfig())
	a.SpawnEnemy(entity.Vec2{Y: 30})
	a.SetInput(hero.Input{Fire: true})
	a.Tick(0.25)

	data, err := EncodeSnapshot(a.Snapshot())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Tick != 1 || s.Time != 0.25 {
		t.Errorf("expected tick 1 at 0.25, got %d at %v", s.Tick, s.Time)
	}
	if s.Hero.ID != uint64(a.Hero().ID()) || !s.Hero.Alive {
		t.Errorf("unexpected hero state %+v", s.Hero)
	}
	if len(s.Hero.Slots) != hero.SlotCount {
		t.Fatalf("expected %d slots, got %d", hero.SlotCount, len(s.Hero.Slots))
	}
	if s.Hero.Slots[0].Type != "blaster" || !s.Hero.Slots[0].Visible || s.Hero.Slots[1].Visible {
		t.Errorf("unexpected slots %+v", s.Hero.Slots)
	}
	if len(s.Enemies) != 1 || len(s.Projectiles) != 1 {
		t.Errorf("expected 1 enemy and 1 projectile, got %d and %d", len(s.Enemies), len(s.Projectiles))
	}
	if s.Projectiles[0].Faction != int(entity.FactionHero) {
		t.Errorf("expected hero faction projectile, got %d", s.Projectiles[0].Faction)
	}
	if s.Shield.Level != 1 || !s.Shield.TextureVisible {
		t.Errorf("unexpected shield state %+v", s.Shield)
	}
}

func TestDestroyedHeroIgnoresPickups(t *testing.T) {
	cfg := testConfig()
	cfg.Hero.StartShield = 0
	a := newTestArena(t, cfg)
	pos := a.Hero().Position()
	a.SpawnEnemy(pos)
	if _, err := a.SpawnPickup(weapon.Spread, pos); err != nil {
		t.Fatalf("SpawnPickup: %v", err)
	}

	a.Tick(0.001)
	if a.Hero().Alive() {
		t.Fatal("hero should be destroyed by the enemy")
	}
	if got := a.Hero().Loadout()[0]; got != weapon.Blaster {
		t.Errorf("dead hero should keep its loadout, got %s", got)
	}
	if a.Run().Pickups != 0 || a.PickupCount() != 1 {
		t.Errorf("pickup should stay in the world, pickups=%d left=%d", a.Run().Pickups, a.PickupCount())
	}
	if n := countEvents(a.Events(), EventPickupAbsorbed); n != 0 {
		t.Errorf("expected no pickup_absorbed events, got %d", n)
	}
}
