package hero

import (
	"testing"

	"spaceship-shmup/entity"
	"spaceship-shmup/powerup"
	"spaceship-shmup/weapon"
)

// fakeWorld records everything the ship asks of its surroundings
type fakeWorld struct {
	shots    []weapon.Shot
	restarts []float64
	nukes    int
}

func (w *fakeWorld) SpawnProjectile(s weapon.Shot) entity.ID {
	w.shots = append(w.shots, s)
	return entity.ID(len(w.shots))
}

func (w *fakeWorld) DelayedRestart(delay float64) { w.restarts = append(w.restarts, delay) }
func (w *fakeWorld) DestroyAllEnemies()           { w.nukes++ }

type halfRand struct{}

func (halfRand) Float64() float64 { return 0.5 }

func newTestHero(t *testing.T) (*Hero, *fakeWorld) {
	t.Helper()
	w := &fakeWorld{}
	h, err := New(1, DefaultConfig(), weapon.DefaultCatalog(), w)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h, w
}

var nextPickupID entity.ID = 100

func pickup(t *testing.T, typ weapon.Type) *powerup.Pickup {
	t.Helper()
	def, err := weapon.DefaultCatalog().Lookup(typ)
	if err != nil {
		t.Fatal(err)
	}
	nextPickupID++
	p, err := powerup.New(nextPickupID, def, entity.Vec2{}, 0, powerup.DefaultConfig(), halfRand{})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func absorb(h *Hero, p *powerup.Pickup) {
	h.OnContact(Contact{Other: p.ID, Kind: entity.KindPowerUp, Faction: entity.FactionNeutral, Pickup: p})
}

func ram(h *Hero, id entity.ID) bool {
	return h.OnContact(Contact{Other: id, Kind: entity.KindEnemy, Faction: entity.FactionEnemy})
}

func TestNewHeroLoadout(t *testing.T) {
	h, _ := newTestHero(t)
	loadout := h.Loadout()
	if len(loadout) != SlotCount {
		t.Fatalf("expected %d slots, got %d", SlotCount, len(loadout))
	}
	if loadout[0] != weapon.Blaster {
		t.Errorf("slot 0 should start as blaster, got %s", loadout[0])
	}
	for i, typ := range loadout[1:] {
		if typ != weapon.None {
			t.Errorf("slot %d should start empty, got %s", i+1, typ)
		}
	}
	if h.Shield() != 1 {
		t.Errorf("expected start shield 1, got %f", h.Shield())
	}
}

func TestShieldClamp(t *testing.T) {
	h, _ := newTestHero(t)
	h.SetShield(3)
	for i := 0; i < 5; i++ {
		absorb(h, pickup(t, weapon.Shield))
	}
	if h.Shield() != MaxShieldLevel {
		t.Errorf("expected shield %d, got %f", MaxShieldLevel, h.Shield())
	}
	h.SetShield(10)
	if h.Shield() != MaxShieldLevel {
		t.Errorf("direct set should clamp too, got %f", h.Shield())
	}
}

func TestEnemyContactDecrements(t *testing.T) {
	h, _ := newTestHero(t)
	h.SetShield(3)
	if !ram(h, 10) {
		t.Error("enemy contact should report the enemy consumed")
	}
	if h.Shield() != 2 {
		t.Errorf("expected shield 2, got %f", h.Shield())
	}
}

func TestRepeatContactSuppressed(t *testing.T) {
	h, _ := newTestHero(t)
	h.SetShield(3)
	ram(h, 10)
	if ram(h, 10) {
		t.Error("repeat contact should be ignored")
	}
	if h.Shield() != 2 {
		t.Errorf("repeat contact should not decrement, got %f", h.Shield())
	}
	ram(h, 11)
	if h.Shield() != 1 {
		t.Errorf("distinct contact should decrement, got %f", h.Shield())
	}
}

func TestDestructionOnce(t *testing.T) {
	h, w := newTestHero(t)
	// 1 -> 0 -> -1 -> -2 inside one tick
	ram(h, 10)
	ram(h, 11)
	ram(h, 12)
	if !h.Destroyed() || h.Alive() {
		t.Error("ship should be destroyed")
	}
	if len(w.restarts) != 1 {
		t.Fatalf("expected exactly one restart, got %d", len(w.restarts))
	}
	if w.restarts[0] != DefaultConfig().RestartDelay {
		t.Errorf("expected restart delay %f, got %f", DefaultConfig().RestartDelay, w.restarts[0])
	}
	h.SetShield(-5)
	if len(w.restarts) != 1 {
		t.Error("further negative sets should not reschedule")
	}
	if h.Fire(100) != 0 {
		t.Error("destroyed ship should not fire")
	}
}

func TestDestructionFromOneByTwoContacts(t *testing.T) {
	h, w := newTestHero(t)
	h.SetShield(1)
	ram(h, 20)
	ram(h, 21)
	ram(h, 22)
	if h.Shield() != -2 {
		t.Errorf("expected shield -2, got %f", h.Shield())
	}
	if len(w.restarts) != 1 {
		t.Errorf("expected one restart, got %d", len(w.restarts))
	}
}

func TestSameTypePickupAddsSlot(t *testing.T) {
	h, _ := newTestHero(t)
	absorb(h, pickup(t, weapon.Blaster))
	got := h.Loadout()
	if got[0] != weapon.Blaster || got[1] != weapon.Blaster {
		t.Errorf("expected second blaster slot, got %v", got)
	}
	for _, typ := range got[2:] {
		if typ != weapon.None {
			t.Errorf("only one extra slot should activate, got %v", got)
		}
	}
}

func TestSameTypePickupFullLoadout(t *testing.T) {
	h, _ := newTestHero(t)
	for i := 0; i < SlotCount-1; i++ {
		absorb(h, pickup(t, weapon.Blaster))
	}
	before := h.Loadout()
	for _, typ := range before {
		if typ != weapon.Blaster {
			t.Fatalf("loadout should be full of blasters, got %v", before)
		}
	}
	shield := h.Shield()
	p := pickup(t, weapon.Blaster)
	absorb(h, p)
	if h.Shield() != shield {
		t.Errorf("expected shield to stay %v, got %v", shield, h.Shield())
	}
	after := h.Loadout()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("full loadout should not change: %v -> %v", before, after)
		}
	}
	if p.Alive {
		t.Error("pickup should be consumed even with no free slot")
	}
}

func TestDifferentTypePickupResets(t *testing.T) {
	h, _ := newTestHero(t)
	absorb(h, pickup(t, weapon.Blaster))
	absorb(h, pickup(t, weapon.Blaster))
	absorb(h, pickup(t, weapon.Spread))
	got := h.Loadout()
	if got[0] != weapon.Spread {
		t.Errorf("slot 0 should switch to spread, got %s", got[0])
	}
	for i, typ := range got[1:] {
		if typ != weapon.None {
			t.Errorf("slot %d should be cleared, got %s", i+1, typ)
		}
	}
}

func TestNukePickupTriggersWorldEffect(t *testing.T) {
	h, w := newTestHero(t)
	absorb(h, pickup(t, weapon.Nuke))
	if w.nukes != 1 {
		t.Errorf("expected one nuke, got %d", w.nukes)
	}
	if h.Loadout()[0] != weapon.Nuke {
		t.Errorf("nuke should become the primary weapon, got %s", h.Loadout()[0])
	}
}

func TestAbsorbedPickupIgnoredTwice(t *testing.T) {
	h, _ := newTestHero(t)
	h.SetShield(1)
	p := pickup(t, weapon.Shield)
	h.AbsorbPowerUp(p)
	h.AbsorbPowerUp(p)
	if h.Shield() != 2 {
		t.Errorf("double absorption should apply once, got %f", h.Shield())
	}
}

func TestFireAllSlots(t *testing.T) {
	h, w := newTestHero(t)
	absorb(h, pickup(t, weapon.Blaster))
	if n := h.Fire(1); n != 2 {
		t.Errorf("two blaster slots should fire 2 shots, got %d", n)
	}
	if len(w.shots) != 2 || w.shots[0].Position == w.shots[1].Position {
		t.Errorf("shots should leave from distinct muzzles: %+v", w.shots)
	}
	for _, s := range w.shots {
		if s.Faction != entity.FactionHero {
			t.Errorf("shot should be tagged hero, got %s", s.Faction)
		}
	}
}

func TestMove(t *testing.T) {
	h, _ := newTestHero(t)
	h.Move(Input{X: 1, Y: -1}, 0.5)
	cfg := DefaultConfig()
	want := entity.Vec2{X: cfg.Speed * 0.5, Y: -cfg.Speed * 0.5}
	if h.Position() != want {
		t.Errorf("expected %v, got %v", want, h.Position())
	}
	if h.Pitch() != -cfg.PitchMult || h.Roll() != cfg.RollMult {
		t.Errorf("unexpected tilt pitch %f roll %f", h.Pitch(), h.Roll())
	}
}

func TestNonEnemyContactIgnored(t *testing.T) {
	h, _ := newTestHero(t)
	before := h.Shield()
	if h.OnContact(Contact{Other: 50, Kind: entity.KindProjectile, Faction: entity.FactionEnemy}) {
		t.Error("projectile contact should not report an enemy")
	}
	if h.Shield() != before {
		t.Error("non-enemy contact should not change the shield")
	}
}
