package sim

import (
	"testing"

	"github.com/astroblast/server/internal/data"
)

func TestRemovalGuardsRejectStaleIndices(t *testing.T) {
	reg := newTestScheduler(t, quietConfig(), 1).Registry()
	rock := testMeteoroidTable(t).First()
	reg.SpawnMeteoroid(rock, data.SizeLarge, 100, 100, 0, 0, 0)
	reg.SpawnProjectile(400, 300)
	reg.SpawnPowerUp(PowerExtraLife, 200, 200)

	kinds := []struct {
		name   string
		remove func(int) bool
		count  func() int
	}{
		{"meteoroid", reg.RemoveMeteoroid, func() int { return len(reg.Meteoroids) }},
		{"projectile", reg.RemoveProjectile, func() int { return len(reg.Projectiles) }},
		{"powerup", reg.RemovePowerUp, func() int { return len(reg.PowerUps) }},
	}
	for _, k := range kinds {
		for _, idx := range []int{-1, 1, 99} {
			if k.remove(idx) {
				t.Fatalf("%s removal accepted stale index %d", k.name, idx)
			}
			if k.count() != 1 {
				t.Fatalf("stale index %d disturbed the %s collection", idx, k.name)
			}
		}
		if !k.remove(0) {
			t.Fatalf("%s removal rejected a valid index", k.name)
		}
		if k.count() != 0 {
			t.Fatalf("%s collection not emptied by a valid removal", k.name)
		}
	}
}

func TestCompactionClearsVacatedSlots(t *testing.T) {
	s := newTestScheduler(t, quietConfig(), 1)
	reg := s.Registry()
	reg.Ship.Autofire = false
	pebble := s.Director().table.Get(2)
	below := s.cfg.Playfield.Height + 100

	// Two of three meteoroids and one of two power-ups exit through the
	// bottom this tick; the freed tail slots must not pin the instances.
	reg.SpawnMeteoroid(pebble, data.SizeSmall, 100, below, 0, 0, 0)
	reg.SpawnMeteoroid(pebble, data.SizeSmall, 200, below, 0, 0, 0)
	reg.SpawnMeteoroid(pebble, data.SizeSmall, 300, 100, 0, 0, 0)
	reg.SpawnPowerUp(PowerExtraLife, 100, below)
	reg.SpawnPowerUp(PowerExtraLife, 300, 100)

	stepTicks(s, 1)
	if len(reg.Meteoroids) != 1 || len(reg.PowerUps) != 1 {
		t.Fatalf("compaction kept %d meteoroids, %d power-ups, want 1 each",
			len(reg.Meteoroids), len(reg.PowerUps))
	}
	for i, m := range reg.Meteoroids[:3] {
		if i >= 1 && m != nil {
			t.Fatalf("meteoroid slot %d still holds an instance after compaction", i)
		}
	}
	if tail := reg.PowerUps[:2]; tail[1] != nil {
		t.Fatalf("power-up slot 1 still holds an instance after compaction")
	}
}
