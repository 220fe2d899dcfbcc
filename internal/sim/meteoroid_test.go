package sim

import (
	"testing"

	"github.com/astroblast/server/internal/data"
)

func TestMeteoroidDamageAndHP(t *testing.T) {
	rock := testMeteoroidTable(t).First()
	m := &Meteoroid{Type: rock, Size: data.SizeLarge}

	if got := m.HP(0); got != 3 {
		t.Fatalf("fresh large rock HP = %d, want 3", got)
	}
	if m.TakeDamage(1, 0) {
		t.Fatalf("destroyed after 1 damage with 3 HP")
	}
	if m.TakeDamage(1, 0) {
		t.Fatalf("destroyed after 2 damage with 3 HP")
	}
	if !m.TakeDamage(1, 0) {
		t.Fatalf("not destroyed after 3 damage with 3 HP")
	}
	if m.HP(0) > 0 {
		t.Fatalf("destroyed meteoroid reports HP %d > 0", m.HP(0))
	}
}

func TestMeteoroidHPBonusAppliesLive(t *testing.T) {
	rock := testMeteoroidTable(t).First()
	m := &Meteoroid{Type: rock, Size: data.SizeMedium} // base 2 HP
	m.TakeDamage(1, 0)

	// The difficulty bonus raises effective max HP of in-flight meteoroids.
	if got := m.HP(2); got != 3 {
		t.Fatalf("HP under +2 bonus = %d, want 3", got)
	}
	if m.Destroyed(2) {
		t.Fatalf("meteoroid destroyed despite live HP bonus")
	}
	if !m.TakeDamage(3, 2) {
		t.Fatalf("meteoroid survived damage past boosted max")
	}
}

func TestSplitIsSizeMonotonic(t *testing.T) {
	rock := testMeteoroidTable(t).First()

	large, ok := rock.SplitFor(data.SizeLarge)
	if !ok {
		t.Fatalf("large rock has no split rule")
	}
	if large.Child != data.SizeMedium {
		t.Fatalf("large splits into %v, want medium", large.Child)
	}
	medium, ok := rock.SplitFor(data.SizeMedium)
	if !ok {
		t.Fatalf("medium rock has no split rule")
	}
	if medium.Child != data.SizeSmall {
		t.Fatalf("medium splits into %v, want small", medium.Child)
	}
	if _, ok := rock.SplitFor(data.SizeSmall); ok {
		t.Fatalf("small must be terminal")
	}
}

func TestSpawnSplitChildren(t *testing.T) {
	cfg := testConfig()
	s := newTestScheduler(t, cfg, 7)
	reg := s.Registry()
	rock := testMeteoroidTable(t).First()

	parent := reg.SpawnMeteoroid(rock, data.SizeLarge, 400, 200, 0, 100, 0)
	reg.RemoveMeteoroid(0)

	n := s.Director().SpawnSplitChildren(reg, parent)
	if n != 2 {
		t.Fatalf("split children = %d, want 2", n)
	}
	if len(reg.Meteoroids) != 2 {
		t.Fatalf("live meteoroids after split = %d, want 2", len(reg.Meteoroids))
	}
	for i, child := range reg.Meteoroids {
		if child.Size != data.SizeMedium {
			t.Fatalf("child %d size = %v, want medium", i, child.Size)
		}
		if child.X != parent.X || child.Y != parent.Y {
			t.Fatalf("child %d spawned at (%g, %g), want parent position (%g, %g)",
				i, child.X, child.Y, parent.X, parent.Y)
		}
	}

	// Terminal size: no children.
	small := reg.Meteoroids[0]
	small.Size = data.SizeSmall
	if n := s.Director().SpawnSplitChildren(reg, small); n != 0 {
		t.Fatalf("small split children = %d, want 0", n)
	}
}

func TestMeteoroidOffscreen(t *testing.T) {
	m := &Meteoroid{X: 400, Y: 650, Radius: 20}
	if !m.offscreen(800, 600, 60) {
		t.Fatalf("meteoroid below bottom edge not flagged offscreen")
	}
	m = &Meteoroid{X: 400, Y: 500, Radius: 20}
	if m.offscreen(800, 600, 60) {
		t.Fatalf("on-screen meteoroid flagged offscreen")
	}

	// Side exits only count for drifting meteoroids.
	m = &Meteoroid{X: -70, Y: 300, Radius: 20, VX: -30}
	if !m.offscreen(800, 600, 60) {
		t.Fatalf("drifting meteoroid past left margin not flagged")
	}
	m = &Meteoroid{X: -70, Y: 300, Radius: 20, VX: 0}
	if m.offscreen(800, 600, 60) {
		t.Fatalf("straight faller flagged for side exit")
	}
}
