package sim

import (
	"math"

	"github.com/astroblast/server/internal/config"
	"github.com/astroblast/server/internal/data"
)

// Ship is the player entity. Created once per session (and on restart);
// everything time-based is expressed in game-time seconds so two runs with
// identical inputs stay bit-identical.
type Ship struct {
	X, Y   float64
	Radius float64
	Width  float64 // barrel spread
	Lives  int
	Alive  bool

	InvincibleUntil float64 // game-time seconds

	Autofire     bool
	NextFireAt   float64
	FireInterval float64 // seconds, from the rapid-fire table
	Barrels      int
	RapidFire    int // current rapid-fire level

	MultiplierUntil float64 // score multiplier expiry, 0 = inactive
}

func newShip(cfg *config.Config, rapid *data.RapidFireTable) *Ship {
	s := &Ship{
		X:        cfg.Playfield.Width / 2,
		Y:        cfg.Playfield.Height - cfg.Ship.Radius*3,
		Radius:   cfg.Ship.Radius,
		Width:    cfg.Ship.Width,
		Lives:    cfg.Ship.Lives,
		Alive:    true,
		Autofire: true,
	}
	s.applyRapidFire(0, rapid)
	return s
}

// applyRapidFire sets the weapon stats for a level, clamped by the table.
func (s *Ship) applyRapidFire(level int, rapid *data.RapidFireTable) {
	if level > rapid.MaxLevel() {
		level = rapid.MaxLevel()
	}
	if level < 0 {
		level = 0
	}
	row := rapid.Level(level)
	s.RapidFire = level
	s.FireInterval = row.FireInterval.Seconds()
	s.Barrels = row.Barrels
}

// Invincible reports whether the post-hit grace window is still open.
func (s *Ship) Invincible(gameTime float64) bool {
	return gameTime < s.InvincibleUntil
}

// MultiplierRemaining returns the score-multiplier time left, 0 if inactive.
func (s *Ship) MultiplierRemaining(gameTime float64) float64 {
	if s.MultiplierUntil <= gameTime {
		return 0
	}
	return s.MultiplierUntil - gameTime
}

func (s *Ship) circle() Circle {
	return Circle{X: s.X, Y: s.Y, Radius: s.Radius}
}

// steer integrates one tick of movement from the input snapshot and clamps
// the ship fully inside the playfield.
func (s *Ship) steer(in Input, cfg *config.Config, dt float64) {
	if in.PointerActive {
		dx := in.PointerX - s.X
		dy := in.PointerY - s.Y
		dist := math.Hypot(dx, dy)
		if dist > cfg.Ship.PointerDeadZone {
			// Speed scales with remaining distance, so the ship decelerates
			// into the target instead of orbiting it.
			step := cfg.Ship.PointerSpeed * dist * dt
			if step > dist {
				step = dist
			}
			s.X += dx / dist * step
			s.Y += dy / dist * step
		}
	} else {
		s.X += in.MoveX * cfg.Ship.MoveSpeed * dt
		s.Y += in.MoveY * cfg.Ship.MoveSpeed * dt
	}

	if s.X < s.Radius {
		s.X = s.Radius
	}
	if max := cfg.Playfield.Width - s.Radius; s.X > max {
		s.X = max
	}
	if s.Y < s.Radius {
		s.Y = s.Radius
	}
	if max := cfg.Playfield.Height - s.Radius; s.Y > max {
		s.Y = max
	}
}

// barrelOffsets returns the horizontal muzzle offsets for the current barrel
// count, evenly spaced across the ship width (a single barrel fires from
// center).
func (s *Ship) barrelOffsets() []float64 {
	offsets := make([]float64, s.Barrels)
	for i := 0; i < s.Barrels; i++ {
		offsets[i] = (float64(i)+0.5)/float64(s.Barrels)*s.Width - s.Width/2
	}
	return offsets
}
