package sim

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/astroblast/server/internal/config"
	"github.com/astroblast/server/internal/core/event"
	"github.com/astroblast/server/internal/data"
)

// quietConfig pushes ambient spawning and difficulty far past the test
// horizon so scenarios stage their own collisions.
func quietConfig() *config.Config {
	cfg := testConfig()
	cfg.Spawn.BaseRate = 0.0001
	cfg.PowerUp.Interval = config.Dur(time.Hour)
	cfg.Difficulty.Delay = config.Dur(time.Hour)
	return cfg
}

func TestAdvanceFixedStepAccounting(t *testing.T) {
	s := newTestScheduler(t, quietConfig(), 1)
	half := s.cfg.Sim.TickRate.Duration / 2

	if got := s.Advance(half); got != 0 {
		t.Fatalf("half a tick of elapsed time ran %d ticks", got)
	}
	if got := s.Advance(half); got != 1 {
		t.Fatalf("accumulated full tick ran %d ticks, want 1", got)
	}
	if s.TickCount() != 1 {
		t.Fatalf("tick count = %d, want 1", s.TickCount())
	}
}

func TestAdvanceCatchUpBound(t *testing.T) {
	cfg := quietConfig()
	s := newTestScheduler(t, cfg, 1)

	// Twenty ticks of backlog, but a single Advance may only burst the cap.
	if got := s.Advance(20 * cfg.Sim.TickRate.Duration); got != cfg.Sim.MaxCatchUp {
		t.Fatalf("backlogged Advance ran %d ticks, want cap %d", got, cfg.Sim.MaxCatchUp)
	}
	// The remainder drains on the next frame.
	if got := s.Advance(0); got != cfg.Sim.MaxCatchUp {
		t.Fatalf("drain Advance ran %d ticks, want %d", got, cfg.Sim.MaxCatchUp)
	}
}

func TestAdvanceStallClamp(t *testing.T) {
	cfg := quietConfig()
	s := newTestScheduler(t, cfg, 1)

	// A host stall beyond the threshold collapses to one tick's worth
	// instead of a catch-up burst.
	if got := s.Advance(2 * time.Second); got != 1 {
		t.Fatalf("stalled Advance ran %d ticks, want 1", got)
	}
	if s.accumulator != 0 {
		t.Fatalf("accumulator after stall = %v, want 0", s.accumulator)
	}
}

func TestDeterministicReplay(t *testing.T) {
	const seed = 42
	const ticks = 600 // ten seconds of simulated play

	run := func() *Scheduler {
		s := newTestScheduler(t, testConfig(), seed)
		for i := 0; i < ticks; i++ {
			// Scripted pointer sweep, a pure function of the tick index.
			angle := float64(i) / 60
			s.SetInput(Input{
				PointerActive: true,
				PointerX:      400 + 250*math.Sin(angle),
				PointerY:      500,
			})
			s.Advance(s.cfg.Sim.TickRate.Duration)
		}
		return s
	}

	a, b := run(), run()
	if a.TickCount() != b.TickCount() {
		t.Fatalf("tick counts diverged: %d vs %d", a.TickCount(), b.TickCount())
	}
	if a.Score() != b.Score() {
		t.Fatalf("scores diverged: %d vs %d", a.Score(), b.Score())
	}
	if a.GameTime() != b.GameTime() {
		t.Fatalf("game time diverged: %v vs %v", a.GameTime(), b.GameTime())
	}
	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Fatalf("entity snapshots diverged after %d ticks", ticks)
	}
}

func TestPauseFreezesSimulation(t *testing.T) {
	s := newTestScheduler(t, quietConfig(), 1)
	reg := s.Registry()
	reg.Ship.Autofire = false

	rock := testMeteoroidTable(t).First()
	reg.SpawnMeteoroid(rock, data.SizeLarge, 200, 100, 0, 100, 0)
	stepTicks(s, 1)
	frozenY := reg.Meteoroids[0].Y
	frozenTime := s.GameTime()

	s.SetInput(Input{Paused: true})
	stepTicks(s, 5)
	if s.State() != StatePaused {
		t.Fatalf("state = %v, want paused", s.State())
	}
	if reg.Meteoroids[0].Y != frozenY {
		t.Fatalf("meteoroid moved while paused: %g -> %g", frozenY, reg.Meteoroids[0].Y)
	}
	if s.GameTime() != frozenTime {
		t.Fatalf("game time advanced while paused: %g -> %g", frozenTime, s.GameTime())
	}

	s.SetInput(Input{})
	stepTicks(s, 1)
	if s.State() != StateRunning {
		t.Fatalf("state after unpause = %v, want running", s.State())
	}
	if reg.Meteoroids[0].Y == frozenY {
		t.Fatalf("meteoroid still frozen after unpause")
	}
}

func TestShipHitOpensInvincibilityWindow(t *testing.T) {
	cfg := quietConfig()
	s := newTestScheduler(t, cfg, 1)
	reg := s.Registry()
	reg.Ship.Autofire = false

	rock := testMeteoroidTable(t).First()
	reg.SpawnMeteoroid(rock, data.SizeLarge, reg.Ship.X, reg.Ship.Y, 0, 0, 0)
	stepTicks(s, 1)
	if reg.Ship.Lives != cfg.Ship.Lives-1 {
		t.Fatalf("lives after hit = %d, want %d", reg.Ship.Lives, cfg.Ship.Lives-1)
	}
	if len(reg.Meteoroids) != 0 {
		t.Fatalf("colliding meteoroid not removed")
	}
	if !reg.Ship.Invincible(s.GameTime()) {
		t.Fatalf("no invincibility window after hit")
	}

	// A second overlap inside the window must not cost a life.
	reg.SpawnMeteoroid(rock, data.SizeLarge, reg.Ship.X, reg.Ship.Y, 0, 0, 0)
	stepTicks(s, 2)
	if reg.Ship.Lives != cfg.Ship.Lives-1 {
		t.Fatalf("lives dropped during invincibility: %d", reg.Ship.Lives)
	}
	if len(reg.Meteoroids) != 1 {
		t.Fatalf("meteoroid consumed during invincibility")
	}

	// Once the window lapses the still-overlapping meteoroid connects.
	window := int(cfg.Ship.InvincibilityWindow.Duration / cfg.Sim.TickRate.Duration)
	stepTicks(s, window+2)
	if reg.Ship.Lives != cfg.Ship.Lives-2 {
		t.Fatalf("lives after window lapsed = %d, want %d", reg.Ship.Lives, cfg.Ship.Lives-2)
	}
}

func TestGameOverAndRestart(t *testing.T) {
	cfg := quietConfig()
	s := newTestScheduler(t, cfg, 1)
	reg := s.Registry()
	reg.Ship.Autofire = false
	reg.Ship.Lives = 1

	rock := testMeteoroidTable(t).First()
	reg.SpawnMeteoroid(rock, data.SizeLarge, reg.Ship.X, reg.Ship.Y, 0, 0, 0)
	stepTicks(s, 1)
	if s.State() != StateGameOver {
		t.Fatalf("state = %v, want game over", s.State())
	}
	if reg.Ship.Alive {
		t.Fatalf("ship still alive at game over")
	}

	// The world is inert until Restart: entities hold position, time stops,
	// and further collisions resolve nothing.
	m := reg.SpawnMeteoroid(rock, data.SizeLarge, 300, 200, 0, 100, 0)
	frozenTime := s.GameTime()
	stepTicks(s, 10)
	if m.Y != 200 {
		t.Fatalf("meteoroid moved during game over: %g", m.Y)
	}
	if s.GameTime() != frozenTime {
		t.Fatalf("game time advanced during game over")
	}

	s.Restart()
	if s.State() != StateRunning {
		t.Fatalf("state after restart = %v, want running", s.State())
	}
	if s.Score() != 0 || s.GameTime() != 0 || s.TickCount() != 0 {
		t.Fatalf("restart did not zero counters: score %d, time %g, ticks %d",
			s.Score(), s.GameTime(), s.TickCount())
	}
	reg = s.Registry()
	if reg.Ship.Lives != cfg.Ship.Lives || !reg.Ship.Alive {
		t.Fatalf("ship not reset: lives %d, alive %v", reg.Ship.Lives, reg.Ship.Alive)
	}
	if len(reg.Meteoroids)+len(reg.Projectiles)+len(reg.PowerUps) != 0 {
		t.Fatalf("collections not cleared on restart")
	}
}

func TestShootingPowerUpCollectsIt(t *testing.T) {
	s := newTestScheduler(t, quietConfig(), 1)
	reg := s.Registry()
	reg.Ship.Autofire = false

	// Three projectiles in flight; only the third overlaps the power-up.
	reg.SpawnProjectile(100, 300)
	reg.SpawnProjectile(200, 300)
	reg.SpawnProjectile(400, 300)
	reg.SpawnPowerUp(PowerRapidFire, 400, 300)

	stepTicks(s, 1)
	if len(reg.PowerUps) != 0 {
		t.Fatalf("shot power-up not collected")
	}
	if len(reg.Projectiles) != 2 {
		t.Fatalf("projectiles after collection = %d, want 2", len(reg.Projectiles))
	}
	// The effect lands exactly once.
	if reg.Ship.RapidFire != 1 {
		t.Fatalf("rapid-fire level = %d, want 1", reg.Ship.RapidFire)
	}
	if reg.Ship.Barrels != 2 {
		t.Fatalf("barrels at level 1 = %d, want 2", reg.Ship.Barrels)
	}
}

func TestScoreMultiplierDoubles(t *testing.T) {
	cfg := quietConfig()
	s := newTestScheduler(t, cfg, 1)
	reg := s.Registry()
	reg.Ship.Autofire = false

	reg.SpawnPowerUp(PowerScoreMultiplier, reg.Ship.X, reg.Ship.Y)
	stepTicks(s, 1)
	if reg.Ship.MultiplierRemaining(s.GameTime()) <= 0 {
		t.Fatalf("multiplier not active after pickup")
	}

	// A one-HP pebble (score 50) destroyed under the multiplier pays double.
	pebble := s.Director().table.Get(2)
	reg.SpawnMeteoroid(pebble, data.SizeSmall, 400, 300, 0, 0, 0)
	reg.SpawnProjectile(400, 310)
	stepTicks(s, 1)
	if len(reg.Meteoroids) != 0 {
		t.Fatalf("pebble survived a lethal hit")
	}
	want := int64(float64(pebble.Score) * cfg.PowerUp.MultiplierFactor)
	if s.Score() != want {
		t.Fatalf("score = %d, want %d", s.Score(), want)
	}
}

func TestExtraLifeCappedAtMax(t *testing.T) {
	cfg := quietConfig()
	s := newTestScheduler(t, cfg, 1)
	reg := s.Registry()
	reg.Ship.Autofire = false
	reg.Ship.Lives = cfg.Ship.MaxLives

	reg.SpawnPowerUp(PowerExtraLife, reg.Ship.X, reg.Ship.Y)
	stepTicks(s, 1)
	if len(reg.PowerUps) != 0 {
		t.Fatalf("extra-life power-up not collected")
	}
	if reg.Ship.Lives != cfg.Ship.MaxLives {
		t.Fatalf("lives past cap: %d", reg.Ship.Lives)
	}
}

func TestAutofireCadenceAndBarrels(t *testing.T) {
	s := newTestScheduler(t, quietConfig(), 1)
	reg := s.Registry()

	stepTicks(s, 1)
	if len(reg.Projectiles) != 1 {
		t.Fatalf("projectiles after first tick = %d, want 1", len(reg.Projectiles))
	}
	// A single barrel fires from center.
	if reg.Projectiles[0].X != reg.Ship.X {
		t.Fatalf("single barrel fired at %g, ship at %g", reg.Projectiles[0].X, reg.Ship.X)
	}
	if reg.Ship.NextFireAt <= s.GameTime() {
		t.Fatalf("cooldown not armed after firing")
	}

	// Same tick again with the cooldown armed: no extra shot.
	stepTicks(s, 1)
	if len(reg.Projectiles) != 1 {
		t.Fatalf("fired during cooldown: %d projectiles", len(reg.Projectiles))
	}

	// At level 2 the next volley is a three-barrel spread.
	reg.Ship.applyRapidFire(2, reg.rapid)
	reg.Ship.NextFireAt = 0
	stepTicks(s, 1)
	if len(reg.Projectiles) != 4 {
		t.Fatalf("projectiles after 3-barrel volley = %d, want 4", len(reg.Projectiles))
	}
}

func TestSimultaneousHitsSpareBystanders(t *testing.T) {
	s := newTestScheduler(t, quietConfig(), 1)
	reg := s.Registry()
	reg.Ship.Autofire = false

	// One tick stages three independent hits across collections: the first
	// projectile destroys a one-HP pebble, the second collects a power-up,
	// and the third touches nothing. Removals in one collection must not
	// shift the indices another resolution step still holds.
	pebble := s.Director().table.Get(2)
	reg.SpawnProjectile(100, 310)
	reg.SpawnProjectile(400, 310)
	reg.SpawnProjectile(700, 310)
	reg.SpawnMeteoroid(pebble, data.SizeSmall, 100, 300, 0, 0, 0)
	reg.SpawnPowerUp(PowerRapidFire, 400, 300)

	stepTicks(s, 1)
	if len(reg.Meteoroids) != 0 {
		t.Fatalf("pebble survived a lethal hit")
	}
	if len(reg.PowerUps) != 0 {
		t.Fatalf("shot power-up not collected")
	}
	if len(reg.Projectiles) != 1 {
		t.Fatalf("projectiles after resolution = %d, want 1", len(reg.Projectiles))
	}
	if got := reg.Projectiles[0].X; got != 700 {
		t.Fatalf("surviving projectile at x=%g, want 700 (wrong projectile was removed)", got)
	}
	if reg.Ship.RapidFire != 1 {
		t.Fatalf("rapid-fire level = %d, want 1", reg.Ship.RapidFire)
	}
	if s.Score() != pebble.Score {
		t.Fatalf("score = %d, want %d", s.Score(), pebble.Score)
	}
}

func TestShipImpactRemovesTheRammingMeteoroid(t *testing.T) {
	cfg := quietConfig()
	s := newTestScheduler(t, cfg, 1)
	reg := s.Registry()
	reg.Ship.Autofire = false

	// The projectile destroys meteoroid 0 in the same tick that meteoroid 1
	// rams the ship; meteoroid 2 is an innocent bystander. The ship impact
	// must consume the rammer, not whatever slid into its index.
	rock := s.Director().table.First()
	pebble := s.Director().table.Get(2)
	reg.SpawnMeteoroid(pebble, data.SizeSmall, 100, 300, 0, 0, 0)
	reg.SpawnMeteoroid(rock, data.SizeLarge, reg.Ship.X, reg.Ship.Y, 0, 0, 0)
	reg.SpawnMeteoroid(pebble, data.SizeSmall, 700, 100, 0, 0, 0)
	reg.SpawnProjectile(100, 310)

	stepTicks(s, 1)
	if reg.Ship.Lives != cfg.Ship.Lives-1 {
		t.Fatalf("lives after ram = %d, want %d", reg.Ship.Lives, cfg.Ship.Lives-1)
	}
	if !reg.Ship.Invincible(s.GameTime()) {
		t.Fatalf("no invincibility window after ram")
	}
	if len(reg.Meteoroids) != 1 {
		t.Fatalf("meteoroids after resolution = %d, want 1", len(reg.Meteoroids))
	}
	if got := reg.Meteoroids[0].X; got != 700 {
		t.Fatalf("surviving meteoroid at x=%g, want the bystander at 700", got)
	}
	if s.Score() != pebble.Score {
		t.Fatalf("score = %d, want %d (ram pays nothing)", s.Score(), pebble.Score)
	}
}

func TestStaleCollisionRecordsAreSkipped(t *testing.T) {
	s := newTestScheduler(t, quietConfig(), 1)
	reg := s.Registry()
	reg.Ship.Autofire = false

	rock := s.Director().table.First()
	reg.SpawnMeteoroid(rock, data.SizeLarge, 100, 100, 0, 0, 0)
	reg.SpawnProjectile(400, 300)
	reg.SpawnPowerUp(PowerExtraLife, 200, 200)
	lives := reg.Ship.Lives

	// A set full of out-of-range indices must resolve to nothing: every
	// record is logged and skipped, no collection is touched.
	s.resolveCollisions(CollisionSet{
		ProjectileMeteoroid: []Pair{{A: 0, B: 9}},
		ShipMeteoroid:       []int{-1, 9},
		ShipPowerUp:         []int{9},
		ProjectilePowerUp:   []Pair{{A: 9, B: 9}},
	})
	if len(reg.Meteoroids) != 1 || len(reg.Projectiles) != 1 || len(reg.PowerUps) != 1 {
		t.Fatalf("stale records disturbed collections: %d meteoroids, %d projectiles, %d power-ups",
			len(reg.Meteoroids), len(reg.Projectiles), len(reg.PowerUps))
	}
	if reg.Ship.Lives != lives {
		t.Fatalf("stale ship record cost a life: %d -> %d", lives, reg.Ship.Lives)
	}

	// The session keeps ticking normally afterwards.
	stepTicks(s, 1)
	if s.State() != StateRunning {
		t.Fatalf("state after stale records = %v, want running", s.State())
	}
}

func TestTickPanicIsContained(t *testing.T) {
	s := newTestScheduler(t, quietConfig(), 1)

	var errs []event.TickError
	event.Subscribe(s.Bus(), func(e event.TickError) { errs = append(errs, e) })

	// A nil ship blows up the update stage; the tick must abort cleanly
	// instead of taking the host down.
	s.Registry().Ship = nil
	if got := s.Advance(s.cfg.Sim.TickRate.Duration); got != 1 {
		t.Fatalf("Advance ran %d ticks, want 1", got)
	}
	if len(errs) != 1 {
		t.Fatalf("tick errors delivered = %d, want 1", len(errs))
	}
	if errs[0].Err == nil {
		t.Fatalf("tick error carries no cause")
	}
}
