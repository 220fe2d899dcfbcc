package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/astroblast/server/internal/config"
	"github.com/astroblast/server/internal/core/event"
	coresys "github.com/astroblast/server/internal/core/system"
	"github.com/astroblast/server/internal/data"
	"github.com/astroblast/server/internal/scripting"
	"go.uber.org/zap"
)

// State is the scheduler's session state.
type State uint8

const (
	StateRunning State = iota
	StatePaused        // held only while the pause input is active
	StateGameOver      // terminal until Restart
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateGameOver:
		return "game_over"
	}
	return "unknown"
}

// Scheduler is the fixed-step simulation loop. It owns one instance of
// every pool, registry and director — no ambient globals — and passes
// references down to whichever stage needs them.
//
// Advance is pure in elapsed-time terms: two schedulers fed the same seed
// and the same input/elapsed sequence produce bit-identical entity state.
type Scheduler struct {
	cfg      *config.Config
	registry *Registry
	director *Director
	runner   *coresys.Runner
	bus      *event.Bus
	waves    *scripting.Engine // nil = no wave scripts
	log      *zap.Logger

	state       State
	accumulator time.Duration
	gameTime    float64 // seconds of simulated game time
	tickCount   uint64
	score       int64

	pending Input // written by SetInput, latched at tick start
	input   Input // snapshot the current tick runs against

	lastWaveSecond int
}

// Options carries the scheduler's optional collaborators.
type Options struct {
	Logger *zap.Logger
	Bus    *event.Bus
	Rand   *rand.Rand
	Waves  *scripting.Engine
}

func NewScheduler(cfg *config.Config, meteoroids *data.MeteoroidTable, rapid *data.RapidFireTable, opts Options) *Scheduler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	bus := opts.Bus
	if bus == nil {
		bus = event.NewBus()
	}
	rng := opts.Rand
	if rng == nil {
		seed := cfg.Sim.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	s := &Scheduler{
		cfg:      cfg,
		registry: NewRegistry(cfg, rapid, bus, log),
		bus:      bus,
		waves:    opts.Waves,
		log:      log,
		runner:   coresys.NewRunner(),
	}
	s.director = NewDirector(cfg, meteoroids, rng, log)

	s.runner.Register(&inputSystem{s})
	s.runner.Register(&updateSystem{s})
	s.runner.Register(&spawnSystem{s})
	s.runner.Register(&collideSystem{s})
	s.runner.Register(&cleanupSystem{s})
	return s
}

// Bus returns the event bus collaborators subscribe on.
func (s *Scheduler) Bus() *event.Bus { return s.bus }

// Registry exposes the live collections (rendering reads them through
// Snapshot; tests reach in directly).
func (s *Scheduler) Registry() *Registry { return s.registry }

// Director exposes spawn/difficulty state for diagnostics.
func (s *Scheduler) Director() *Director { return s.director }

func (s *Scheduler) State() State       { return s.state }
func (s *Scheduler) Score() int64       { return s.score }
func (s *Scheduler) GameTime() float64  { return s.gameTime }
func (s *Scheduler) TickCount() uint64  { return s.tickCount }

// SetInput stores the next input snapshot. Device callbacks may call this
// at any rate; the scheduler polls it exactly once per tick.
func (s *Scheduler) SetInput(in Input) {
	s.pending = in
}

// Advance accumulates elapsed wall time and runs zero or more fixed ticks,
// bounded by the catch-up cap. A stalled host (accumulator beyond the stall
// threshold) is clamped to a single tick's worth instead of bursting.
// Returns the number of ticks executed.
func (s *Scheduler) Advance(elapsed time.Duration) int {
	tick := s.cfg.Sim.TickRate.Duration
	s.accumulator += elapsed
	if s.accumulator > s.cfg.Sim.StallThreshold.Duration {
		s.accumulator = tick
	}
	ticks := 0
	for s.accumulator >= tick && ticks < s.cfg.Sim.MaxCatchUp {
		s.runTick(tick)
		s.accumulator -= tick
		ticks++
	}
	return ticks
}

// runTick executes exactly one fixed tick under a recovery guard: a single
// bad tick logs, emits TickError, and the session resumes on the next
// frame instead of crashing out.
func (s *Scheduler) runTick(dt time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("tick %d panic: %v", s.tickCount, r)
			s.log.Error("tick aborted", zap.Uint64("tick", s.tickCount), zap.Any("panic", r))
			event.Emit(s.bus, event.TickError{Err: err})
			s.bus.DispatchAll()
		}
	}()
	s.runner.Tick(dt)
}

// Restart performs the full synchronous reset out of GameOver (or any
// state): registries, pools, difficulty, score and timers all return to
// start-of-session values.
func (s *Scheduler) Restart() {
	s.registry.Reset()
	s.director.Reset()
	s.bus.Clear()
	s.state = StateRunning
	s.accumulator = 0
	s.gameTime = 0
	s.tickCount = 0
	s.score = 0
	s.lastWaveSecond = 0
	s.log.Info("session restarted")
}

// addScore applies the active multiplier and emits the score event.
func (s *Scheduler) addScore(delta int64) {
	if delta == 0 {
		return
	}
	if s.registry.Ship.MultiplierRemaining(s.gameTime) > 0 {
		delta = int64(float64(delta) * s.cfg.PowerUp.MultiplierFactor)
	}
	s.score += delta
	event.Emit(s.bus, event.ScoreChanged{Delta: delta, Total: s.score})
}

// ── Tick pipeline systems ─────────────────────────────────────────

// inputSystem latches the pending input snapshot and drives the transient
// pause state. GameOver is terminal here: only Restart leaves it.
type inputSystem struct{ s *Scheduler }

func (y *inputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (y *inputSystem) Update(_ time.Duration) {
	s := y.s
	s.input = s.pending.Normalized()
	switch s.state {
	case StateRunning:
		if s.input.Paused {
			s.state = StatePaused
		}
	case StatePaused:
		if !s.input.Paused {
			s.state = StateRunning
		}
	}
}

// updateSystem advances game time and runs every per-kind update rule.
type updateSystem struct{ s *Scheduler }

func (y *updateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (y *updateSystem) Update(dt time.Duration) {
	s := y.s
	if s.state != StateRunning {
		return
	}
	s.gameTime += dt.Seconds()
	s.tickCount++
	s.registry.UpdateAll(s.input, dt.Seconds(), s.gameTime, s.director.SpeedMultiplier())
}

// spawnSystem runs the director and then the wave-script hook for each
// whole game-second crossed this tick.
type spawnSystem struct{ s *Scheduler }

func (y *spawnSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (y *spawnSystem) Update(_ time.Duration) {
	s := y.s
	if s.state != StateRunning {
		return
	}
	s.director.Update(s.registry, s.gameTime)

	if s.waves == nil {
		return
	}
	for sec := s.lastWaveSecond + 1; sec <= int(s.gameTime); sec++ {
		for _, ws := range s.waves.WaveSpawns(sec) {
			t := s.director.table.Get(ws.TypeID)
			if t == nil {
				s.log.Warn("wave script requested unknown meteoroid type, using first",
					zap.Int32("type_id", ws.TypeID), zap.Int("second", sec))
				t = s.director.table.First()
			}
			x := ws.X
			if x < 0 {
				x = math.NaN() // director picks a safe column
			}
			s.director.SpawnMeteoroidAt(s.registry, t, ws.Size, x)
		}
		s.lastWaveSecond = sec
	}
}

// collideSystem detects and resolves this tick's collisions, in the fixed
// order: projectile↔meteoroid, ship↔meteoroid, then power-up collection.
type collideSystem struct{ s *Scheduler }

func (y *collideSystem) Phase() coresys.Phase { return coresys.PhaseCollide }

func (y *collideSystem) Update(_ time.Duration) {
	s := y.s
	if s.state != StateRunning {
		return
	}
	ship := s.registry.Ship
	set := Detect(s.registry, ship.Alive, ship.Invincible(s.gameTime))
	if set.Empty() {
		return
	}
	s.resolveCollisions(set)
}

// cleanupSystem finalizes the tick: all resolution is done, so queued
// events become final and are delivered.
type cleanupSystem struct{ s *Scheduler }

func (y *cleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (y *cleanupSystem) Update(_ time.Duration) {
	y.s.bus.DispatchAll()
}

// ── Collision resolution ──────────────────────────────────────────

// descending sorts a set of indices high-to-low, the only safe order for
// splice-removal from the same collection.
func descending(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// resolveCollisions applies one tick's full collision set. Every index in
// the set refers to the collections as they stood at Detect time, so no
// phase may splice a collection while a later phase still holds indices
// into it: the three phases only mark, and each collection's removals are
// applied exactly once at the end, in descending index order. Split
// children spawn after all removals, so appending cannot disturb any
// index still in flight.
func (s *Scheduler) resolveCollisions(set CollisionSet) {
	reg := s.registry
	spentProj := make(map[int]bool) // projectiles consumed by any hit
	removedMet := make(map[int]bool)
	shotMet := make(map[int]bool) // subset of removedMet: scores and splits

	// 1. Projectile hits damage meteoroids. One hit per projectile, no
	// damage past destruction.
	hpBonus := s.director.HPBonus()
	for _, pr := range set.ProjectileMeteoroid {
		if spentProj[pr.A] || removedMet[pr.B] {
			continue
		}
		if pr.B < 0 || pr.B >= len(reg.Meteoroids) {
			s.log.Warn("stale meteoroid index in collision record, skipping",
				zap.Int("index", pr.B))
			continue
		}
		m := reg.Meteoroids[pr.B]
		spentProj[pr.A] = true
		dead := m.TakeDamage(1, hpBonus)
		event.Emit(s.bus, event.DamageDealt{Target: event.KindMeteoroid, Amount: 1, Destroyed: dead})
		if dead {
			removedMet[pr.B] = true
			shotMet[pr.B] = true
		}
	}

	// 2. Ship impact: at most the first still-live match per tick.
	s.resolveShipImpact(set.ShipMeteoroid, removedMet)

	// 3. Power-up collection, by ship contact or by shot (shooting collects
	// too). A projectile spent on a meteoroid cannot also collect.
	collected := make(map[int]bool)
	for _, wi := range set.ShipPowerUp {
		collected[wi] = true
	}
	for _, pr := range set.ProjectilePowerUp {
		if spentProj[pr.A] || collected[pr.B] {
			continue
		}
		spentProj[pr.A] = true
		collected[pr.B] = true
	}

	for _, pi := range descending(spentProj) {
		reg.RemoveProjectile(pi)
	}
	var parents []*Meteoroid
	for _, mi := range descending(removedMet) {
		if mi >= len(reg.Meteoroids) {
			s.log.Warn("stale meteoroid index at removal, skipping", zap.Int("index", mi))
			continue
		}
		m := reg.Meteoroids[mi]
		if shotMet[mi] {
			event.Emit(s.bus, event.EntityDestroyed{
				Kind: event.KindMeteoroid, X: m.X, Y: m.Y, Size: int(m.Size),
			})
			s.addScore(m.Type.Score)
			parents = append(parents, m)
		}
		reg.RemoveMeteoroid(mi)
	}
	for _, wi := range descending(collected) {
		if wi >= len(reg.PowerUps) {
			s.log.Warn("stale powerup index, skipping", zap.Int("index", wi))
			continue
		}
		p := reg.PowerUps[wi]
		s.applyPowerUp(p.Type)
		event.Emit(s.bus, event.PowerUpApplied{Type: int32(p.Type)})
		event.Emit(s.bus, event.EntityDestroyed{Kind: event.KindPowerUp, X: p.X, Y: p.Y})
		reg.RemovePowerUp(wi)
	}
	for _, parent := range parents {
		s.director.SpawnSplitChildren(reg, parent)
	}
}

// resolveShipImpact handles at most one ship↔meteoroid hit per tick: one
// life lost, invincibility window opened, the meteoroid marked for removal
// (no score, no split). A meteoroid already destroyed by fire this tick
// cannot also ram the ship.
func (s *Scheduler) resolveShipImpact(records []int, removedMet map[int]bool) {
	reg := s.registry
	ship := reg.Ship
	if !ship.Alive {
		return
	}

	for _, mi := range records {
		if mi < 0 || mi >= len(reg.Meteoroids) {
			s.log.Warn("stale meteoroid index in ship collision, skipping", zap.Int("index", mi))
			continue
		}
		if removedMet[mi] {
			continue
		}
		m := reg.Meteoroids[mi]
		removedMet[mi] = true
		event.Emit(s.bus, event.EntityDestroyed{
			Kind: event.KindMeteoroid, X: m.X, Y: m.Y, Size: int(m.Size),
		})

		ship.Lives--
		ship.InvincibleUntil = s.gameTime + s.cfg.Ship.InvincibilityWindow.Seconds()
		event.Emit(s.bus, event.DamageDealt{Target: event.KindShip, Amount: 1, Destroyed: ship.Lives <= 0})

		gameOver := ship.Lives <= 0
		event.Emit(s.bus, event.ShipHit{LivesLeft: ship.Lives, GameOver: gameOver})
		if gameOver {
			ship.Alive = false
			s.state = StateGameOver
			event.Emit(s.bus, event.EntityDestroyed{Kind: event.KindShip, X: ship.X, Y: ship.Y})
			s.log.Info("game over",
				zap.Int64("score", s.score),
				zap.Float64("game_time", s.gameTime))
			if s.waves != nil {
				s.waves.OnGameOver(s.score, s.gameTime)
			}
		}
		return
	}
}

func (s *Scheduler) applyPowerUp(t PowerUpType) {
	ship := s.registry.Ship
	switch t {
	case PowerExtraLife:
		if ship.Lives < s.cfg.Ship.MaxLives {
			ship.Lives++
		}
	case PowerRapidFire:
		ship.applyRapidFire(ship.RapidFire+1, s.registry.rapid)
	case PowerScoreMultiplier:
		ship.MultiplierUntil = s.gameTime + s.cfg.PowerUp.MultiplierDuration.Seconds()
	default:
		s.log.Warn("unknown powerup type, ignoring", zap.Int32("type", int32(t)))
	}
}
