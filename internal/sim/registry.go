package sim

import (
	"github.com/astroblast/server/internal/config"
	"github.com/astroblast/server/internal/core/event"
	"github.com/astroblast/server/internal/core/pool"
	"github.com/astroblast/server/internal/data"
	"go.uber.org/zap"
)

type fireRequest struct {
	x, y float64
}

// Registry owns the live collections for every entity kind and the per-kind
// per-tick update rules. Accessed only from the game-loop goroutine.
//
// Collision results refer to entities by position in these slices, and those
// indices are not stable across removal: Remove* splices the backing slice,
// shifting everything after the removed element. Resolvers must mutate in
// descending index order.
type Registry struct {
	Ship        *Ship
	Meteoroids  []*Meteoroid
	Projectiles []*Projectile
	PowerUps    []*PowerUp

	pendingFire []fireRequest

	projectiles *pool.Pool[Projectile]
	cfg         *config.Config
	rapid       *data.RapidFireTable
	bus         *event.Bus
	log         *zap.Logger
}

func NewRegistry(cfg *config.Config, rapid *data.RapidFireTable, bus *event.Bus, log *zap.Logger) *Registry {
	r := &Registry{
		projectiles: pool.New(
			func() *Projectile { return &Projectile{} },
			resetProjectile,
			cfg.Pools.ProjectilePrewarm,
			cfg.Pools.ProjectileMax,
		),
		cfg:   cfg,
		rapid: rapid,
		bus:   bus,
		log:   log,
	}
	r.Reset()
	return r
}

// Reset reinitializes every collection to start-of-session state. Restart
// path; also called once at construction.
func (r *Registry) Reset() {
	for _, p := range r.Projectiles {
		r.projectiles.Release(p)
	}
	r.Ship = newShip(r.cfg, r.rapid)
	r.Meteoroids = r.Meteoroids[:0]
	r.Projectiles = r.Projectiles[:0]
	r.PowerUps = r.PowerUps[:0]
	r.pendingFire = r.pendingFire[:0]
	r.projectiles.ResetStats()
}

// ProjectilePool exposes pool diagnostics. Semantics never depend on it.
func (r *Registry) ProjectilePool() *pool.Pool[Projectile] { return r.projectiles }

// UpdateAll runs every per-kind update rule for one tick, drains the ship's
// pending fire queue into the projectile registry, and compacts off-screen
// entities.
func (r *Registry) UpdateAll(in Input, dt, gameTime, speedMult float64) {
	r.updateShip(in, dt, gameTime)
	r.drainFireQueue()
	r.updateMeteoroids(dt, speedMult)
	r.updateProjectiles(dt)
	r.updatePowerUps(dt)
}

func (r *Registry) updateShip(in Input, dt, gameTime float64) {
	s := r.Ship
	if !s.Alive {
		return
	}
	s.steer(in, r.cfg, dt)
	if s.Autofire && gameTime >= s.NextFireAt {
		for _, off := range s.barrelOffsets() {
			r.pendingFire = append(r.pendingFire, fireRequest{x: s.X + off, y: s.Y - s.Radius})
		}
		s.NextFireAt = gameTime + s.FireInterval
	}
}

func (r *Registry) drainFireQueue() {
	for _, req := range r.pendingFire {
		r.SpawnProjectile(req.x, req.y)
	}
	r.pendingFire = r.pendingFire[:0]
}

func (r *Registry) updateMeteoroids(dt, speedMult float64) {
	w := r.cfg.Playfield.Width
	h := r.cfg.Playfield.Height
	margin := r.cfg.Playfield.EdgeMargin
	kept := r.Meteoroids[:0]
	for _, m := range r.Meteoroids {
		m.advance(dt, speedMult)
		if m.offscreen(w, h, margin) {
			continue // left the playfield, no destroy event
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(r.Meteoroids); i++ {
		r.Meteoroids[i] = nil
	}
	r.Meteoroids = kept
}

func (r *Registry) updateProjectiles(dt float64) {
	kept := r.Projectiles[:0]
	for _, p := range r.Projectiles {
		if !p.Alive {
			continue // defensive: dead instances never update
		}
		p.advance(dt)
		if p.offscreen() {
			r.projectiles.Release(p)
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(r.Projectiles); i++ {
		r.Projectiles[i] = nil
	}
	r.Projectiles = kept
}

func (r *Registry) updatePowerUps(dt float64) {
	h := r.cfg.Playfield.Height
	kept := r.PowerUps[:0]
	for _, p := range r.PowerUps {
		p.advance(dt)
		if p.offscreen(h) {
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(r.PowerUps); i++ {
		r.PowerUps[i] = nil
	}
	r.PowerUps = kept
}

// ── Spawning ──────────────────────────────────────────────────────

// SpawnProjectile acquires a pooled projectile at the given muzzle position.
func (r *Registry) SpawnProjectile(x, y float64) {
	p := r.projectiles.Acquire()
	p.X = x
	p.Y = y
	p.Radius = r.cfg.Ship.ProjectileRadius
	p.Speed = r.cfg.Ship.ProjectileSpeed
	p.Alive = true
	r.Projectiles = append(r.Projectiles, p)
	event.Emit(r.bus, event.EntitySpawned{Kind: event.KindProjectile, X: x, Y: y})
}

// meteoroidRadius derives the collision radius for a size class.
func (r *Registry) meteoroidRadius(size data.SizeClass) float64 {
	var base float64
	switch size {
	case data.SizeLarge:
		base = r.cfg.Meteoroid.RadiusLarge
	case data.SizeMedium:
		base = r.cfg.Meteoroid.RadiusMedium
	default:
		base = r.cfg.Meteoroid.RadiusSmall
	}
	return base * r.cfg.Meteoroid.CollisionScale
}

// SpawnMeteoroid adds a meteoroid of the given template and size.
func (r *Registry) SpawnMeteoroid(t *data.MeteoroidType, size data.SizeClass, x, y, vx, vy, spin float64) *Meteoroid {
	m := &Meteoroid{
		X: x, Y: y,
		VX: vx, VY: vy,
		Radius: r.meteoroidRadius(size),
		Spin:   spin,
		Type:   t,
		Size:   size,
	}
	r.Meteoroids = append(r.Meteoroids, m)
	event.Emit(r.bus, event.EntitySpawned{Kind: event.KindMeteoroid, X: x, Y: y, TypeID: t.ID})
	return m
}

// SpawnPowerUp adds a falling power-up of the given kind.
func (r *Registry) SpawnPowerUp(t PowerUpType, x, y float64) *PowerUp {
	p := &PowerUp{
		X: x, Y: y,
		Radius: r.cfg.PowerUp.Radius,
		Speed:  r.cfg.PowerUp.FallSpeed,
		Type:   t,
	}
	r.PowerUps = append(r.PowerUps, p)
	event.Emit(r.bus, event.EntitySpawned{Kind: event.KindPowerUp, X: x, Y: y, TypeID: int32(t)})
	return p
}

// ── Removal ───────────────────────────────────────────────────────
//
// All removals are bounds-guarded: a stale index is logged and skipped,
// never allowed to abort the tick.

// RemoveMeteoroid splices index i out of the meteoroid collection.
func (r *Registry) RemoveMeteoroid(i int) bool {
	if i < 0 || i >= len(r.Meteoroids) {
		r.log.Warn("stale meteoroid index, skipping removal",
			zap.Int("index", i), zap.Int("len", len(r.Meteoroids)))
		return false
	}
	r.Meteoroids = append(r.Meteoroids[:i], r.Meteoroids[i+1:]...)
	return true
}

// RemoveProjectile splices index i out and returns the instance to the pool.
func (r *Registry) RemoveProjectile(i int) bool {
	if i < 0 || i >= len(r.Projectiles) {
		r.log.Warn("stale projectile index, skipping removal",
			zap.Int("index", i), zap.Int("len", len(r.Projectiles)))
		return false
	}
	p := r.Projectiles[i]
	copy(r.Projectiles[i:], r.Projectiles[i+1:])
	r.Projectiles[len(r.Projectiles)-1] = nil
	r.Projectiles = r.Projectiles[:len(r.Projectiles)-1]
	r.projectiles.Release(p)
	return true
}

// RemovePowerUp splices index i out of the power-up collection.
func (r *Registry) RemovePowerUp(i int) bool {
	if i < 0 || i >= len(r.PowerUps) {
		r.log.Warn("stale powerup index, skipping removal",
			zap.Int("index", i), zap.Int("len", len(r.PowerUps)))
		return false
	}
	r.PowerUps = append(r.PowerUps[:i], r.PowerUps[i+1:]...)
	return true
}
