package sim

import (
	"math"
	"math/rand"

	"github.com/astroblast/server/internal/config"
	"github.com/astroblast/server/internal/data"
	"go.uber.org/zap"
)

// Director decides per tick what gets created and how the ambient
// difficulty multipliers evolve. Spawning must never halt the game: every
// table miss or degenerate weight sum falls back to the first configured
// entry.
type Director struct {
	cfg   *config.Config
	table *data.MeteoroidTable
	rng   *rand.Rand
	log   *zap.Logger

	lastMeteoroid float64 // game-time of last meteoroid spawn
	lastPowerUp   float64

	speedMult   float64
	hpBonus     int
	nextSpeedAt float64
	nextHPAt    float64
}

func NewDirector(cfg *config.Config, table *data.MeteoroidTable, rng *rand.Rand, log *zap.Logger) *Director {
	d := &Director{
		cfg:   cfg,
		table: table,
		rng:   rng,
		log:   log,
	}
	d.Reset()
	return d
}

// Reset returns difficulty and spawn timers to start-of-session values.
func (d *Director) Reset() {
	d.lastMeteoroid = 0
	d.lastPowerUp = 0
	d.speedMult = 1
	d.hpBonus = 0
	d.nextSpeedAt = d.cfg.Difficulty.Delay.Seconds() + d.cfg.Difficulty.SpeedInterval.Seconds()
	d.nextHPAt = d.cfg.Difficulty.Delay.Seconds() + d.cfg.Difficulty.HPInterval.Seconds()
}

// SpeedMultiplier is the live meteoroid speed scale, applied every tick.
func (d *Director) SpeedMultiplier() float64 { return d.speedMult }

// HPBonus is the live additive meteoroid HP bonus, applied every tick.
func (d *Director) HPBonus() int { return d.hpBonus }

// SpawnRate returns the current meteoroid spawn rate in spawns/second:
// an exponential ramp from the base rate, capped at base*maxFactor.
func (d *Director) SpawnRate(gameTime float64) float64 {
	rate := d.cfg.Spawn.BaseRate * math.Exp(d.cfg.Spawn.RampK*gameTime)
	if limit := d.cfg.Spawn.BaseRate * d.cfg.Spawn.MaxRateFactor; rate > limit {
		rate = limit
	}
	return rate
}

// Update advances difficulty and performs this tick's spawn decisions.
func (d *Director) Update(r *Registry, gameTime float64) {
	d.stepDifficulty(gameTime)

	if gameTime-d.lastMeteoroid > 1/d.SpawnRate(gameTime) {
		d.spawnMeteoroid(r)
		d.lastMeteoroid = gameTime
	}

	if gameTime-d.lastPowerUp >= d.cfg.PowerUp.Interval.Seconds() {
		d.spawnPowerUp(r)
		d.lastPowerUp = gameTime
	}
}

// stepDifficulty applies the geometric speed ramp and additive HP ramp on
// their own intervals, both disabled before the configured delay and capped
// at their ceilings.
func (d *Director) stepDifficulty(gameTime float64) {
	if gameTime < d.cfg.Difficulty.Delay.Seconds() {
		return
	}
	for gameTime >= d.nextSpeedAt {
		d.nextSpeedAt += d.cfg.Difficulty.SpeedInterval.Seconds()
		if next := d.speedMult * d.cfg.Difficulty.SpeedFactor; next <= d.cfg.Difficulty.SpeedMax {
			d.speedMult = next
		} else {
			d.speedMult = d.cfg.Difficulty.SpeedMax
		}
	}
	for gameTime >= d.nextHPAt {
		d.nextHPAt += d.cfg.Difficulty.HPInterval.Seconds()
		if d.hpBonus+d.cfg.Difficulty.HPStep <= d.cfg.Difficulty.HPMax {
			d.hpBonus += d.cfg.Difficulty.HPStep
		} else {
			d.hpBonus = d.cfg.Difficulty.HPMax
		}
	}
}

// pickType draws a meteoroid template, weight-proportional. Falls back to
// the first entry when the weight table is degenerate.
func (d *Director) pickType() *data.MeteoroidType {
	total := d.table.TotalWeight()
	if total <= 0 {
		return d.table.First()
	}
	roll := d.rng.Intn(total)
	for _, t := range d.table.All() {
		roll -= t.Weight
		if roll < 0 {
			return t
		}
	}
	return d.table.First()
}

// pickSize draws a size class from the configured size weights.
func (d *Director) pickSize() data.SizeClass {
	wl := d.cfg.Meteoroid.WeightLarge
	wm := d.cfg.Meteoroid.WeightMedium
	ws := d.cfg.Meteoroid.WeightSmall
	total := wl + wm + ws
	if total <= 0 {
		return data.SizeLarge
	}
	roll := d.rng.Intn(total)
	switch {
	case roll < wl:
		return data.SizeLarge
	case roll < wl+wm:
		return data.SizeMedium
	default:
		return data.SizeSmall
	}
}

// spawnX samples a spawn column, resampling (bounded) while it lands inside
// the safety margin around the ship's current X. After the retry budget the
// last sample is used as-is rather than stalling the spawn.
func (d *Director) spawnX(r *Registry, radius float64) float64 {
	width := d.cfg.Playfield.Width
	x := radius + d.rng.Float64()*(width-2*radius)
	for i := 0; i < d.cfg.Spawn.MaxRetries; i++ {
		if !r.Ship.Alive || math.Abs(x-r.Ship.X) >= d.cfg.Spawn.SafetyMargin {
			break
		}
		x = radius + d.rng.Float64()*(width-2*radius)
	}
	return x
}

func (d *Director) spawnMeteoroid(r *Registry) {
	t := d.pickType()
	size := d.pickSize()
	d.SpawnMeteoroidAt(r, t, size, math.NaN())
}

// SpawnMeteoroidAt places one meteoroid of the given template and size.
// A NaN x means "pick a safe random column"; wave scripts pass explicit
// columns. Velocity, drift and spin are rolled from the template ranges.
func (d *Director) SpawnMeteoroidAt(r *Registry, t *data.MeteoroidType, size data.SizeClass, x float64) *Meteoroid {
	radius := r.meteoroidRadius(size)
	if math.IsNaN(x) {
		x = d.spawnX(r, radius)
	}
	y := -radius // just above the top edge

	speed := t.SpeedMin + d.rng.Float64()*(t.SpeedMax-t.SpeedMin)
	vx := 0.0
	if t.DriftMax > 0 {
		vx = (d.rng.Float64()*2 - 1) * t.DriftMax
	}
	spin := 0.0
	if t.SpinMax > 0 {
		spin = (d.rng.Float64()*2 - 1) * t.SpinMax
	}
	return r.SpawnMeteoroid(t, size, x, y, vx, speed, spin)
}

func (d *Director) spawnPowerUp(r *Registry) {
	kinds := [...]PowerUpType{PowerExtraLife, PowerRapidFire, PowerScoreMultiplier}
	t := kinds[d.rng.Intn(len(kinds))]
	radius := d.cfg.PowerUp.Radius
	x := radius + d.rng.Float64()*(d.cfg.Playfield.Width-2*radius)
	r.SpawnPowerUp(t, x, -radius)
}

// SpawnSplitChildren creates the split offspring of a destroyed meteoroid at
// the parent's position. Children inherit the parent's template and roll
// fresh velocities; the child size class comes from the split rule and is
// always strictly smaller, so material never multiplies indefinitely.
func (d *Director) SpawnSplitChildren(r *Registry, parent *Meteoroid) int {
	rule, ok := parent.Type.SplitFor(parent.Size)
	if !ok {
		return 0
	}
	for i := 0; i < rule.Count; i++ {
		speed := parent.Type.SpeedMin + d.rng.Float64()*(parent.Type.SpeedMax-parent.Type.SpeedMin)
		// Children scatter: spread horizontal kicks around the parent.
		kick := (float64(i)+0.5)/float64(rule.Count)*2 - 1 // [-1, 1) spread
		vx := parent.VX + kick*speed*0.5
		spin := 0.0
		if parent.Type.SpinMax > 0 {
			spin = (d.rng.Float64()*2 - 1) * parent.Type.SpinMax
		}
		r.SpawnMeteoroid(parent.Type, rule.Child, parent.X, parent.Y, vx, speed, spin)
	}
	return rule.Count
}
