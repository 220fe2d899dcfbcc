package sim

import "github.com/astroblast/server/internal/data"

// Meteoroid falls through the playfield at a per-instance base velocity.
// Difficulty scaling is never baked into the instance: effective speed is
// base velocity times the director's current multiplier, and effective max
// HP is the size-class table value plus the current HP bonus, both read
// fresh every tick so in-flight meteoroids harden over time too.
type Meteoroid struct {
	X, Y     float64
	VX, VY   float64 // base velocity
	Radius   float64
	Rotation float64
	Spin     float64 // rad/s
	Type     *data.MeteoroidType
	Size     data.SizeClass
	Damage   int // damage absorbed so far
}

// MaxHP returns the effective hit-point ceiling under the given bonus.
func (m *Meteoroid) MaxHP(hpBonus int) int {
	return m.Type.HPFor(m.Size) + hpBonus
}

// HP returns the remaining hit points under the given bonus.
func (m *Meteoroid) HP(hpBonus int) int {
	return m.MaxHP(hpBonus) - m.Damage
}

// TakeDamage absorbs damage and reports whether the meteoroid is destroyed.
func (m *Meteoroid) TakeDamage(amount, hpBonus int) bool {
	m.Damage += amount
	return m.Destroyed(hpBonus)
}

// Destroyed reports whether absorbed damage has exhausted the effective HP.
func (m *Meteoroid) Destroyed(hpBonus int) bool {
	return m.HP(hpBonus) <= 0
}

func (m *Meteoroid) circle() Circle {
	return Circle{X: m.X, Y: m.Y, Radius: m.Radius}
}

// advance integrates one tick of motion at the current difficulty speed
// multiplier.
func (m *Meteoroid) advance(dt, speedMult float64) {
	m.X += m.VX * speedMult * dt
	m.Y += m.VY * speedMult * dt
	m.Rotation += m.Spin * dt
}

// offscreen reports whether the meteoroid has left the playfield: below the
// bottom edge, or past the side edges (with margin) for drifting types.
func (m *Meteoroid) offscreen(width, height, margin float64) bool {
	if m.Y-m.Radius > height {
		return true
	}
	if m.VX != 0 && (m.X < -margin || m.X > width+margin) {
		return true
	}
	return false
}
