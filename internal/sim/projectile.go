package sim

// Projectile travels straight up at a fixed speed. Instances are pooled:
// exactly one of the live collection and the pool free list owns a given
// instance at any time.
type Projectile struct {
	X, Y   float64
	Radius float64
	Speed  float64 // upward, units/s
	Alive  bool
}

// resetProjectile is the pool reset baseline. A reacquired instance always
// starts from these values, never from its pre-release state.
func resetProjectile(p *Projectile) {
	*p = Projectile{}
}

func (p *Projectile) circle() Circle {
	return Circle{X: p.X, Y: p.Y, Radius: p.Radius}
}

// advance integrates one tick of upward motion.
func (p *Projectile) advance(dt float64) {
	p.Y -= p.Speed * dt
}

// offscreen reports whether the projectile has passed above the top edge.
func (p *Projectile) offscreen() bool {
	return p.Y+p.Radius < 0
}
