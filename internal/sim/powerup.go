package sim

// PowerUp drifts down at a constant speed until collected or off-screen.
// Shooting one collects it too; the effect is applied by the resolver.
type PowerUp struct {
	X, Y   float64
	Radius float64
	Speed  float64 // downward, units/s
	Type   PowerUpType
}

func (p *PowerUp) circle() Circle {
	return Circle{X: p.X, Y: p.Y, Radius: p.Radius}
}

// advance integrates one tick of downward motion.
func (p *PowerUp) advance(dt float64) {
	p.Y += p.Speed * dt
}

// offscreen reports whether the power-up has dropped below the bottom edge.
func (p *PowerUp) offscreen(height float64) bool {
	return p.Y-p.Radius > height
}
