package sim

// Collision engine: all-pairs circle-overlap tests across the enabled
// category pairs. Detection never mutates state; it reports index pairs
// valid only until the next mutation of the backing collections.
//
// Entity counts stay in the tens, so O(n*m) per pair is fine. If that ever
// changes, a uniform grid or sweep-and-prune drops in behind the same
// contract.
//
// Enabled pairs: projectile↔meteoroid, ship↔meteoroid (skipped entirely
// while the ship is invincible), ship↔powerup, projectile↔powerup.
// meteoroid↔meteoroid, meteoroid↔powerup and powerup↔powerup carry no
// gameplay and are not tested.

// Pair carries the positions of two colliding entities in their respective
// live collections at the moment of detection.
type Pair struct {
	A, B int
}

// CollisionSet is one tick's worth of detected collisions.
type CollisionSet struct {
	ProjectileMeteoroid []Pair // A: projectile index, B: meteoroid index
	ShipMeteoroid       []int  // meteoroid indices
	ShipPowerUp         []int  // power-up indices
	ProjectilePowerUp   []Pair // A: projectile index, B: power-up index
}

// Empty reports whether nothing collided this tick.
func (c *CollisionSet) Empty() bool {
	return len(c.ProjectileMeteoroid) == 0 &&
		len(c.ShipMeteoroid) == 0 &&
		len(c.ShipPowerUp) == 0 &&
		len(c.ProjectilePowerUp) == 0
}

// Detect runs every enabled pair test against the registry's current
// collections. A dead ship skips all ship-side tests; an invincible ship
// skips only ship↔meteoroid (it still collects power-ups).
func Detect(r *Registry, shipAlive, shipInvincible bool) CollisionSet {
	var out CollisionSet

	for pi, p := range r.Projectiles {
		pc := p.circle()
		for mi, m := range r.Meteoroids {
			if Overlaps(pc, m.circle()) {
				out.ProjectileMeteoroid = append(out.ProjectileMeteoroid, Pair{A: pi, B: mi})
			}
		}
		for wi, w := range r.PowerUps {
			if Overlaps(pc, w.circle()) {
				out.ProjectilePowerUp = append(out.ProjectilePowerUp, Pair{A: pi, B: wi})
			}
		}
	}

	if shipAlive {
		sc := r.Ship.circle()
		if !shipInvincible {
			for mi, m := range r.Meteoroids {
				if Overlaps(sc, m.circle()) {
					out.ShipMeteoroid = append(out.ShipMeteoroid, mi)
				}
			}
		}
		for wi, w := range r.PowerUps {
			if Overlaps(sc, w.circle()) {
				out.ShipPowerUp = append(out.ShipPowerUp, wi)
			}
		}
	}

	return out
}
