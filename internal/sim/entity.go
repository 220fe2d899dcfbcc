package sim

// Entities never hold references to one another. Relations exist only for
// the duration of one tick, as index pairs produced by the collision engine.

// PowerUpType enumerates the three collectible kinds.
type PowerUpType int32

const (
	PowerExtraLife PowerUpType = iota + 1
	PowerRapidFire
	PowerScoreMultiplier
)

func (t PowerUpType) String() string {
	switch t {
	case PowerExtraLife:
		return "extra_life"
	case PowerRapidFire:
		return "rapid_fire"
	case PowerScoreMultiplier:
		return "score_multiplier"
	}
	return "unknown"
}

// Circle is the collision footprint every entity exposes.
type Circle struct {
	X, Y, Radius float64
}

// Overlaps reports whether two circles overlap. The comparison is strict:
// circles exactly touching (distance == radius sum) do not collide.
func Overlaps(a, b Circle) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	sum := a.Radius + b.Radius
	return dx*dx+dy*dy < sum*sum
}
