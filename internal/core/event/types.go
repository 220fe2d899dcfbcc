package event

// Simulation-to-collaborator events (renderer, audio, HUD, soak logging).
// Fire-and-forget: no handler return values, no back-pressure.

// EntityKind identifies which live collection an event refers to.
type EntityKind uint8

const (
	KindShip EntityKind = iota
	KindMeteoroid
	KindProjectile
	KindPowerUp
)

func (k EntityKind) String() string {
	switch k {
	case KindShip:
		return "ship"
	case KindMeteoroid:
		return "meteoroid"
	case KindProjectile:
		return "projectile"
	case KindPowerUp:
		return "powerup"
	}
	return "unknown"
}

type EntitySpawned struct {
	Kind   EntityKind
	X, Y   float64
	TypeID int32 // meteoroid type id or power-up kind; 0 otherwise
}

type EntityDestroyed struct {
	Kind EntityKind
	X, Y float64
	Size int // meteoroid size class; 0 otherwise
}

type DamageDealt struct {
	Target    EntityKind
	Amount    int
	Destroyed bool
}

type ScoreChanged struct {
	Delta int64
	Total int64
}

type ShipHit struct {
	LivesLeft int
	GameOver  bool
}

type PowerUpApplied struct {
	Type int32
}

// TickError reports a recovered tick-boundary fault. The session continues;
// worst case is a skipped collision or a one-frame hitch.
type TickError struct {
	Err error
}
