package sim

import "github.com/astroblast/server/internal/core/event"

// EntitySnapshot is one live entity's render-relevant state. Snapshots are
// plain copies: the renderer never holds references into the registry.
type EntitySnapshot struct {
	Kind     event.EntityKind
	X, Y     float64
	Radius   float64
	Rotation float64
	TypeID   int32 // meteoroid type or power-up kind
	Size     int   // meteoroid size class
}

// HUDState is the scalar state a HUD reads once per frame.
type HUDState struct {
	State               State
	Score               int64
	Lives               int
	RapidFireLevel      int
	MultiplierRemaining float64 // seconds, 0 = inactive
	GameTime            float64
}

// Snapshot copies every live entity's position/radius/kind for rendering.
// Called once per animation frame, after the last tick of the frame.
func (s *Scheduler) Snapshot() []EntitySnapshot {
	r := s.registry
	out := make([]EntitySnapshot, 0, 1+len(r.Meteoroids)+len(r.Projectiles)+len(r.PowerUps))
	if r.Ship.Alive {
		out = append(out, EntitySnapshot{
			Kind: event.KindShip, X: r.Ship.X, Y: r.Ship.Y, Radius: r.Ship.Radius,
		})
	}
	for _, m := range r.Meteoroids {
		out = append(out, EntitySnapshot{
			Kind: event.KindMeteoroid, X: m.X, Y: m.Y, Radius: m.Radius,
			Rotation: m.Rotation, TypeID: m.Type.ID, Size: int(m.Size),
		})
	}
	for _, p := range r.Projectiles {
		out = append(out, EntitySnapshot{
			Kind: event.KindProjectile, X: p.X, Y: p.Y, Radius: p.Radius,
		})
	}
	for _, p := range r.PowerUps {
		out = append(out, EntitySnapshot{
			Kind: event.KindPowerUp, X: p.X, Y: p.Y, Radius: p.Radius, TypeID: int32(p.Type),
		})
	}
	return out
}

// HUD returns the scalar state snapshot.
func (s *Scheduler) HUD() HUDState {
	return HUDState{
		State:               s.state,
		Score:               s.score,
		Lives:               s.registry.Ship.Lives,
		RapidFireLevel:      s.registry.Ship.RapidFire,
		MultiplierRemaining: s.registry.Ship.MultiplierRemaining(s.gameTime),
		GameTime:            s.gameTime,
	}
}
