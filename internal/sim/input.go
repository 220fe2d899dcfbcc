package sim

// Input is the normalized per-tick input snapshot. Device callbacks write a
// pending copy via Scheduler.SetInput; the scheduler latches it once at tick
// start, so a tick never observes a half-written snapshot.
type Input struct {
	MoveX  float64 // [-1, 1]
	MoveY  float64 // [-1, 1]
	Paused bool

	// Absolute-target steering: when set, the ship moves toward the pointer
	// instead of integrating MoveX/MoveY.
	PointerActive bool
	PointerX      float64
	PointerY      float64
}

// clampAxis keeps device-reported axes inside the normalized range.
func clampAxis(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// Normalized returns a copy with the move axes clamped to [-1, 1].
func (in Input) Normalized() Input {
	in.MoveX = clampAxis(in.MoveX)
	in.MoveY = clampAxis(in.MoveY)
	return in
}
