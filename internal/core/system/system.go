package system

import "time"

// Phase defines execution ordering within a single fixed tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: latch input snapshot
	PhaseUpdate               // 1: per-kind entity updates, drain fire queue
	PhaseSpawn                // 2: spawn director + wave scripts
	PhaseCollide              // 3: collision detection + resolution
	PhaseCleanup              // 4: finalize the tick, deliver queued events
)

// System is implemented by every tick-pipeline stage.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
