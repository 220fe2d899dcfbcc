package pool

// Pool is a generic free-list allocator for short-lived instances
// (projectiles, particles). Acquire never returns nil: it reuses a reset
// instance from the free list or constructs a fresh one. Release resets the
// instance and retains it unless the free list is already at maxRetained,
// in which case the instance is dropped for the GC.
//
// Single-goroutine access only (game loop). No ordering guarantee among
// pooled instances.
type Pool[T any] struct {
	free        []*T
	construct   func() *T
	reset       func(*T)
	maxRetained int

	acquired int
	released int
}

// New creates a pool with prewarm instances already on the free list.
// maxRetained caps the free list; prewarm is clamped to it.
func New[T any](construct func() *T, reset func(*T), prewarm, maxRetained int) *Pool[T] {
	if maxRetained < 0 {
		maxRetained = 0
	}
	if prewarm > maxRetained {
		prewarm = maxRetained
	}
	p := &Pool[T]{
		free:        make([]*T, 0, maxRetained),
		construct:   construct,
		reset:       reset,
		maxRetained: maxRetained,
	}
	for i := 0; i < prewarm; i++ {
		inst := construct()
		reset(inst)
		p.free = append(p.free, inst)
	}
	return p
}

// Acquire returns an instance owned by the caller until Release.
func (p *Pool[T]) Acquire() *T {
	p.acquired++
	if n := len(p.free); n > 0 {
		inst := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return inst
	}
	return p.construct()
}

// Release resets inst to the pool baseline and returns it to the free list.
// The caller must not touch inst afterwards.
func (p *Pool[T]) Release(inst *T) {
	if inst == nil {
		return
	}
	p.released++
	p.reset(inst)
	if len(p.free) >= p.maxRetained {
		return // drop, free list full
	}
	p.free = append(p.free, inst)
}

// Available reports the current free-list size. Diagnostics only.
func (p *Pool[T]) Available() int { return len(p.free) }

// MaxRetained reports the configured free-list cap.
func (p *Pool[T]) MaxRetained() int { return p.maxRetained }

// Stats reports lifetime acquire/release counters. Diagnostics only.
func (p *Pool[T]) Stats() (acquired, released int) {
	return p.acquired, p.released
}

// ResetStats zeroes the lifetime counters (used on session restart).
func (p *Pool[T]) ResetStats() {
	p.acquired = 0
	p.released = 0
}
