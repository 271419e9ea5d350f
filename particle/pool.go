package particle

// NoSlot is returned by Spawn when the pool is full.
const NoSlot = int32(-1)

// Pool is a fixed-capacity arena of particle slots with an index free-list.
// Slot indices are stable for a particle's lifetime and recycled after
// retirement; holders must not keep an index across a tick boundary.
// The pool never allocates after construction.
type Pool struct {
	slots []Particle
	alive []bool
	free  []int32 // stack of free slot indices

	liveCount int
	rejected  uint64 // spawns dropped because the pool was full
	retired   uint64 // cumulative retirements
}

// NewPool creates a pool with the given capacity.
func NewPool(capacity int) *Pool {
	p := &Pool{
		slots: make([]Particle, capacity),
		alive: make([]bool, capacity),
		free:  make([]int32, capacity),
	}
	// Stack pops from the end, so push in reverse: first spawns fill
	// slots 0, 1, 2, ...
	for i := 0; i < capacity; i++ {
		p.free[i] = int32(capacity - 1 - i)
	}
	return p
}

// Capacity returns the fixed slot count.
func (p *Pool) Capacity() int {
	return len(p.slots)
}

// LiveCount returns the number of live particles.
func (p *Pool) LiveCount() int {
	return p.liveCount
}

// Rejected returns the cumulative count of spawns dropped at capacity.
func (p *Pool) Rejected() uint64 {
	return p.rejected
}

// Retired returns the cumulative count of retired particles.
func (p *Pool) Retired() uint64 {
	return p.retired
}

// Spawn allocates a free slot and writes the initial state into it.
// Returns NoSlot when the pool is full; the rejection is counted, never
// queued. Emission is best-effort and never blocks or grows memory.
func (p *Pool) Spawn(init InitState) int32 {
	n := len(p.free)
	if n == 0 {
		p.rejected++
		return NoSlot
	}
	idx := p.free[n-1]
	p.free = p.free[:n-1]

	p.slots[idx] = Particle{
		Pos:        init.Pos,
		Vel:        init.Vel,
		Lifespan:   init.Lifespan,
		Size:       init.Size,
		ColorStart: init.ColorStart,
		ColorEnd:   init.ColorEnd,
	}
	p.alive[idx] = true
	p.liveCount++
	return idx
}

// Retire marks a slot dead and returns it to the free list. Retiring an
// already-dead slot is a no-op, so double-aging edge cases are tolerated.
func (p *Pool) Retire(idx int32) {
	if idx < 0 || int(idx) >= len(p.slots) || !p.alive[idx] {
		return
	}
	p.alive[idx] = false
	p.free = append(p.free, idx)
	p.liveCount--
	p.retired++
}

// Advance ages every live particle by dt and retires those whose age
// reaches lifespan, in the same pass. Runs before emission each tick, so
// particles spawned this tick are not aged until the next one.
func (p *Pool) Advance(dt float32) {
	for i := range p.slots {
		if !p.alive[i] {
			continue
		}
		p.slots[i].Age += dt
		if p.slots[i].Age >= p.slots[i].Lifespan {
			p.Retire(int32(i))
		}
	}
}

// ForEachLive calls fn for every live slot in ascending slot-index order.
// The order is deterministic within a tick. fn may mutate the particle but
// must not spawn or retire during traversal.
func (p *Pool) ForEachLive(fn func(idx int32, pt *Particle)) {
	for i := range p.slots {
		if p.alive[i] {
			fn(int32(i), &p.slots[i])
		}
	}
}

// IsLive reports whether the slot currently holds a live particle.
func (p *Pool) IsLive(idx int32) bool {
	return idx >= 0 && int(idx) < len(p.alive) && p.alive[idx]
}

// At returns the particle in the given slot. The pointer is valid only
// while the slot stays live.
func (p *Pool) At(idx int32) *Particle {
	return &p.slots[idx]
}
