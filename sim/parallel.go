package sim

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/plume/systems"
)

// parallelThreshold is the minimum live particle count to use parallel
// force evaluation. Below this, single-threaded is faster due to goroutine
// overhead.
const parallelThreshold = 256

// workChunk is a slot range for a worker to evaluate.
type workChunk struct {
	start, end int32
	simTime    float32
}

// parallelState holds the persistent worker pool for force evaluation.
// Each worker owns its own Env (neighbor scratch included), and
// accelerations are written slot-indexed, so workers never contend.
type parallelState struct {
	sim        *Simulator
	envs       []systems.Env
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState(s *Simulator) *parallelState {
	numWorkers := runtime.GOMAXPROCS(0)
	envs := make([]systems.Env, numWorkers)
	for i := range envs {
		envs[i] = systems.Env{
			Grid:      s.grid,
			Pool:      s.pool,
			Neighbors: make([]systems.Neighbor, 0, 64),
		}
	}
	return &parallelState{
		sim:        s,
		envs:       envs,
		numWorkers: numWorkers,
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(workerID int) {
	defer p.wg.Done()
	env := &p.envs[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			env.Time = chunk.simTime
			p.evaluateChunk(chunk.start, chunk.end, env)
			p.doneChan <- struct{}{}
		}
	}
}

// evaluate fills the simulator's acceleration scratch for every live slot.
// All chunks complete before it returns: integration never overlaps force
// evaluation.
func (p *parallelState) evaluate(simTime float32) {
	s := p.sim
	capacity := int32(s.pool.Capacity())

	if s.pool.LiveCount() < parallelThreshold {
		env := &p.envs[0]
		env.Time = simTime
		p.evaluateChunk(0, capacity, env)
		return
	}

	if !p.running {
		p.startWorkers()
	}

	chunkSize := (capacity + int32(p.numWorkers) - 1) / int32(p.numWorkers)

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := int32(w) * chunkSize
		end := start + chunkSize
		if end > capacity {
			end = capacity
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, simTime: simTime}
		chunksDispatched++
	}

	// Barrier: wait for every chunk before integration reads accelerations.
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// evaluateChunk computes accelerations for live slots in [start, end).
func (p *parallelState) evaluateChunk(start, end int32, env *systems.Env) {
	s := p.sim
	for idx := start; idx < end; idx++ {
		if !s.pool.IsLive(idx) {
			continue
		}
		s.accel[idx] = s.field.Evaluate(idx, s.pool.At(idx), env)
	}
}
