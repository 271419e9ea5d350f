// Package sim orchestrates the per-tick simulation: aging, emission,
// force evaluation, integration, and frame publication.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/frame"
	"github.com/pthm-cable/plume/particle"
	"github.com/pthm-cable/plume/systems"
	"github.com/pthm-cable/plume/telemetry"
)

// Options configures a Simulator beyond the config file.
type Options struct {
	Seed      int64
	LogStats  bool
	OutputDir string
}

// Simulator owns the complete simulation state. One instance is one
// independent simulation; nothing is shared through globals, so several
// can run side by side.
type Simulator struct {
	pool    *particle.Pool
	emitter *systems.Emitter
	field   *systems.Field
	grid    *systems.SpatialGrid
	frames  *frame.Buffer

	// accel is slot-indexed scratch written by force evaluation and read
	// by integration. Indexing by slot keeps parallel writes contention-free.
	accel    []particle.Vec2
	spawnBuf []particle.InitState

	parallel *parallelState

	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	logStats  bool

	// sample scratch for window stats
	ageSamples   []float64
	speedSamples []float64

	tick        uint64
	simTime     float64
	lastRetired uint64
	lastReject  uint64

	// publish transform
	pubScale   float32
	pubOffsetX float32
	pubOffsetY float32
}

// New builds a simulator from a validated config. Construction fails on an
// invalid config or force list; a Simulator that constructs successfully
// never errors mid-tick.
func New(cfg *config.Config, opts Options) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	field, err := systems.NewField(cfg.Forces, opts.Seed)
	if err != nil {
		return nil, err
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	if err := output.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("sim: writing config snapshot: %w", err)
	}

	capacity := cfg.Pool.Capacity
	s := &Simulator{
		pool:    particle.NewPool(capacity),
		emitter: systems.NewEmitter(cfg.Emitter, rng),
		field:   field,
		grid: systems.NewSpatialGrid(
			float32(cfg.World.Width), float32(cfg.World.Height), float32(cfg.Grid.CellSize),
		),
		frames:   frame.NewBuffer(capacity),
		accel:    make([]particle.Vec2, capacity),
		spawnBuf: make([]particle.InitState, 0, 256),

		perf:      telemetry.NewPerfCollector(60),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, nominalDT(cfg)),
		output:    output,
		logStats:  opts.LogStats,

		ageSamples:   make([]float64, 0, capacity),
		speedSamples: make([]float64, 0, capacity),

		pubScale:   float32(cfg.Publish.Scale),
		pubOffsetX: float32(cfg.Publish.OffsetX),
		pubOffsetY: float32(cfg.Publish.OffsetY),
	}
	s.parallel = newParallelState(s)

	return s, nil
}

// Tick advances the simulation by dt seconds and publishes a frame.
// dt must be non-negative; clamping pathological values is the caller's
// responsibility. Phases run strictly in sequence: aging, emitting, grid
// rebuild + force evaluation, integration, publication.
func (s *Simulator) Tick(dt float32) {
	s.perf.StartTick()

	// Aging: retire before this tick's spawns so a particle hitting its
	// lifespan exactly at a tick boundary frees its slot for reuse.
	s.perf.StartPhase(telemetry.PhaseAging)
	s.pool.Advance(dt)
	retired := s.pool.Retired()
	s.collector.RecordRetired(int(retired - s.lastRetired))
	s.lastRetired = retired

	// Emitting: best-effort spawns, rejections counted at the pool.
	s.perf.StartPhase(telemetry.PhaseEmitting)
	s.spawnBuf = s.emitter.Tick(dt, s.spawnBuf[:0])
	spawned := 0
	for i := range s.spawnBuf {
		if s.pool.Spawn(s.spawnBuf[i]) != particle.NoSlot {
			spawned++
		}
	}
	s.collector.RecordSpawned(spawned)
	rejected := s.pool.Rejected()
	s.collector.RecordRejected(int(rejected - s.lastReject))
	s.lastReject = rejected

	// Grid rebuild over current live positions.
	s.perf.StartPhase(telemetry.PhaseSpatialGrid)
	s.grid.Rebuild(s.pool)

	// Force evaluation into the slot-indexed scratch. All workers finish
	// before integration starts; integration reads every acceleration.
	s.perf.StartPhase(telemetry.PhaseForces)
	s.parallel.evaluate(float32(s.simTime))

	// Semi-implicit Euler: velocity first, then position. The order is
	// load-bearing for stability and for reproducibility.
	s.perf.StartPhase(telemetry.PhaseIntegrate)
	s.pool.ForEachLive(func(idx int32, pt *particle.Particle) {
		a := s.accel[idx]
		pt.Vel.X += a.X * dt
		pt.Vel.Y += a.Y * dt
		pt.Pos.X += pt.Vel.X * dt
		pt.Pos.Y += pt.Vel.Y * dt
	})

	// Publish: slot-order write, dead slots zero-opacity, atomic swap.
	s.perf.StartPhase(telemetry.PhasePublish)
	s.publishFrame()

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.tick++
	s.simTime += float64(dt)
	s.flushStats()

	s.perf.EndTick()
}

// publishFrame writes every slot's renderable attributes into the back
// buffer and swaps it to the front.
func (s *Simulator) publishFrame() {
	buf := s.frames.BeginWrite()

	// Zero the whole buffer so dead slots read as zero-opacity records.
	for i := range buf {
		buf[i] = 0
	}

	s.pool.ForEachLive(func(idx int32, pt *particle.Particle) {
		t := pt.LifeT()
		c := pt.ColorStart.Lerp(pt.ColorEnd, t)

		base := int(idx) * frame.Stride
		buf[base+frame.OffX] = pt.Pos.X*s.pubScale + s.pubOffsetX
		buf[base+frame.OffY] = pt.Pos.Y*s.pubScale + s.pubOffsetY
		buf[base+frame.OffSize] = pt.Size
		buf[base+frame.OffR] = c.R
		buf[base+frame.OffG] = c.G
		buf[base+frame.OffB] = c.B
		buf[base+frame.OffOpacity] = c.A
	})

	s.frames.Publish(s.pool.LiveCount())
}

// flushStats emits window statistics when a window closes.
func (s *Simulator) flushStats() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	s.ageSamples = s.ageSamples[:0]
	s.speedSamples = s.speedSamples[:0]
	s.pool.ForEachLive(func(_ int32, pt *particle.Particle) {
		s.ageSamples = append(s.ageSamples, float64(pt.Age))
		s.speedSamples = append(s.speedSamples, float64(vecLen(pt.Vel)))
	})

	stats := s.collector.Flush(s.tick, s.simTime, s.pool.LiveCount(), s.ageSamples, s.speedSamples)

	if s.logStats {
		stats.LogStats()
		s.perf.Stats().LogStats()
	}
	if s.output != nil {
		// CSV write failures must not halt the tick path.
		_ = s.output.WriteTelemetry(stats)
		_ = s.output.WritePerf(s.perf.Stats(), s.tick)
	}
}

// Frames returns the frame buffer for the render boundary.
func (s *Simulator) Frames() *frame.Buffer {
	return s.frames
}

// Pool returns the particle pool (read access for tests and overlays).
func (s *Simulator) Pool() *particle.Pool {
	return s.pool
}

// TickCount returns the number of completed ticks.
func (s *Simulator) TickCount() uint64 {
	return s.tick
}

// SimTime returns elapsed simulation time in seconds.
func (s *Simulator) SimTime() float64 {
	return s.simTime
}

// Perf returns the performance collector.
func (s *Simulator) Perf() *telemetry.PerfCollector {
	return s.perf
}

// Unload stops worker goroutines and closes output files. The simulator
// must not be ticked afterwards.
func (s *Simulator) Unload() {
	s.parallel.stopWorkers()
	if s.output != nil {
		_ = s.output.Close()
	}
}

func vecLen(v particle.Vec2) float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

// nominalDT converts the target frame rate into the tick duration used
// for window sizing. The simulator itself stays agnostic to wall-clock dt.
func nominalDT(cfg *config.Config) float64 {
	fps := cfg.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	return 1.0 / float64(fps)
}
