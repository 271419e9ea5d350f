package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/particle"
)

// Emitter decides how many particles to spawn each tick and with what
// initial state. The rng is injected so a fixed seed reproduces the exact
// spawn sequence.
type Emitter struct {
	cfg config.EmitterConfig
	rng *rand.Rand

	carry     float64 // fractional spawn count carried across ticks
	burstDone bool
}

// NewEmitter creates an emitter from config with an injected random source.
func NewEmitter(cfg config.EmitterConfig, rng *rand.Rand) *Emitter {
	return &Emitter{cfg: cfg, rng: rng}
}

// Tick produces the initial states to spawn for a step of dt seconds,
// appending to dst. The fractional remainder of rate*dt carries forward so
// non-integer rates hit the correct long-run average instead of truncating.
func (e *Emitter) Tick(dt float32, dst []particle.InitState) []particle.InitState {
	count := 0

	if !e.burstDone {
		count += e.cfg.Burst
		e.burstDone = true
	}

	e.carry += e.cfg.Rate * float64(dt)
	whole := math.Floor(e.carry)
	e.carry -= whole
	count += int(whole)

	for i := 0; i < count; i++ {
		dst = append(dst, e.sample())
	}
	return dst
}

// sample draws one initial particle state from the configured distributions.
func (e *Emitter) sample() particle.InitState {
	return particle.InitState{
		Pos:        e.samplePosition(),
		Vel:        e.sampleVelocity(),
		Lifespan:   float32(e.uniform(e.cfg.Lifespan)),
		Size:       float32(e.uniform(e.cfg.Size)),
		ColorStart: toColor(e.cfg.ColorStart),
		ColorEnd:   toColor(e.cfg.ColorEnd),
	}
}

func (e *Emitter) samplePosition() particle.Vec2 {
	r := e.cfg.SpawnRegion
	switch r.Shape {
	case "rect":
		return particle.Vec2{
			X: float32(r.X + (e.rng.Float64()-0.5)*r.Width),
			Y: float32(r.Y + (e.rng.Float64()-0.5)*r.Height),
		}
	case "circle":
		// sqrt on the radius for uniform area density
		ang := e.rng.Float64() * 2 * math.Pi
		rad := math.Sqrt(e.rng.Float64()) * r.Radius
		return particle.Vec2{
			X: float32(r.X + math.Cos(ang)*rad),
			Y: float32(r.Y + math.Sin(ang)*rad),
		}
	default: // point
		return particle.Vec2{X: float32(r.X), Y: float32(r.Y)}
	}
}

func (e *Emitter) sampleVelocity() particle.Vec2 {
	v := e.cfg.Velocity
	speed := e.uniform(v.Speed)
	ang := v.Direction + (e.rng.Float64()*2-1)*v.Spread
	return particle.Vec2{
		X: float32(math.Cos(ang) * speed),
		Y: float32(math.Sin(ang) * speed),
	}
}

func (e *Emitter) uniform(r config.RangeConfig) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + e.rng.Float64()*(r.Max-r.Min)
}

func toColor(c config.ColorConfig) particle.Color {
	return particle.Color{
		R: float32(c.R),
		G: float32(c.G),
		B: float32(c.B),
		A: float32(c.A),
	}
}
