package systems

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/particle"
)

// distEpsilon clamps near-zero distances in inverse-distance math. Without
// it acceleration diverges as particles overlap; this is a correctness
// guard, not an optimization.
const distEpsilon = 1e-4

// Env carries the per-evaluation context a contributor may read: the
// spatial index, the pool backing it, the current simulation time, and a
// reusable neighbor scratch buffer. Each worker owns its own Env, so
// contributors stay race-free without locking.
type Env struct {
	Grid      *SpatialGrid
	Pool      *particle.Pool
	Time      float32
	Neighbors []Neighbor // scratch, reused across evaluations
}

// Contributor computes one acceleration contribution from particle state
// and optional neighbor context. Contributors are pure: they read particle
// state and global parameters, never each other's output.
type Contributor interface {
	Accel(idx int32, p *particle.Particle, env *Env) particle.Vec2
}

// Field is an ordered list of force contributors, summed per evaluation.
// The list is fixed at construction; summation is commutative, so order
// carries no semantics.
type Field struct {
	contributors []Contributor
}

// NewField builds a force field from declarative config. The seed feeds
// time-varying noise contributors so runs reproduce under a fixed seed.
func NewField(cfgs []config.ForceConfig, seed int64) (*Field, error) {
	f := &Field{contributors: make([]Contributor, 0, len(cfgs))}
	for i, c := range cfgs {
		switch c.Type {
		case "gravity":
			f.contributors = append(f.contributors, &Gravity{
				Vector: particle.Vec2{X: float32(c.X), Y: float32(c.Y)},
			})
		case "drag":
			f.contributors = append(f.contributors, &Drag{
				Coefficient: float32(c.Coefficient),
			})
		case "point":
			f.contributors = append(f.contributors, &PointForce{
				Target:   particle.Vec2{X: float32(c.TargetX), Y: float32(c.TargetY)},
				Strength: float32(c.Strength),
				Exponent: float32(c.Exponent),
				Epsilon:  float32(c.Epsilon),
			})
		case "density":
			f.contributors = append(f.contributors, &DensityRepulsion{
				Radius:   float32(c.Radius),
				Strength: float32(c.Strength),
			})
		case "turbulence":
			f.contributors = append(f.contributors, NewTurbulence(
				float32(c.Strength), float32(c.Scale), float32(c.Drift), seed,
			))
		default:
			return nil, fmt.Errorf("forces: contributor %d has unknown type %q", i, c.Type)
		}
	}
	return f, nil
}

// Evaluate sums every contributor's acceleration for the given particle.
func (f *Field) Evaluate(idx int32, p *particle.Particle, env *Env) particle.Vec2 {
	var acc particle.Vec2
	for _, c := range f.contributors {
		acc = acc.Add(c.Accel(idx, p, env))
	}
	return acc
}

// Len returns the number of contributors.
func (f *Field) Len() int {
	return len(f.contributors)
}

// Gravity applies a constant acceleration.
type Gravity struct {
	Vector particle.Vec2
}

// Accel implements Contributor.
func (g *Gravity) Accel(_ int32, _ *particle.Particle, _ *Env) particle.Vec2 {
	return g.Vector
}

// Drag applies linear drag: -k * velocity.
type Drag struct {
	Coefficient float32
}

// Accel implements Contributor.
func (d *Drag) Accel(_ int32, p *particle.Particle, _ *Env) particle.Vec2 {
	return p.Vel.Scale(-d.Coefficient)
}

// PointForce attracts (Strength > 0) or repels (Strength < 0) toward a
// fixed point: strength * (target - pos) / max(dist, epsilon)^exponent.
// Epsilon clamps the singularity at the target.
type PointForce struct {
	Target   particle.Vec2
	Strength float32
	Exponent float32
	Epsilon  float32
}

// Accel implements Contributor.
func (f *PointForce) Accel(_ int32, p *particle.Particle, _ *Env) particle.Vec2 {
	delta := f.Target.Sub(p.Pos)
	dist := float32(math.Sqrt(float64(delta.LenSq())))
	if dist < f.Epsilon {
		dist = f.Epsilon
	}
	denom := float32(math.Pow(float64(dist), float64(f.Exponent)))
	return delta.Scale(f.Strength / denom)
}

// DensityRepulsion pushes particles apart in crowded regions. Each
// neighbor within Radius contributes a repulsion falling off linearly
// with distance. Requires the spatial grid.
type DensityRepulsion struct {
	Radius   float32
	Strength float32
}

// Accel implements Contributor.
func (d *DensityRepulsion) Accel(idx int32, p *particle.Particle, env *Env) particle.Vec2 {
	env.Neighbors = env.Grid.QueryRadiusInto(
		env.Neighbors[:0], p.Pos.X, p.Pos.Y, d.Radius, idx, env.Pool,
	)

	var acc particle.Vec2
	for i := range env.Neighbors {
		n := &env.Neighbors[i]
		dist := float32(math.Sqrt(float64(n.DistSq)))
		if dist < distEpsilon {
			dist = distEpsilon
		}
		// Away from the neighbor, fading to zero at the radius edge.
		w := d.Strength * (1 - dist/d.Radius) / dist
		acc.X -= n.DX * w
		acc.Y -= n.DY * w
	}
	return acc
}

// Turbulence samples a time-varying simplex noise field as an
// acceleration. Two decorrelated channels give the X and Y components.
type Turbulence struct {
	Strength float32
	Scale    float32
	Drift    float32
	noise    opensimplex.Noise
}

// NewTurbulence creates a turbulence contributor seeded for reproducibility.
func NewTurbulence(strength, scale, drift float32, seed int64) *Turbulence {
	return &Turbulence{
		Strength: strength,
		Scale:    scale,
		Drift:    drift,
		noise:    opensimplex.New(seed),
	}
}

// Accel implements Contributor.
func (t *Turbulence) Accel(_ int32, p *particle.Particle, env *Env) particle.Vec2 {
	x := float64(p.Pos.X * t.Scale)
	y := float64(p.Pos.Y * t.Scale)
	z := float64(env.Time * t.Drift)

	// Offset the second sample far from the first so the channels do not
	// correlate.
	ax := t.noise.Eval3(x, y, z)
	ay := t.noise.Eval3(x+137.2, y-91.7, z)

	return particle.Vec2{
		X: float32(ax) * t.Strength,
		Y: float32(ay) * t.Strength,
	}
}
