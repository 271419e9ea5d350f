// Package particle defines the particle record and its fixed-capacity pool.
package particle

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float32
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v * s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// LenSq returns the squared length of v.
func (v Vec2) LenSq() float32 {
	return v.X*v.X + v.Y*v.Y
}

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Lerp returns the linear interpolation between c and o at t in [0, 1].
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

// Particle is one simulated particle. Records live in pool slots and are
// addressed by slot index; the index is recycled once the particle retires.
type Particle struct {
	Pos        Vec2
	Vel        Vec2
	Age        float32 // seconds since spawn
	Lifespan   float32 // seconds until retirement, fixed at spawn
	Size       float32
	ColorStart Color
	ColorEnd   Color
}

// LifeT returns age/lifespan clamped to [0, 1], the interpolation
// parameter for rendering attributes.
func (p *Particle) LifeT() float32 {
	if p.Lifespan <= 0 {
		return 1
	}
	t := p.Age / p.Lifespan
	if t > 1 {
		t = 1
	}
	return t
}

// InitState is the spawn-time state of a particle, produced by the emitter.
type InitState struct {
	Pos        Vec2
	Vel        Vec2
	Lifespan   float32
	Size       float32
	ColorStart Color
	ColorEnd   Color
}
