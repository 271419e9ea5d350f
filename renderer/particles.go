// Package renderer draws published frame snapshots. It lives entirely on
// the read side of the frame buffer and never touches simulation state.
package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/plume/frame"
)

// ParticleRenderer renders the particles of a frame snapshot.
type ParticleRenderer struct{}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{}
}

// Draw renders every visible particle in the snapshot. Dead slots carry
// zero opacity and are skipped without touching the rest of their record.
func (r *ParticleRenderer) Draw(f *frame.Frame) {
	n := len(f.Data) / frame.Stride
	for i := 0; i < n; i++ {
		base := i * frame.Stride

		opacity := f.Data[base+frame.OffOpacity]
		if opacity <= 0 {
			continue
		}

		color := rl.Color{
			R: clamp8(f.Data[base+frame.OffR]),
			G: clamp8(f.Data[base+frame.OffG]),
			B: clamp8(f.Data[base+frame.OffB]),
			A: clamp8(opacity),
		}

		rl.DrawCircleV(rl.Vector2{
			X: f.Data[base+frame.OffX],
			Y: f.Data[base+frame.OffY],
		}, f.Data[base+frame.OffSize], color)
	}
}

// DrawHUD renders the frame counters in the top-left corner.
func (r *ParticleRenderer) DrawHUD(f *frame.Frame) {
	text := fmt.Sprintf("live %d  frame %d  fps %d", f.Live, f.Seq, rl.GetFPS())
	rl.DrawText(text, 10, 10, 20, rl.RayWhite)
}

// clamp8 converts a [0, 1] float attribute to a byte channel.
func clamp8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}
