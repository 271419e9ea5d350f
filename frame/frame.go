// Package frame implements the double-buffered snapshot handed across the
// simulation/render boundary. The simulator writes one buffer while the
// renderer reads the other; an atomic pointer swap is the only
// synchronization on the path, keeping reads lock-free.
package frame

import (
	"sync/atomic"
)

// Attribute layout per particle slot. The buffer is a flat []float32 with
// Stride values per slot.
const (
	OffX       = 0
	OffY       = 1
	OffSize    = 2
	OffR       = 3
	OffG       = 4
	OffB       = 5
	OffOpacity = 6

	Stride = 7
)

// Frame is one published snapshot: the attribute data, the live particle
// count, and a monotonically increasing sequence number. A Frame returned
// by Buffer.Read stays internally consistent until the next Publish.
type Frame struct {
	Data []float32
	Live int
	Seq  uint64
}

// Buffer holds two pre-allocated frames and swaps them on publish. The
// writer owns the back frame between BeginWrite and Publish; readers only
// ever see the most recently published front frame.
type Buffer struct {
	frames    [2]Frame
	front     atomic.Pointer[Frame]
	writeIdx  int
	writing   bool
	published uint64
}

// NewBuffer allocates a double buffer sized to capacity slots. Both sides
// are allocated once and never reallocated.
func NewBuffer(capacity int) *Buffer {
	b := &Buffer{}
	for i := range b.frames {
		b.frames[i].Data = make([]float32, capacity*Stride)
	}
	b.writeIdx = 1
	b.front.Store(&b.frames[0])
	return b
}

// BeginWrite exposes the back buffer's attribute data for the simulator.
// It must not be called again before the matching Publish.
func (b *Buffer) BeginWrite() []float32 {
	if b.writing {
		panic("frame: BeginWrite called twice without Publish")
	}
	b.writing = true
	return b.frames[b.writeIdx].Data
}

// Publish records the live count, stamps the next sequence number, and
// atomically swaps the written buffer to the front.
func (b *Buffer) Publish(live int) {
	if !b.writing {
		panic("frame: Publish called without BeginWrite")
	}
	b.writing = false

	back := &b.frames[b.writeIdx]
	b.published++
	back.Live = live
	back.Seq = b.published

	b.front.Store(back)
	b.writeIdx = 1 - b.writeIdx
}

// Read returns the current front frame. It is safe to call from the render
// boundary at any time and always returns a complete frame; two reads with
// no intervening Publish return the identical frame.
func (b *Buffer) Read() *Frame {
	return b.front.Load()
}
