// Package telemetry collects per-window simulation statistics and
// per-phase performance timings.
package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks uint64

	windowStartTick uint64

	// Event counters for current window
	spawned  int
	rejected int
	retired  int
}

// NewCollector creates a stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
// dt: nominal seconds per tick (used for tick-to-time conversion).
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	ticksPerWindow := uint64(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
	}
}

// RecordSpawned records particles spawned this tick.
func (c *Collector) RecordSpawned(n int) {
	c.spawned += n
}

// RecordRejected records spawn requests dropped at capacity.
func (c *Collector) RecordRejected(n int) {
	c.rejected += n
}

// RecordRetired records particles retired this tick.
func (c *Collector) RecordRetired(n int) {
	c.retired += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats for the closing window and resets counters.
// ages and speeds are samples over live particles at window end.
func (c *Collector) Flush(currentTick uint64, simTime float64, live int, ages, speeds []float64) WindowStats {
	ageMean, _, ageP50, _ := ComputeSampleStats(ages)
	speedMean, _, speedP50, speedP90 := ComputeSampleStats(speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      simTime,
		Live:            live,
		Spawned:         c.spawned,
		Rejected:        c.rejected,
		Retired:         c.retired,
		AgeMean:         ageMean,
		AgeP50:          ageP50,
		SpeedMean:       speedMean,
		SpeedP50:        speedP50,
		SpeedP90:        speedP90,
	}

	c.windowStartTick = currentTick
	c.spawned = 0
	c.rejected = 0
	c.retired = 0

	return stats
}
