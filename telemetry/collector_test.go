package telemetry

import (
	"testing"
)

func TestCollectorWindowBoundaries(t *testing.T) {
	// 1 second windows at 60 ticks per second
	c := NewCollector(1.0, 1.0/60.0)

	for tick := uint64(1); tick < 60; tick++ {
		if c.ShouldFlush(tick) {
			t.Fatalf("flush signaled at tick %d, before the window closed", tick)
		}
	}
	if !c.ShouldFlush(60) {
		t.Fatal("no flush signaled at window boundary")
	}
}

func TestCollectorFlushResetsCounters(t *testing.T) {
	c := NewCollector(1.0, 0.1)

	c.RecordSpawned(10)
	c.RecordRejected(3)
	c.RecordRetired(7)

	stats := c.Flush(10, 1.0, 42, nil, nil)

	if stats.Spawned != 10 || stats.Rejected != 3 || stats.Retired != 7 {
		t.Errorf("stats = %+v, want spawned 10, rejected 3, retired 7", stats)
	}
	if stats.Live != 42 {
		t.Errorf("live = %d, want 42", stats.Live)
	}
	if stats.WindowEndTick != 10 {
		t.Errorf("window end = %d, want 10", stats.WindowEndTick)
	}

	// Next window starts clean.
	next := c.Flush(20, 2.0, 42, nil, nil)
	if next.Spawned != 0 || next.Rejected != 0 || next.Retired != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStartTick != 10 {
		t.Errorf("next window start = %d, want 10", next.WindowStartTick)
	}
}

func TestCollectorTinyWindowFlushesEveryTick(t *testing.T) {
	c := NewCollector(0.001, 0.1) // window shorter than one tick
	if !c.ShouldFlush(1) {
		t.Error("sub-tick window should flush every tick")
	}
}
