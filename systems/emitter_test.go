package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/particle"
)

func testEmitterConfig() config.EmitterConfig {
	return config.EmitterConfig{
		Rate: 50,
		SpawnRegion: config.RegionConfig{
			Shape: "point", X: 100, Y: 100,
		},
		Velocity: config.VelocityConfig{
			Speed:     config.RangeConfig{Min: 10, Max: 20},
			Direction: 0,
			Spread:    math.Pi,
		},
		Lifespan:   config.RangeConfig{Min: 1, Max: 2},
		Size:       config.RangeConfig{Min: 1, Max: 1},
		ColorStart: config.ColorConfig{R: 1, G: 1, B: 1, A: 1},
		ColorEnd:   config.ColorConfig{A: 0},
	}
}

func TestTickSpawnCountWholeRate(t *testing.T) {
	e := NewEmitter(testEmitterConfig(), rand.New(rand.NewSource(1)))

	// rate 50/s at dt 0.1 is exactly 5 per tick
	for i := 0; i < 10; i++ {
		out := e.Tick(0.1, nil)
		if len(out) != 5 {
			t.Fatalf("tick %d spawned %d, want 5", i, len(out))
		}
	}
}

func TestTickFractionalCarry(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		dt    float32
		ticks int
	}{
		{"sub-unit rate", 0.7, 0.1, 1000},
		{"non-divisible rate", 33.3, 1.0 / 60.0, 600},
		{"high rate", 999.9, 0.016, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testEmitterConfig()
			cfg.Rate = tt.rate
			e := NewEmitter(cfg, rand.New(rand.NewSource(7)))

			total := 0
			for i := 0; i < tt.ticks; i++ {
				total += len(e.Tick(tt.dt, nil))
			}

			// Long-run average must converge within one particle.
			want := tt.rate * float64(tt.dt) * float64(tt.ticks)
			if math.Abs(float64(total)-want) >= 1 {
				t.Errorf("spawned %d over %d ticks, want %v +/- 1", total, tt.ticks, want)
			}
		})
	}
}

func TestBurstEmitsOnceOnFirstTick(t *testing.T) {
	cfg := testEmitterConfig()
	cfg.Rate = 0
	cfg.Burst = 25
	e := NewEmitter(cfg, rand.New(rand.NewSource(1)))

	if got := len(e.Tick(0.1, nil)); got != 25 {
		t.Fatalf("first tick spawned %d, want burst of 25", got)
	}
	if got := len(e.Tick(0.1, nil)); got != 0 {
		t.Errorf("second tick spawned %d, want 0", got)
	}
}

func TestSeededSequencesAreIdentical(t *testing.T) {
	a := NewEmitter(testEmitterConfig(), rand.New(rand.NewSource(42)))
	b := NewEmitter(testEmitterConfig(), rand.New(rand.NewSource(42)))

	for i := 0; i < 50; i++ {
		sa := a.Tick(0.1, nil)
		sb := b.Tick(0.1, nil)
		if len(sa) != len(sb) {
			t.Fatalf("tick %d: counts differ (%d vs %d)", i, len(sa), len(sb))
		}
		for j := range sa {
			if sa[j] != sb[j] {
				t.Fatalf("tick %d particle %d: states differ\n%+v\n%+v", i, j, sa[j], sb[j])
			}
		}
	}
}

func TestSampledStateRespectsDistributions(t *testing.T) {
	cfg := testEmitterConfig()
	cfg.SpawnRegion = config.RegionConfig{Shape: "circle", X: 50, Y: 60, Radius: 10}
	e := NewEmitter(cfg, rand.New(rand.NewSource(3)))

	var states []particle.InitState
	for i := 0; i < 40; i++ {
		states = e.Tick(0.1, states)
	}
	if len(states) == 0 {
		t.Fatal("no particles emitted")
	}

	for i, st := range states {
		dx := float64(st.Pos.X - 50)
		dy := float64(st.Pos.Y - 60)
		if math.Sqrt(dx*dx+dy*dy) > 10+1e-3 {
			t.Errorf("particle %d spawned at (%v, %v), outside circle", i, st.Pos.X, st.Pos.Y)
		}
		if st.Lifespan < 1 || st.Lifespan > 2 {
			t.Errorf("particle %d lifespan %v outside [1, 2]", i, st.Lifespan)
		}
		speed := math.Sqrt(float64(st.Vel.X*st.Vel.X + st.Vel.Y*st.Vel.Y))
		if speed < 10-1e-3 || speed > 20+1e-3 {
			t.Errorf("particle %d speed %v outside [10, 20]", i, speed)
		}
	}
}

func TestRectRegionBounds(t *testing.T) {
	cfg := testEmitterConfig()
	cfg.SpawnRegion = config.RegionConfig{Shape: "rect", X: 0, Y: 0, Width: 20, Height: 10}
	e := NewEmitter(cfg, rand.New(rand.NewSource(9)))

	var states []particle.InitState
	for i := 0; i < 40; i++ {
		states = e.Tick(0.1, states)
	}

	for i, st := range states {
		if st.Pos.X < -10 || st.Pos.X > 10 || st.Pos.Y < -5 || st.Pos.Y > 5 {
			t.Errorf("particle %d spawned at (%v, %v), outside rect", i, st.Pos.X, st.Pos.Y)
		}
	}
}
