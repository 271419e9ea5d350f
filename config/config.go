// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Pool      PoolConfig      `yaml:"pool"`
	Grid      GridConfig      `yaml:"grid"`
	Emitter   EmitterConfig   `yaml:"emitter"`
	Forces    []ForceConfig   `yaml:"forces"`
	Publish   PublishConfig   `yaml:"publish"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ScreenConfig holds display settings for the graphical bootstrap.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds simulation world dimensions in world units.
// The spatial grid covers exactly this region; positions outside it
// clamp into edge cells.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PoolConfig holds particle pool parameters.
type PoolConfig struct {
	Capacity int `yaml:"capacity"`
}

// GridConfig holds spatial index parameters.
// CellSize should match the largest force interaction radius; smaller
// inflates cell traversal, larger degrades toward brute force.
type GridConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// EmitterConfig holds spawn policy parameters.
type EmitterConfig struct {
	Rate        float64        `yaml:"rate"`  // particles per second
	Burst       int            `yaml:"burst"` // one-shot count on first tick
	SpawnRegion RegionConfig   `yaml:"spawn_region"`
	Velocity    VelocityConfig `yaml:"velocity"`
	Lifespan    RangeConfig    `yaml:"lifespan"` // seconds
	Size        RangeConfig    `yaml:"size"`
	ColorStart  ColorConfig    `yaml:"color_start"`
	ColorEnd    ColorConfig    `yaml:"color_end"`
}

// RegionConfig describes where new particles appear.
// Shape is one of "point", "rect", "circle".
type RegionConfig struct {
	Shape  string  `yaml:"shape"`
	X      float64 `yaml:"x"` // center
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"` // rect extents
	Height float64 `yaml:"height"`
	Radius float64 `yaml:"radius"` // circle radius
}

// VelocityConfig describes the initial velocity distribution.
// Direction is in radians; Spread is the half-angle of the cone around it.
// A Spread of pi gives a full radial burst.
type VelocityConfig struct {
	Speed     RangeConfig `yaml:"speed"`
	Direction float64     `yaml:"direction"`
	Spread    float64     `yaml:"spread"`
}

// RangeConfig is an inclusive [min, max] sampling range.
type RangeConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ColorConfig holds an RGBA color with components in [0, 1].
type ColorConfig struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
	A float64 `yaml:"a"`
}

// ForceConfig declares one force contributor. Type selects the contributor;
// only the fields that type reads are meaningful.
type ForceConfig struct {
	Type string `yaml:"type"` // gravity, drag, point, density, turbulence

	// gravity
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`

	// drag
	Coefficient float64 `yaml:"coefficient"`

	// point (attract with strength > 0, repel with strength < 0)
	TargetX  float64 `yaml:"target_x"`
	TargetY  float64 `yaml:"target_y"`
	Strength float64 `yaml:"strength"`
	Exponent float64 `yaml:"exponent"`
	Epsilon  float64 `yaml:"epsilon"`

	// density
	Radius float64 `yaml:"radius"`

	// turbulence
	Scale float64 `yaml:"scale"` // noise spatial frequency
	Drift float64 `yaml:"drift"` // noise time evolution rate
}

// PublishConfig holds frame publication parameters. Scale and offset
// reframe published positions without touching simulation state.
type PublishConfig struct {
	Scale   float64 `yaml:"scale"`
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
}

// TelemetryConfig holds stats collection parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
}

// MustLoad is Load that panics on error. Intended for tests.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The returned config has
// passed validation; an invalid file never produces a usable Config.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would produce undefined per-tick
// behavior. Construction fails fast here rather than mid-tick.
func (c *Config) Validate() error {
	if c.Pool.Capacity <= 0 {
		return fmt.Errorf("config: pool capacity must be positive, got %d", c.Pool.Capacity)
	}
	if c.Grid.CellSize <= 0 {
		return fmt.Errorf("config: grid cell_size must be positive, got %g", c.Grid.CellSize)
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("config: world dimensions must be positive, got %gx%g", c.World.Width, c.World.Height)
	}
	if c.Emitter.Rate < 0 {
		return fmt.Errorf("config: emitter rate must be non-negative, got %g", c.Emitter.Rate)
	}
	if c.Emitter.Burst < 0 {
		return fmt.Errorf("config: emitter burst must be non-negative, got %d", c.Emitter.Burst)
	}
	if c.Emitter.Lifespan.Min <= 0 || c.Emitter.Lifespan.Max < c.Emitter.Lifespan.Min {
		return fmt.Errorf("config: lifespan range [%g, %g] is malformed",
			c.Emitter.Lifespan.Min, c.Emitter.Lifespan.Max)
	}
	if c.Emitter.Size.Min < 0 || c.Emitter.Size.Max < c.Emitter.Size.Min {
		return fmt.Errorf("config: size range [%g, %g] is malformed",
			c.Emitter.Size.Min, c.Emitter.Size.Max)
	}
	if c.Emitter.Velocity.Speed.Max < c.Emitter.Velocity.Speed.Min {
		return fmt.Errorf("config: speed range [%g, %g] is malformed",
			c.Emitter.Velocity.Speed.Min, c.Emitter.Velocity.Speed.Max)
	}
	switch c.Emitter.SpawnRegion.Shape {
	case "point", "rect", "circle":
	default:
		return fmt.Errorf("config: unknown spawn region shape %q", c.Emitter.SpawnRegion.Shape)
	}
	for i, f := range c.Forces {
		switch f.Type {
		case "gravity", "drag", "turbulence":
		case "point":
			if f.Epsilon <= 0 {
				return fmt.Errorf("config: forces[%d]: point force epsilon must be positive, got %g", i, f.Epsilon)
			}
		case "density":
			if f.Radius <= 0 {
				return fmt.Errorf("config: forces[%d]: density radius must be positive, got %g", i, f.Radius)
			}
		default:
			return fmt.Errorf("config: forces[%d]: unknown force type %q", i, f.Type)
		}
	}
	if c.Publish.Scale == 0 {
		return fmt.Errorf("config: publish scale must be non-zero")
	}
	if c.Telemetry.StatsWindow <= 0 {
		return fmt.Errorf("config: telemetry stats_window must be positive, got %g", c.Telemetry.StatsWindow)
	}
	return nil
}

// WriteYAML saves the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
