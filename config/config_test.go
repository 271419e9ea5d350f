package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Pool.Capacity <= 0 {
		t.Errorf("default capacity = %d, want positive", cfg.Pool.Capacity)
	}
	if cfg.Grid.CellSize <= 0 {
		t.Errorf("default cell size = %g, want positive", cfg.Grid.CellSize)
	}
	if len(cfg.Forces) == 0 {
		t.Error("default config has no force contributors")
	}
}

func TestLoadOverlaysUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	userYAML := `
pool:
  capacity: 777
emitter:
  rate: 123
`
	if err := os.WriteFile(path, []byte(userYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Pool.Capacity != 777 {
		t.Errorf("capacity = %d, want overridden 777", cfg.Pool.Capacity)
	}
	if cfg.Emitter.Rate != 123 {
		t.Errorf("rate = %g, want overridden 123", cfg.Emitter.Rate)
	}
	// Untouched sections keep defaults.
	if cfg.Grid.CellSize <= 0 {
		t.Errorf("cell size lost its default: %g", cfg.Grid.CellSize)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Pool.Capacity = 0 }},
		{"negative capacity", func(c *Config) { c.Pool.Capacity = -5 }},
		{"zero cell size", func(c *Config) { c.Grid.CellSize = 0 }},
		{"negative cell size", func(c *Config) { c.Grid.CellSize = -1 }},
		{"zero world width", func(c *Config) { c.World.Width = 0 }},
		{"negative rate", func(c *Config) { c.Emitter.Rate = -1 }},
		{"negative burst", func(c *Config) { c.Emitter.Burst = -1 }},
		{"zero lifespan min", func(c *Config) { c.Emitter.Lifespan = RangeConfig{Min: 0, Max: 1} }},
		{"inverted lifespan range", func(c *Config) { c.Emitter.Lifespan = RangeConfig{Min: 2, Max: 1} }},
		{"inverted speed range", func(c *Config) { c.Emitter.Velocity.Speed = RangeConfig{Min: 5, Max: 1} }},
		{"unknown spawn shape", func(c *Config) { c.Emitter.SpawnRegion.Shape = "blob" }},
		{"unknown force type", func(c *Config) { c.Forces = []ForceConfig{{Type: "warp"}} }},
		{"point force zero epsilon", func(c *Config) {
			c.Forces = []ForceConfig{{Type: "point", Strength: 1, Exponent: 2}}
		}},
		{"density zero radius", func(c *Config) {
			c.Forces = []ForceConfig{{Type: "density", Strength: 1}}
		}},
		{"zero publish scale", func(c *Config) { c.Publish.Scale = 0 }},
		{"zero stats window", func(c *Config) { c.Telemetry.StatsWindow = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MustLoad("")
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := MustLoad("")
	cfg.Pool.Capacity = 4242

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if loaded.Pool.Capacity != 4242 {
		t.Errorf("round-tripped capacity = %d, want 4242", loaded.Pool.Capacity)
	}
}
