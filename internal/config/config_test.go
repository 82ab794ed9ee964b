package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/massgrid/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.SimConfig().Dims().Count() != 64 {
		t.Errorf("expected 64 nodes, got %d", cfg.SimConfig().Dims().Count())
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.yaml")
	data := []byte(`
grid:
  block_size_x: 5
  block_size_y: 3
  blocks_x: 2
  blocks_y: 1
  layers: 2
physics:
  mass: 2
  damping: 0.3
  stiffness: 15
  rest_length: 0.5
  max_touch_force: 80
dt: 0.01
touches:
  - frame: 3
    node: 7
    pressure: {z: 1}
    hold: 2
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config invalid: %v", err)
	}

	dims := cfg.SimConfig().Dims()
	if dims.X != 10 || dims.Y != 3 || dims.Layers != 2 {
		t.Errorf("dims = %v", dims)
	}
	if cfg.Physics.Stiffness != 15 || cfg.Params().RestLength != 0.5 {
		t.Errorf("physics not loaded: %+v", cfg.Physics)
	}
	if cfg.Frames != DefaultFrames {
		t.Errorf("frames should keep default, got %d", cfg.Frames)
	}

	script := cfg.Script()
	for f := 0; f < 3; f++ {
		if ev := script.Drain(); len(ev) != 0 {
			t.Errorf("frame %d: unexpected events %v", f, ev)
		}
	}
	for f := 3; f < 5; f++ {
		ev := script.Drain()
		if len(ev) != 1 || ev[0].Node != 7 || ev[0].Pressure.Z != 1 {
			t.Errorf("frame %d: events %v", f, ev)
		}
	}
}

func TestSaveLoadPreservesGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetPreset("tower")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if back.Grid != cfg.Grid || back.Physics != cfg.Physics {
		t.Errorf("round trip changed config: %+v vs %+v", back, cfg)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *Config)
	}{
		{"zero layers", func(c *Config) { c.Grid.Layers = 0 }},
		{"zero block", func(c *Config) { c.Grid.BlockSizeY = 0 }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"bad damping", func(c *Config) { c.Physics.Damping = 1 }},
		{"touch out of grid", func(c *Config) { c.Touches = []TouchConfig{{Node: 64}} }},
		{"negative hold", func(c *Config) { c.Touches = []TouchConfig{{Node: 1, Hold: -1}} }},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s missing", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPreset_ReturnsCopy(t *testing.T) {
	a := GetPreset("cube")
	a.Touches[0].Node = 0
	b := GetPreset("cube")
	if b.Touches[0].Node != 21 {
		t.Error("preset mutated through returned config")
	}
}
