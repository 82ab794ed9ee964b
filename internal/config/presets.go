package config

import "sort"

// Presets are ready-made grids. Values left zero are filled from
// DefaultConfig by GetPreset.
var Presets = map[string]*Config{
	"cube": {
		Grid:    GridConfig{BlockSizeX: 4, BlockSizeY: 4, BlocksX: 1, BlocksY: 1, Layers: 4},
		Physics: PhysicsConfig{Mass: 1, Damping: 0.1, Stiffness: 10, RestLength: 1, MaxTouchForce: 100},
		Touches: []TouchConfig{{Frame: 0, Node: 21, Pressure: VecConfig{Z: 1}, Hold: 5}},
	},
	"slab": {
		Grid:    GridConfig{BlockSizeX: 8, BlockSizeY: 8, BlocksX: 2, BlocksY: 2, Layers: 3},
		Physics: PhysicsConfig{Mass: 1, Damping: 0.2, Stiffness: 20, RestLength: 1, MaxTouchForce: 150},
		Touches: []TouchConfig{{Frame: 0, Node: 8 + 8*16 + 256, Pressure: VecConfig{Z: 1}, Hold: 10}},
	},
	"tower": {
		Grid:    GridConfig{BlockSizeX: 4, BlockSizeY: 4, BlocksX: 1, BlocksY: 1, Layers: 12},
		Physics: PhysicsConfig{Mass: 2, Damping: 0.15, Stiffness: 40, RestLength: 0.5, MaxTouchForce: 200},
		Touches: []TouchConfig{{Frame: 0, Node: 1 + 1*4 + 6*16, Pressure: VecConfig{X: 1}, Hold: 8}},
	},
	"soft": {
		Grid:    GridConfig{BlockSizeX: 6, BlockSizeY: 6, BlocksX: 1, BlocksY: 1, Layers: 4},
		Physics: PhysicsConfig{Mass: 4, Damping: 0.05, Stiffness: 2, RestLength: 1, MaxTouchForce: 60},
		Touches: []TouchConfig{{Frame: 0, Node: 2 + 2*6 + 36, Pressure: VecConfig{Z: 1}, Hold: 20}},
	},
	"stiff": {
		Grid:    GridConfig{BlockSizeX: 6, BlockSizeY: 6, BlocksX: 1, BlocksY: 1, Layers: 4},
		Physics: PhysicsConfig{Mass: 1, Damping: 0.5, Stiffness: 90, RestLength: 1, MaxTouchForce: 400},
		Touches: []TouchConfig{{Frame: 0, Node: 2 + 2*6 + 36, Pressure: VecConfig{Z: 1}, Hold: 3}},
	},
}

// GetPreset returns a copy of the named preset merged over the defaults,
// or nil if it does not exist.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Grid = p.Grid
	cfg.Physics = p.Physics
	cfg.Touches = append([]TouchConfig(nil), p.Touches...)
	if p.Dt > 0 {
		cfg.Dt = p.Dt
	}
	if p.Frames > 0 {
		cfg.Frames = p.Frames
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
