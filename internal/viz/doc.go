// Package viz provides the terminal view of a running grid.
//
// The live view is a Bubble Tea program built around [Model]:
//
//   - a per-layer displacement heatmap with a node cursor
//   - a Braille [Canvas] wireframe of the whole grid
//   - kinetic and spring energy plotted with asciigraph
//
// # Key Bindings
//
//	Arrows  - Move the cursor within the layer
//	, .     - Previous/next layer
//	Space   - Poke the node under the cursor
//	P       - Pause/Resume simulation
//	R       - Reset to rest
//	Tab     - Cycle parameters
//	K/J     - Increase/decrease parameter (5%)
//	M       - Toggle heatmap/wireframe
//	X Y Z   - Rotate wireframe (shift reverses)
//	T       - Cycle color themes
//	?       - Show help overlay
package viz
