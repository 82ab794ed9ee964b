// Package analysis characterizes recorded node motion.
//
// A node trace is reduced to a scalar series with [Displacement] or
// [Component], after which:
//
//   - [PowerSpectrum]: magnitude spectrum of the series
//   - [DominantFrequency]: strongest non-DC oscillation in Hz
//   - [NewPhasePortrait]: displacement against its rate of change
//
// # Ringing
//
// A poked grid rings at a frequency set by stiffness and mass:
//
//	d := analysis.Displacement(trace, trace[0])
//	hz, _ := analysis.DominantFrequency(d, dt)
package analysis
