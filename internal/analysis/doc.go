// Package analysis post-processes recorded runs.
//
//   - [PowerSpectrum]: one-sided spectrum of a sampled metric series
//   - [RadialPortrait]: radius against radial velocity for one snapshot
//   - [Divergence]: separation between two runs of the same scene
//   - [GrowthRate]: exponential growth rate of a separation curve
//
// A positive growth rate between runs started a tiny perturbation apart
// shows how quickly the tree approximation error is amplified:
//
//	d := analysis.Divergence(a.Frames, b.Frames)
//	lambda := analysis.GrowthRate(a.Times[:len(d)], d)
package analysis
