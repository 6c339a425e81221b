// Package viz renders particle simulations in the terminal.
//
// The live view is a Bubble Tea program built around [Model]:
//
//   - [Canvas]: Braille sub-pixel canvas for particles and quadtree cells
//   - [Recorder]: GIF capture of canvas frames
//   - [Theme]: colour schemes for the side panel
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Rebuild the scene from its seed
//	M     - Toggle Barnes-Hut / brute force evaluation
//	+/-   - Raise or lower the shape factor
//	B     - Outline quadtree cells
//	G     - Toggle GIF recording
//	T     - Cycle color themes
//	Q/Esc - Quit
//
// # Recording
//
// Pressing G a second time writes the captured frames as an animated GIF to
// the path given in [Options].
package viz
