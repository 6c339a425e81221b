// Package barneshut implements a flat, recursion-free Barnes-Hut quadtree.
//
// All state lives in caller-owned arenas:
//
//   - [ParticleStore]: append-only particle table (position, velocity, mass)
//   - [NodePool]: node table reset in bulk before every rebuild
//   - [WorkQueue]: bounded stack of deferred [WorkItem] records
//
// Both tables hand out ids from atomic bump counters and never grow past the
// capacity fixed at construction. Tree construction ([Builder]) is
// sequential; force evaluation ([Evaluator]) only reads the tables and may be
// run from any number of goroutines, each with its own [WorkQueue].
//
// # Lazy centroids
//
// Nodes keep the mass-weighted position sum and the total mass separately.
// The center of mass is only formed when read:
//
//	n := pool.Node(barneshut.Root)
//	if com, ok := n.CenterOfMass(); ok {
//	    _ = com
//	}
package barneshut
