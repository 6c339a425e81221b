// Package compute provides data-parallel kernel launchers.
//
// A Backend runs a loop body once per index and returns only after every
// iteration has finished, so each launch is also a barrier:
//
//	backend := compute.NewCPUBackend(0)
//	backend.For(len(acc), func(i, worker int) {
//	    acc[i] = evaluate(i, stacks[worker])
//	})
//
// The worker index is stable for the duration of one iteration and lies in
// [0, Workers()), which lets callers hand each worker private scratch
// memory.
package compute
