package barneshut

import (
	"fmt"
	"math"
)

// CheckInvariants verifies a built tree against its particle store:
// every allocated particle is the occupant of exactly one node, occupied
// nodes have no children, internal nodes have at least one, and each
// node's mass and centroid accumulator equal the sums over its subtree.
// tol is relative to the total mass and total centroid magnitude.
func CheckInvariants(particles *ParticleStore, nodes *NodePool, tol float64) error {
	n := nodes.Len()
	if n == 0 {
		if particles.Len() == 0 {
			return nil
		}
		return fmt.Errorf("%w: %d particles but no nodes", ErrInvariant, particles.Len())
	}

	parent := make([]NodeID, n)
	for i := range parent {
		parent[i] = -1
	}
	seen := make([]int, particles.Len())

	for id := 0; id < n; id++ {
		node := nodes.at(NodeID(id))
		children := 0
		for _, c := range node.children {
			if c == Root {
				continue
			}
			if int(c) >= n || c <= NodeID(id) {
				return fmt.Errorf("%w: node %d has child %d out of order", ErrInvariant, id, c)
			}
			if parent[c] != -1 {
				return fmt.Errorf("%w: node %d has two parents", ErrInvariant, c)
			}
			parent[c] = NodeID(id)
			children++
		}

		switch node.occ.tag {
		case TagOccupied:
			if children > 0 {
				return fmt.Errorf("%w: occupied node %d has %d children", ErrInvariant, id, children)
			}
			p := int(node.occ.particle)
			if p < 0 || p >= len(seen) {
				return fmt.Errorf("%w: node %d holds unknown particle %d", ErrInvariant, id, p)
			}
			seen[p]++
		case TagInternal:
			if children == 0 {
				return fmt.Errorf("%w: internal node %d has no children", ErrInvariant, id)
			}
		case TagEmpty:
			if children > 0 {
				return fmt.Errorf("%w: empty node %d has children", ErrInvariant, id)
			}
		}
	}

	for p, c := range seen {
		if c != 1 {
			return fmt.Errorf("%w: particle %d appears %d times", ErrInvariant, p, c)
		}
	}

	// Children always carry larger ids than their parent, so a reverse
	// sweep sees every subtree complete before its root.
	mass := make([]float64, n)
	centroid := make([]Vec, n)
	for id := n - 1; id >= 0; id-- {
		node := nodes.at(NodeID(id))
		if p, ok := node.occ.Particle(); ok {
			m := particles.mass[p]
			mass[id] += m
			centroid[id] = centroid[id].Add(particles.pos[p].Scale(m))
		}
		if pid := parent[id]; pid >= 0 {
			mass[pid] += mass[id]
			centroid[pid] = centroid[pid].Add(centroid[id])
		}
	}

	mscale := math.Max(mass[0], 1)
	cscale := math.Max(centroid[0].Norm(), 1)
	for id := 0; id < n; id++ {
		node := nodes.at(NodeID(id))
		if math.Abs(node.mass-mass[id]) > tol*mscale {
			return fmt.Errorf("%w: node %d mass %g, subtree sum %g", ErrInvariant, id, node.mass, mass[id])
		}
		if node.centroid.Sub(centroid[id]).Norm() > tol*cscale {
			return fmt.Errorf("%w: node %d centroid %v, subtree sum %v", ErrInvariant, id, node.centroid, centroid[id])
		}
	}
	if math.Abs(mass[0]-particles.TotalMass()) > tol*mscale {
		return fmt.Errorf("%w: root mass %g, total %g", ErrInvariant, mass[0], particles.TotalMass())
	}
	return nil
}
