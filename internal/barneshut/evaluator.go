package barneshut

import (
	"fmt"
	"math"
)

type Mode uint8

const (
	ModeTree Mode = iota
	ModeBruteForce
)

func (m Mode) String() string {
	switch m {
	case ModeTree:
		return "tree"
	case ModeBruteForce:
		return "brute"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "tree", "barnes-hut", "bh":
		return ModeTree, nil
	case "brute", "brute_force", "bruteforce", "direct":
		return ModeBruteForce, nil
	}
	return ModeTree, fmt.Errorf("unknown evaluation mode: %s", s)
}

// Kernel is the Plummer-softened inverse-square law d / (|d|² + softening)^(3/2).
func Kernel(d Vec, softening float64) Vec {
	r2 := d.Norm2() + softening
	if r2 == 0 {
		return Vec{}
	}
	return d.Scale(1 / (r2 * math.Sqrt(r2)))
}

// Traversal counts the work done by one evaluation.
type Traversal struct {
	Opened       int // internal nodes expanded
	Aggregated   int // internal nodes used as a single body
	Interactions int // kernel evaluations
}

func (t *Traversal) Add(o Traversal) {
	t.Opened += o.Opened
	t.Aggregated += o.Aggregated
	t.Interactions += o.Interactions
}

// Evaluator computes accelerations from a built tree. It never writes to
// the particle store or node pool.
type Evaluator struct {
	particles *ParticleStore
	nodes     *NodePool
	domain    Domain

	Softening float64
	Gravity   float64
}

func NewEvaluator(particles *ParticleStore, nodes *NodePool, domain Domain) *Evaluator {
	return &Evaluator{
		particles: particles,
		nodes:     nodes,
		domain:    domain,
		Softening: 1e-3,
		Gravity:   1.0,
	}
}

func (e *Evaluator) SetDomain(d Domain) { e.domain = d }

// AccelerationAt walks the tree from the root using stack for deferred
// nodes. A child is used as one body when
//
//	shapeFactor² · |com - q|² > (4 · childHalf)²
//
// and q lies outside the child's box; otherwise it is expanded. The
// length on the right is the parent's width. A zero shape factor expands
// everything and matches BruteForceAt.
func (e *Evaluator) AccelerationAt(q Vec, shapeFactor float64, stack *WorkQueue) (Vec, Traversal, error) {
	var acc Vec
	var tr Traversal
	if e.nodes.Len() == 0 {
		return acc, tr, nil
	}

	sf2 := shapeFactor * shapeFactor
	pos, mass := e.particles.pos, e.particles.mass

	stack.Reset()
	if err := stack.Push(WorkItem{Subject: NoSubject, Node: Root, Center: e.domain.Center, Half: e.domain.Half}); err != nil {
		return acc, tr, err
	}

	for it, ok := stack.Pop(); ok; it, ok = stack.Pop() {
		n := e.nodes.at(it.Node)

		switch n.occ.tag {
		case TagOccupied:
			i := n.occ.particle
			acc = acc.Add(Kernel(pos[i].Sub(q), e.Softening).Scale(mass[i]))
			tr.Interactions++

		case TagInternal:
			tr.Opened++
			for quad := Quadrant(0); quad < Branch; quad++ {
				id := n.children[quad]
				if id == Root {
					continue
				}
				child := e.nodes.at(id)
				com, ok := child.CenterOfMass()
				if !ok {
					continue
				}

				if i, leaf := child.occ.Particle(); leaf {
					acc = acc.Add(Kernel(pos[i].Sub(q), e.Softening).Scale(mass[i]))
					tr.Interactions++
					continue
				}

				center, half := quad.Frame(it.Center, it.Half)
				d := com.Sub(q)
				if sf2*d.Norm2() > 16*half*half && !(Domain{Center: center, Half: half}).Contains(q) {
					acc = acc.Add(Kernel(d, e.Softening).Scale(child.mass))
					tr.Aggregated++
					tr.Interactions++
					continue
				}

				if err := stack.Push(WorkItem{Subject: NoSubject, Node: id, Center: center, Half: half, Depth: it.Depth + 1}); err != nil {
					return acc, tr, err
				}
			}
		}
	}

	return acc.Scale(e.Gravity), tr, nil
}

// BruteForceAt sums every particle's contribution directly.
func (e *Evaluator) BruteForceAt(q Vec) Vec {
	var acc Vec
	pos, mass := e.particles.Positions(), e.particles.Masses()
	for i := range mass {
		acc = acc.Add(Kernel(pos[i].Sub(q), e.Softening).Scale(mass[i]))
	}
	return acc.Scale(e.Gravity)
}

// StackCapacity is a work stack size sufficient for any traversal of a
// tree built with the given depth bound.
func StackCapacity(maxDepth int) int { return Branch*maxDepth + 1 }
