package barneshut

import "fmt"

// Builder inserts every particle of a ParticleStore into a NodePool. It owns
// the pool exclusively while Build runs and must not run concurrently with
// any Evaluator reading the same pool.
type Builder struct {
	particles *ParticleStore
	nodes     *NodePool
	domain    Domain
	maxDepth  int
	work      *WorkQueue
}

// NewBuilder returns a builder for the given root domain. maxDepth bounds
// every insertion path; it should be at least the particle capacity and the
// pool should hold NodeCapacity(maxDepth) nodes.
func NewBuilder(particles *ParticleStore, nodes *NodePool, domain Domain, maxDepth int) *Builder {
	return &Builder{
		particles: particles,
		nodes:     nodes,
		domain:    domain,
		maxDepth:  maxDepth,
		work:      NewWorkQueue(maxDepth + 1),
	}
}

func (b *Builder) Domain() Domain     { return b.domain }
func (b *Builder) SetDomain(d Domain) { b.domain = d }
func (b *Builder) MaxDepth() int      { return b.maxDepth }

// Build discards the previous tree and inserts particles 0..Len()-1 in
// order. Each insertion drains its relocation work before the next starts.
func (b *Builder) Build() error {
	if b.domain.Half <= 0 {
		return fmt.Errorf("%w: root half-size must be positive, got %g", ErrDegenerateInput, b.domain.Half)
	}
	b.nodes.Reset()
	if _, err := b.nodes.Allocate(); err != nil {
		return err
	}
	n := b.particles.Len()
	for id := 0; id < n; id++ {
		if err := b.Insert(id); err != nil {
			return err
		}
	}
	return nil
}

// Insert adds one particle to the current tree. The root must exist.
func (b *Builder) Insert(id int) error {
	x := b.particles.pos[id]
	if !b.domain.Contains(x) {
		return fmt.Errorf("%w: particle %d at %v outside domain %v±%g",
			ErrDegenerateInput, id, x, b.domain.Center, b.domain.Half)
	}

	b.work.Reset()
	item := WorkItem{Subject: id, Node: Root, Center: b.domain.Center, Half: b.domain.Half}
	for {
		if err := b.descend(item); err != nil {
			return err
		}
		next, ok := b.work.Pop()
		if !ok {
			return nil
		}
		item = next
	}
}

// descend walks one subject down from it.Node until it lands in an empty
// slot. Splitting an occupied node queues its previous occupant for
// relocation one level below; that occupant's contribution is already in
// the split node and its ancestors.
func (b *Builder) descend(it WorkItem) error {
	p := it.Subject
	x, m := b.particles.pos[p], b.particles.mass[p]
	node, center, half := it.Node, it.Center, it.Half

	for depth := it.Depth; depth < b.maxDepth; depth++ {
		n := b.nodes.at(node)

		switch n.occ.tag {
		case TagEmpty:
			n.occ = Occupied(p)
			n.mass = m
			n.centroid = x.Scale(m)
			return nil

		case TagOccupied:
			prev := int(n.occ.particle)
			n.occ = Internal()
			q := QuadrantOf(center, b.particles.pos[prev])
			child, err := b.child(n, q)
			if err != nil {
				return err
			}
			cc, ch := q.Frame(center, half)
			if err := b.work.Push(WorkItem{Subject: prev, Node: child, Center: cc, Half: ch, Depth: depth + 1}); err != nil {
				return err
			}
		}

		n.accumulate(m, x)

		q := QuadrantOf(center, x)
		child, err := b.child(n, q)
		if err != nil {
			return err
		}
		center, half = q.Frame(center, half)
		node = child
	}

	return fmt.Errorf("%w: particle %d at %v reached max depth %d",
		ErrDegenerateInput, p, x, b.maxDepth)
}

func (b *Builder) child(n *Node, q Quadrant) (NodeID, error) {
	if c := n.children[q]; c != Root {
		return c, nil
	}
	c, err := b.nodes.Allocate()
	if err != nil {
		return Root, err
	}
	n.children[q] = c
	return c, nil
}
