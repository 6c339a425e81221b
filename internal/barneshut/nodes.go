package barneshut

import "sync/atomic"

// NodeID indexes the NodePool. The root is always node 0; since the root is
// never anyone's child, a zero NodeID in a child slot means no child.
type NodeID int32

const Root NodeID = 0

type Tag uint8

const (
	TagEmpty Tag = iota
	TagOccupied
	TagInternal
)

func (t Tag) String() string {
	switch t {
	case TagEmpty:
		return "empty"
	case TagOccupied:
		return "occupied"
	case TagInternal:
		return "internal"
	}
	return "unknown"
}

// Occupancy is the tagged state of a node slot. The particle id is only
// meaningful for TagOccupied and is only reachable through Particle.
type Occupancy struct {
	tag      Tag
	particle int32
}

func Empty() Occupancy          { return Occupancy{} }
func Occupied(id int) Occupancy { return Occupancy{tag: TagOccupied, particle: int32(id)} }
func Internal() Occupancy       { return Occupancy{tag: TagInternal} }
func (o Occupancy) Tag() Tag    { return o.tag }

func (o Occupancy) Particle() (int, bool) {
	if o.tag != TagOccupied {
		return -1, false
	}
	return int(o.particle), true
}

// Node holds the running aggregate of every particle inserted through it.
type Node struct {
	occ      Occupancy
	mass     float64
	centroid Vec // sum of mass*position, not normalised
	children [Branch]NodeID
}

func (n Node) Occupancy() Occupancy { return n.occ }
func (n Node) Mass() float64        { return n.mass }

// Centroid returns the raw mass-weighted position sum.
func (n Node) Centroid() Vec { return n.centroid }

func (n Node) Child(q Quadrant) (NodeID, bool) {
	c := n.children[q]
	return c, c != Root
}

// CenterOfMass divides the centroid accumulator by the mass. It reports
// false for a massless node, which callers must treat as empty.
func (n Node) CenterOfMass() (Vec, bool) {
	if n.mass <= 0 {
		return Vec{}, false
	}
	return n.centroid.Scale(1 / n.mass), true
}

func (n *Node) accumulate(m float64, x Vec) {
	n.mass += m
	n.centroid = n.centroid.Add(x.Scale(m))
}

// NodePool is a fixed-capacity node table with a bump allocator.
type NodePool struct {
	nodes []Node
	n     atomic.Int32
}

func NewNodePool(capacity int) *NodePool {
	return &NodePool{nodes: make([]Node, capacity)}
}

// NodeCapacity is the conservative bound branching factor × max depth.
func NodeCapacity(maxDepth int) int { return Branch * maxDepth }

// Allocate reserves the next node id and resets it to an empty node with no
// children. Safe for concurrent callers; only id uniqueness is guaranteed.
func (p *NodePool) Allocate() (NodeID, error) {
	for {
		n := p.n.Load()
		if int(n) >= len(p.nodes) {
			return Root, &CapacityError{Resource: "node", Limit: len(p.nodes)}
		}
		if p.n.CompareAndSwap(n, n+1) {
			p.nodes[n] = Node{}
			return NodeID(n), nil
		}
	}
}

// Reset logically clears the pool. Entries are zeroed lazily on Allocate.
func (p *NodePool) Reset() { p.n.Store(0) }

func (p *NodePool) Len() int { return int(p.n.Load()) }
func (p *NodePool) Cap() int { return len(p.nodes) }

// Node returns a copy of node id.
func (p *NodePool) Node(id NodeID) Node { return p.nodes[id] }

func (p *NodePool) at(id NodeID) *Node { return &p.nodes[id] }
