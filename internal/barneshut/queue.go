package barneshut

// NoSubject marks a WorkItem that carries no particle.
const NoSubject = -1

// WorkItem is deferred work: a subject particle (or NoSubject), the node to
// resume from, and that node's geometric frame.
type WorkItem struct {
	Subject int
	Node    NodeID
	Center  Vec
	Half    float64
	Depth   int
}

// WorkQueue is a bounded LIFO of WorkItems backed by a fixed arena. It is
// not safe for concurrent use; each traversal owns one.
type WorkQueue struct {
	items []WorkItem
	n     int
}

func NewWorkQueue(capacity int) *WorkQueue {
	return &WorkQueue{items: make([]WorkItem, capacity)}
}

func (q *WorkQueue) Push(it WorkItem) error {
	if q.n >= len(q.items) {
		return &CapacityError{Resource: "work queue", Limit: len(q.items)}
	}
	q.items[q.n] = it
	q.n++
	return nil
}

func (q *WorkQueue) Pop() (WorkItem, bool) {
	if q.n == 0 {
		return WorkItem{}, false
	}
	q.n--
	return q.items[q.n], true
}

func (q *WorkQueue) Len() int { return q.n }
func (q *WorkQueue) Cap() int { return len(q.items) }
func (q *WorkQueue) Reset()   { q.n = 0 }
