package graph

// fifo is a slice-backed first-in first-out queue for the breadth-first walks.
type fifo[T any] struct {
	items []T
	head  int
}

func newFIFO[T any](seed ...T) *fifo[T] {
	q := &fifo[T]{items: make([]T, 0, len(seed)+8)}
	q.items = append(q.items, seed...)
	return q
}

func (q *fifo[T]) push(v T) {
	q.items = append(q.items, v)
}

// pop removes the front item. ok is false when the queue is drained.
func (q *fifo[T]) pop() (v T, ok bool) {
	if q.head >= len(q.items) {
		return v, false
	}
	v = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return v, true
}

func (q *fifo[T]) len() int { return len(q.items) - q.head }
