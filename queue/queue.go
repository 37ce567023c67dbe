package queue

// Queue is a generic FIFO queue. A queue created with NewBounded keeps at
// most limit items and evicts the oldest one on overflow.
type Queue[T any] struct {
	items []T
	limit int
}

// NewBounded creates a queue holding at most limit items.
// A limit below one leaves the queue unbounded.
func NewBounded[T any](limit int) *Queue[T] {
	if limit < 1 {
		limit = 0
	}
	return &Queue[T]{items: make([]T, 0, limit), limit: limit}
}

// Enqueue adds an element to the end of the queue.
// It reports whether an older element was evicted to make room.
func (q *Queue[T]) Enqueue(item T) bool {
	evicted := false
	if q.limit > 0 && len(q.items) == q.limit {
		var zero T
		q.items[0] = zero
		q.items = q.items[1:]
		evicted = true
	}
	q.items = append(q.items, item)
	return evicted
}

// Dequeue removes and returns the front element of the queue.
// The boolean is false if the queue was empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Drain removes every element and returns them oldest first.
// Callers that discard the elements can call Clear instead.
func (q *Queue[T]) Drain() []T {
	out := q.items
	q.items = make([]T, 0, q.limit)
	return out
}

// Clear removes every element, zeroing them so the backing array does not
// pin them.
func (q *Queue[T]) Clear() {
	for !q.IsEmpty() {
		q.Dequeue()
	}
}

// Len returns the number of elements in the queue.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// IsEmpty returns true if the queue is empty.
func (q *Queue[T]) IsEmpty() bool {
	return len(q.items) == 0
}
