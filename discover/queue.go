// Package discover — FIFO queue with deduplication.
// Keeps first-seen order and drops inputs already queued.
package discover

// Queue is a FIFO queue of inputs with deduplication.
type Queue struct {
	items   []string
	visited map[string]bool
	idx     int // current read position
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		visited: make(map[string]bool),
	}
}

// Add enqueues an input if it hasn't been seen before and reports whether
// it was added.
func (q *Queue) Add(input string) bool {
	if q.visited[input] {
		return false
	}
	q.visited[input] = true
	q.items = append(q.items, input)
	return true
}

// HasNext returns true if there are unprocessed inputs.
func (q *Queue) HasNext() bool {
	return q.idx < len(q.items)
}

// Next returns the next unprocessed input and advances the pointer.
func (q *Queue) Next() string {
	item := q.items[q.idx]
	q.idx++
	return item
}

// Visited returns the total number of unique inputs seen.
func (q *Queue) Visited() int {
	return len(q.visited)
}

// All returns all queued inputs in insertion order.
func (q *Queue) All() []string {
	return q.items
}
