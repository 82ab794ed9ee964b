// Package touch turns pointer and touch events into per-node grid forces.
package touch

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Event presses on one node. Pressure is in input space: X and Y across the
// surface, Z into it.
type Event struct {
	Node     int    `json:"node"`
	Pressure r3.Vec `json:"pressure"`
}

// Queue collects events from input goroutines until the simulator drains
// them at the start of a frame.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

func NewQueue() *Queue {
	return &Queue{events: make([]Event, 0, 16)}
}

func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// Drain removes and returns every queued event in arrival order.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = make([]Event, 0, cap(out))
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
