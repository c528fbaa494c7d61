package audit

import (
	"context"
	"sync"
)

const defaultQueueCapacity = 10000

// Queue is a bounded, thread-safe buffer between request paths and slow
// sinks. Append never blocks; when full the oldest event is dropped.
type Queue struct {
	mu       sync.Mutex
	events   []Event
	head     int
	tail     int
	count    int
	capacity int
	dropped  int64
	notify   chan struct{}
}

// NewQueue constructs a bounded queue holding up to capacity events.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &Queue{
		events:   make([]Event, capacity),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

// Append enqueues an event, satisfying Store.
func (q *Queue) Append(_ context.Context, event Event) error {
	q.mu.Lock()
	if q.count >= q.capacity {
		q.tail = (q.tail + 1) % q.capacity
		q.count--
		q.dropped++
	}
	q.events[q.head] = event
	q.head = (q.head + 1) % q.capacity
	q.count++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// DequeueBatch removes up to n events in arrival order.
func (q *Queue) DequeueBatch(n int) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}
	n = min(n, q.count)
	out := make([]Event, n)
	for i := range n {
		out[i] = q.events[q.tail]
		q.events[q.tail] = Event{}
		q.tail = (q.tail + 1) % q.capacity
	}
	q.count -= n
	return out
}

// Ready is signalled after an Append.
func (q *Queue) Ready() <-chan struct{} {
	return q.notify
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Dropped returns the number of events evicted by overflow.
func (q *Queue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
