package stage

import (
	"sync"

	"github.com/c360/flowkit/container"
)

// queue is the thread-safe FIFO buffer of an InPad.
//
// It is unbounded so a fan-out can enqueue without blocking the delivering
// stage. Producers may be any goroutine; only the active drain loop pops.
type queue struct {
	mu    sync.Mutex
	items []*container.Container
}

func newQueue() *queue {
	return &queue{items: make([]*container.Container, 0, 8)}
}

func (q *queue) push(c *container.Container) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, c)
}

func (q *queue) pop() (*container.Container, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	c := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return c, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// clear drops every queued container and returns how many were dropped
func (q *queue) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = make([]*container.Container, 0, 8)
	return n
}
