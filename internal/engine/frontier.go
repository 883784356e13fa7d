package engine

import (
	"sync"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// Frontier is a thread-safe FIFO queue of pending listing requests.
type Frontier struct {
	mu     sync.Mutex
	queue  []*types.Request
	closed bool
}

// NewFrontier creates a new Frontier.
func NewFrontier() *Frontier {
	return &Frontier{}
}

// Push adds a request to the back of the queue. Pushing to a closed frontier is a no-op.
func (f *Frontier) Push(req *types.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.queue = append(f.queue, req)
}

// Pop removes and returns the oldest request, or nil when the queue is empty or closed.
func (f *Frontier) Pop() *types.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || len(f.queue) == 0 {
		return nil
	}
	req := f.queue[0]
	f.queue[0] = nil
	f.queue = f.queue[1:]
	return req
}

// Len returns the number of pending requests.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Close drops pending requests and rejects new ones.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.queue = nil
}
