package engine

import (
	"context"
	"sync"
	"time"
)

// Throttle spaces out requests to the same domain.
type Throttle struct {
	mu      sync.Mutex
	domains map[string]*domainThrottle
}

// domainThrottle implements per-domain rate limiting.
type domainThrottle struct {
	lastFetch time.Time
	mu        sync.Mutex
}

// NewThrottle creates an empty Throttle.
func NewThrottle() *Throttle {
	return &Throttle{domains: make(map[string]*domainThrottle)}
}

// Wait blocks until at least delay has passed since the previous request to
// domain, or until ctx is done.
func (t *Throttle) Wait(ctx context.Context, domain string, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	dt, ok := t.domains[domain]
	if !ok {
		dt = &domainThrottle{}
		t.domains[domain] = dt
	}
	t.mu.Unlock()

	dt.mu.Lock()
	defer dt.mu.Unlock()

	if wait := delay - time.Since(dt.lastFetch); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	dt.lastFetch = time.Now()
	return nil
}
