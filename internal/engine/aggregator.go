package engine

import (
	"sync"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// Aggregator is the append-only, ordered collection of records for one crawl.
// It is owned by the engine for the duration of Run and finalized exactly once.
type Aggregator struct {
	mu      sync.Mutex
	records []*types.Record
	closed  bool
}

// NewAggregator creates an empty, open Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Append adds a record at the end. It fails once the aggregator is finalized.
func (a *Aggregator) Append(rec *types.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return types.ErrAggregatorClosed
	}
	a.records = append(a.records, rec)
	return nil
}

// Len returns the number of records appended so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Finalize closes the aggregator and returns its records in append order.
// A second call returns ErrAggregatorClosed.
func (a *Aggregator) Finalize() ([]*types.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, types.ErrAggregatorClosed
	}
	a.closed = true
	out := a.records
	a.records = nil
	return out, nil
}
