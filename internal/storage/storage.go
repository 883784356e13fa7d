package storage

import (
	"context"
	"errors"
	"log/slog"
)

// Storage is the interface for all table sinks.
type Storage interface {
	// Store persists a table.
	Store(ctx context.Context, t *Table) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes a table to several backends in turn.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

// Store writes to every backend and joins their errors.
func (s *MultiStorage) Store(ctx context.Context, t *Table) error {
	var errs []error
	for _, backend := range s.backends {
		if err := backend.Store(ctx, t); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *MultiStorage) Close() error {
	var errs []error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
