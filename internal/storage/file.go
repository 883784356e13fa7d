package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// createFile opens an export file for writing.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeFile runs write against a freshly created file at path. A failure to
// close the file is reported like any write error.
func writeFile(backend, path string, write func(io.Writer) error) (err error) {
	f, err := createFile(path)
	if err != nil {
		return &types.StorageError{Backend: backend, Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &types.StorageError{Backend: backend, Path: path, Err: fmt.Errorf("close file: %w", cerr)}
		}
	}()
	return write(f)
}

// --- JSON Storage ---

// JSONStorage writes a table as a JSON array of row objects.
type JSONStorage struct {
	path   string
	logger *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) *JSONStorage {
	return &JSONStorage{
		path:   outputPath,
		logger: logger.With("component", "json_storage"),
	}
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(_ context.Context, t *Table) error {
	output := make([]map[string]string, t.Len())
	for i := range t.Rows {
		entry := make(map[string]string, len(t.Columns))
		for _, col := range t.Columns {
			entry[col] = t.Cell(i, col)
		}
		output[i] = entry
	}

	err := writeFile(s.Name(), s.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output); err != nil {
			return &types.StorageError{Backend: s.Name(), Path: s.path, Err: fmt.Errorf("encode JSON: %w", err)}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("JSON written", "path", s.path, "rows", t.Len())
	return nil
}

func (s *JSONStorage) Close() error { return nil }

// --- CSV Storage ---

// CSVStorage writes a table as CSV with a header row.
type CSVStorage struct {
	path   string
	logger *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputPath string, logger *slog.Logger) *CSVStorage {
	return &CSVStorage{
		path:   outputPath,
		logger: logger.With("component", "csv_storage"),
	}
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(_ context.Context, t *Table) error {
	err := writeFile(s.Name(), s.path, func(f io.Writer) error {
		w := csv.NewWriter(f)
		if err := w.Write(t.Columns); err != nil {
			return &types.StorageError{Backend: s.Name(), Path: s.path, Err: fmt.Errorf("write CSV header: %w", err)}
		}
		for i := range t.Rows {
			if err := w.Write(t.Values(i)); err != nil {
				return &types.StorageError{Backend: s.Name(), Path: s.path, Err: fmt.Errorf("write CSV row: %w", err)}
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return &types.StorageError{Backend: s.Name(), Path: s.path, Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("CSV written", "path", s.path, "rows", t.Len())
	return nil
}

func (s *CSVStorage) Close() error { return nil }
