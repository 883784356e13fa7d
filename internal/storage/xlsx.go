package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// SheetName is the worksheet every export is written to.
const SheetName = "Sheet1"

// XLSXStorage writes a table as a single-sheet Excel workbook.
type XLSXStorage struct {
	path   string
	logger *slog.Logger
}

// NewXLSXStorage creates a new spreadsheet storage.
func NewXLSXStorage(outputPath string, logger *slog.Logger) *XLSXStorage {
	return &XLSXStorage{
		path:   outputPath,
		logger: logger.With("component", "xlsx_storage"),
	}
}

func (s *XLSXStorage) Name() string { return "xlsx" }

// Path returns the workbook location.
func (s *XLSXStorage) Path() string { return s.path }

// Store writes the header row followed by one row per table row. The id
// column is written as numbers, everything else as text.
func (s *XLSXStorage) Store(ctx context.Context, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return s.wrap(err)
	}

	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return s.wrap(err)
	}

	for r := range t.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells := make([]any, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = cellValue(col, t.Cell(r, col))
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return s.wrap(err)
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return s.wrap(fmt.Errorf("row %d: %w", r+1, err))
		}
	}

	if err := sw.Flush(); err != nil {
		return s.wrap(err)
	}
	if err := f.SaveAs(s.path); err != nil {
		return s.wrap(err)
	}

	s.logger.Info("XLSX written", "path", s.path, "rows", t.Len(), "columns", len(t.Columns))
	return nil
}

func (s *XLSXStorage) Close() error { return nil }

func (s *XLSXStorage) wrap(err error) error {
	return &types.StorageError{Backend: s.Name(), Path: s.path, Err: err}
}

func cellValue(col, v string) any {
	if col == ColumnID {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return v
}
