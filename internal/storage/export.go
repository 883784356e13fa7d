package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IshaanNene/wantedcrawl/internal/config"
	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// DateStamp is the layout of the date in export file names.
const DateStamp = "20060102"

// PinnedColumns lead every exported table, in this order.
var PinnedColumns = []string{ColumnID, types.ColURL, types.ColName}

// ResultTable materializes records into the export table: sentinel
// normalization, a 1-based id column, then pinned-first column order.
func ResultTable(records []*types.Record) *Table {
	return TableFromRecords(records).Normalize().WithID().OrderColumns(PinnedColumns...)
}

// FileName returns "<prefix>_<YYYYMMDD>.<ext>".
func FileName(prefix string, date time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, date.Format(DateStamp), ext)
}

// Exporter writes result and translated tables in every configured format.
type Exporter struct {
	cfg    config.ExportConfig
	db     Storage
	logger *slog.Logger
}

// NewExporter creates an exporter for the given export settings.
func NewExporter(cfg config.ExportConfig, logger *slog.Logger) *Exporter {
	return &Exporter{
		cfg:    cfg,
		logger: logger.With("component", "exporter"),
	}
}

// SetDatabase adds a database sink that receives the result table.
func (e *Exporter) SetDatabase(db Storage) {
	e.db = db
}

// ExportResult writes the result table as <file_prefix>_<date>.<fmt> and
// stores it in the database sink if one is set.
func (e *Exporter) ExportResult(ctx context.Context, t *Table, date time.Time) ([]string, error) {
	paths, err := e.writeFiles(ctx, t, e.cfg.FilePrefix, date)
	if err != nil {
		return paths, err
	}
	if e.db != nil {
		if err := e.db.Store(ctx, t); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// ExportTranslated writes the translated table as <translated_prefix><file_prefix>_<date>.<fmt>.
func (e *Exporter) ExportTranslated(ctx context.Context, t *Table, date time.Time) ([]string, error) {
	return e.writeFiles(ctx, t, e.cfg.TranslatedPrefix+e.cfg.FilePrefix, date)
}

// Close releases the database sink.
func (e *Exporter) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

func (e *Exporter) writeFiles(ctx context.Context, t *Table, prefix string, date time.Time) ([]string, error) {
	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "file", Path: e.cfg.OutputDir, Err: fmt.Errorf("create output dir: %w", err)}
	}

	var (
		paths []string
		sinks []Storage
	)
	for _, format := range e.cfg.Formats {
		format = strings.ToLower(strings.TrimSpace(format))
		path := filepath.Join(e.cfg.OutputDir, FileName(prefix, date, format))
		s, err := NewFileStorage(format, path, e.logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
		paths = append(paths, path)
	}

	files := NewMultiStorage(sinks, e.logger)
	storeErr := files.Store(ctx, t)
	if err := errors.Join(storeErr, files.Close()); err != nil {
		return nil, err
	}
	return paths, nil
}

// NewFileStorage creates the appropriate file-based storage by format.
func NewFileStorage(format, path string, logger *slog.Logger) (Storage, error) {
	switch strings.ToLower(format) {
	case "xlsx":
		return NewXLSXStorage(path, logger), nil
	case "csv":
		return NewCSVStorage(path, logger), nil
	case "json":
		return NewJSONStorage(path, logger), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}
