// Package translate machine-translates export tables cell by cell.
package translate

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/wantedcrawl/internal/config"
	"github.com/IshaanNene/wantedcrawl/internal/storage"
	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// Translator translates a single piece of text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Stats counts translation outcomes.
type Stats struct {
	Translated atomic.Int64
	Failed     atomic.Int64
	Cached     atomic.Int64
	Skipped    atomic.Int64
}

// TableTranslator translates every cell of a table through a bounded pool of
// concurrent calls. A failed call keeps the original text.
type TableTranslator struct {
	tr      Translator
	workers int
	skip    map[string]bool
	memo    sync.Map
	stats   Stats
	logger  *slog.Logger
}

// NewTableTranslator creates a table translator using tr for individual cells.
func NewTableTranslator(tr Translator, cfg config.TranslateConfig, logger *slog.Logger) *TableTranslator {
	skip := make(map[string]bool, len(cfg.SkipColumns))
	for _, col := range cfg.SkipColumns {
		skip[col] = true
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &TableTranslator{
		tr:      tr,
		workers: workers,
		skip:    skip,
		logger:  logger.With("component", "translator"),
	}
}

// Stats returns the running counters.
func (t *TableTranslator) Stats() *Stats {
	return &t.stats
}

// TranslateTable returns a new table with the same rows and columns as src,
// each cell translated. Columns are processed one at a time; src is not modified.
// The result is normalized and ordered like the export table. Only context
// cancellation is returned as an error.
func (t *TableTranslator) TranslateTable(ctx context.Context, src *storage.Table) (*storage.Table, error) {
	out := src.Clone()

	for _, col := range src.Columns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t.skip[col] {
			t.logger.Debug("column skipped", "column", col)
			continue
		}
		t.logger.Info("translating column", "column", col, "cells", src.Len())

		translated, err := t.translateColumn(ctx, src, col)
		if err != nil {
			return nil, err
		}
		for i, v := range translated {
			out.Rows[i][col] = v
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out.Normalize().OrderColumns(storage.PinnedColumns...), nil
}

// translateColumn translates one column; results keep row positions
// regardless of completion order.
func (t *TableTranslator) translateColumn(ctx context.Context, src *storage.Table, col string) ([]string, error) {
	results := make([]string, src.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)

	for i := range src.Rows {
		text := src.Cell(i, col)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = t.translateCell(gctx, text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// translateCell never fails: blank and sentinel cells pass through and any
// translation error returns the original text.
func (t *TableTranslator) translateCell(ctx context.Context, text string) string {
	if text == "" || text == "None" || text == types.NotAvailable {
		t.stats.Skipped.Add(1)
		return text
	}
	if v, ok := t.memo.Load(text); ok {
		t.stats.Cached.Add(1)
		return v.(string)
	}

	translated, err := t.tr.Translate(ctx, text)
	if err != nil {
		t.stats.Failed.Add(1)
		t.logger.Warn("translation failed, keeping original", "text", truncate(text, 80), "error", err)
		return text
	}

	t.stats.Translated.Add(1)
	t.memo.Store(text, translated)
	return translated
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
