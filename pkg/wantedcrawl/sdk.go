// Package wantedcrawl runs the most-wanted crawl as a library: crawl the
// listing chain, export the result table, then export a translated copy.
//
// Example usage:
//
//	crawler := wantedcrawl.NewCrawler(
//	    wantedcrawl.WithMaxPages(3),
//	    wantedcrawl.WithOutputDir("./files"),
//	)
//
//	result, err := crawler.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Files)
package wantedcrawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/IshaanNene/wantedcrawl/internal/config"
	"github.com/IshaanNene/wantedcrawl/internal/engine"
	"github.com/IshaanNene/wantedcrawl/internal/fetcher"
	"github.com/IshaanNene/wantedcrawl/internal/media"
	"github.com/IshaanNene/wantedcrawl/internal/observability"
	"github.com/IshaanNene/wantedcrawl/internal/pipeline"
	"github.com/IshaanNene/wantedcrawl/internal/storage"
	"github.com/IshaanNene/wantedcrawl/internal/translate"
	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// Crawler is the high-level API for running a crawl as a library.
type Crawler struct {
	cfg        *config.Config
	logger     *slog.Logger
	fetcher    engine.Fetcher
	translator translate.Translator
	metrics    *observability.Metrics
	now        func() time.Time
}

// Result is everything a run produced.
type Result struct {
	// Records are the crawled records in listing order.
	Records []*types.Record

	// Table is the exported result table.
	Table *storage.Table

	// Translated is the translated table, nil when translation was skipped.
	Translated *storage.Table

	// Files lists every exported table file, result files first.
	Files []string

	// Photos are the downloaded record photos, empty unless enabled.
	Photos []*media.Photo

	// Stats is the engine's final statistics snapshot.
	Stats map[string]any
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithStartURL sets the first listing page.
func WithStartURL(u string) Option {
	return func(c *Crawler) { c.cfg.Crawl.StartURL = u }
}

// WithMaxPages bounds the number of listing pages (0 = until the chain ends).
func WithMaxPages(n int) Option {
	return func(c *Crawler) { c.cfg.Crawl.MaxPages = n }
}

// WithConcurrency sets the number of concurrent detail page fetches.
func WithConcurrency(n int) Option {
	return func(c *Crawler) { c.cfg.Crawl.Concurrency = n }
}

// WithDelay sets the politeness delay between requests.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) { c.cfg.Crawl.PolitenessDelay = d }
}

// WithOutputDir sets the export directory.
func WithOutputDir(dir string) Option {
	return func(c *Crawler) { c.cfg.Export.OutputDir = dir }
}

// WithFormats sets the export formats.
func WithFormats(formats ...string) Option {
	return func(c *Crawler) { c.cfg.Export.Formats = formats }
}

// WithTranslation enables or disables the translated export.
func WithTranslation(enabled bool) Option {
	return func(c *Crawler) { c.cfg.Translate.Enabled = enabled }
}

// WithPhotos enables downloading each record's photo into the output directory.
func WithPhotos(enabled bool) Option {
	return func(c *Crawler) { c.cfg.Export.Photos = enabled }
}

// WithRobotsRespect enables/disables robots.txt compliance.
func WithRobotsRespect(respect bool) Option {
	return func(c *Crawler) { c.cfg.Crawl.RespectRobotsTxt = respect }
}

// WithLogger replaces the default stderr logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) { c.logger = l }
}

// WithFetcher replaces the fetcher built from configuration.
func WithFetcher(f engine.Fetcher) Option {
	return func(c *Crawler) { c.fetcher = f }
}

// WithTranslator replaces the Google translator.
func WithTranslator(t translate.Translator) Option {
	return func(c *Crawler) { c.translator = t }
}

// WithMetrics registers crawl and translation counters on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

// WithClock sets the time source used for the export date stamp.
func WithClock(now func() time.Time) Option {
	return func(c *Crawler) { c.now = now }
}

// NewCrawler creates a new Crawler from the default configuration.
func NewCrawler(opts ...Option) *Crawler {
	return NewCrawlerFromConfig(config.DefaultConfig(), nil, opts...)
}

// NewCrawlerFromConfig creates a Crawler from a loaded configuration.
// A nil logger logs to stderr at the configured level.
func NewCrawlerFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) *Crawler {
	c := &Crawler{cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		level := slog.LevelInfo
		if cfg.Logging.Level == "debug" {
			level = slog.LevelDebug
		}
		c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return c
}

// Config returns the configuration the crawler runs with.
func (c *Crawler) Config() *config.Config {
	return c.cfg
}

// Run crawls, exports the result table and, when enabled, downloads photos and
// exports the translated table. If ctx is cancelled mid-crawl the partial
// result is still exported, the remaining steps are skipped and the context
// error is returned alongside the Result.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	if err := config.Validate(c.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	f := c.fetcher
	if f == nil {
		built, err := fetcher.New(c.cfg, c.logger)
		if err != nil {
			return nil, fmt.Errorf("create fetcher: %w", err)
		}
		f = built
	}
	defer func() {
		if err := f.Close(); err != nil {
			c.logger.Warn("fetcher close error", "error", err)
		}
	}()

	eng := engine.New(c.cfg, c.logger, f)
	eng.SetPipeline(pipeline.Default(c.logger))
	c.registerEngineMetrics(eng)

	records, crawlErr := eng.Run(ctx)
	if crawlErr != nil && !isCancellation(crawlErr) {
		return nil, fmt.Errorf("crawl: %w", crawlErr)
	}

	result := &Result{
		Records: records,
		Table:   storage.ResultTable(records),
		Stats:   eng.Stats().Snapshot(),
	}

	// Partial results are still written after cancellation.
	exportCtx := context.WithoutCancel(ctx)

	exporter := storage.NewExporter(c.cfg.Export, c.logger)
	defer func() {
		if err := exporter.Close(); err != nil {
			c.logger.Warn("exporter close error", "error", err)
		}
	}()
	if c.cfg.Export.MongoURI != "" {
		db, err := storage.NewMongoStorage(exportCtx, c.cfg.Export.MongoURI, c.cfg.Export.MongoDatabase, c.cfg.Export.MongoCollection, c.logger)
		if err != nil {
			return result, fmt.Errorf("connect database: %w", err)
		}
		exporter.SetDatabase(db)
	}

	date := c.now()

	files, err := exporter.ExportResult(exportCtx, result.Table, date)
	result.Files = append(result.Files, files...)
	if err != nil {
		return result, fmt.Errorf("export: %w", err)
	}

	if crawlErr != nil {
		c.logger.Warn("crawl interrupted, partial results exported, translation skipped",
			"records", len(records), "error", crawlErr)
		return result, crawlErr
	}

	if c.cfg.Export.Photos {
		photos, err := c.downloadPhotos(ctx, records)
		result.Photos = photos
		if err != nil {
			return result, fmt.Errorf("photos: %w", err)
		}
	}

	if !c.cfg.Translate.Enabled {
		return result, nil
	}

	tr := c.translator
	if tr == nil {
		tr = translate.NewGoogleTranslator(c.cfg.Translate, c.cfg.Crawl.UserAgent, c.logger)
	}
	tt := translate.NewTableTranslator(tr, c.cfg.Translate, c.logger)
	c.registerTranslateMetrics(tt)

	translated, err := tt.TranslateTable(ctx, result.Table)
	if err != nil {
		return result, fmt.Errorf("translate: %w", err)
	}
	result.Translated = translated

	files, err = exporter.ExportTranslated(exportCtx, translated, date)
	result.Files = append(result.Files, files...)
	if err != nil {
		return result, fmt.Errorf("export translated: %w", err)
	}

	stats := tt.Stats()
	c.logger.Info("translation finished",
		"translated", stats.Translated.Load(),
		"cached", stats.Cached.Load(),
		"failed", stats.Failed.Load(),
		"skipped", stats.Skipped.Load(),
	)
	return result, nil
}

func (c *Crawler) downloadPhotos(ctx context.Context, records []*types.Record) ([]*media.Photo, error) {
	dir := filepath.Join(c.cfg.Export.OutputDir, c.cfg.Export.PhotoDir)
	d := media.NewDownloader(dir, c.cfg.Export.PhotoMaxSize, c.cfg.Crawl.Concurrency,
		c.cfg.Crawl.UserAgent, c.cfg.Crawl.RequestTimeout, c.logger)
	if c.metrics != nil {
		c.metrics.Counter("photos_downloaded", "Record photos written to disk", d.Downloaded)
		c.metrics.Counter("photos_failed", "Record photos that could not be fetched", d.Failed)
	}
	return d.DownloadAll(ctx, records)
}

func (c *Crawler) registerEngineMetrics(eng *engine.Engine) {
	if c.metrics == nil {
		return
	}
	s := eng.Stats()
	c.metrics.Gauge("engine_state", "Engine lifecycle state (0 idle, 1 running, 2 stopping, 3 stopped)", func() int64 {
		return int64(eng.GetState())
	})
	c.metrics.Counter("listing_pages", "Listing pages fetched", s.ListingPages.Load)
	c.metrics.Counter("detail_pages", "Detail pages fetched", s.DetailPages.Load)
	c.metrics.Counter("requests", "Requests sent", s.RequestsSent.Load)
	c.metrics.Counter("requests_failed", "Requests that failed or returned non-2xx", s.RequestsFailed.Load)
	c.metrics.Counter("records_scraped", "Records aggregated", s.RecordsScraped.Load)
	c.metrics.Counter("records_dropped", "Records dropped by the pipeline", s.RecordsDropped.Load)
	c.metrics.Counter("urls_filtered", "URLs skipped as duplicates or disallowed", s.URLsFiltered.Load)
	c.metrics.Counter("bytes_downloaded", "Response bytes downloaded", s.BytesDownloaded.Load)
}

func (c *Crawler) registerTranslateMetrics(tt *translate.TableTranslator) {
	if c.metrics == nil {
		return
	}
	s := tt.Stats()
	c.metrics.Counter("translations", "Cells translated", s.Translated.Load)
	c.metrics.Counter("translations_failed", "Cells kept untranslated after an error", s.Failed.Load)
	c.metrics.Counter("translations_cached", "Cells served from the translation memo", s.Cached.Load)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
