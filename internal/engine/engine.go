package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/wantedcrawl/internal/config"
	"github.com/IshaanNene/wantedcrawl/internal/parser"
	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle     State = 0
	StateRunning  State = 1
	StateStopping State = 2
	StateStopped  State = 3
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats tracks crawl statistics.
type Stats struct {
	ListingPages    atomic.Int64
	DetailPages     atomic.Int64
	RequestsSent    atomic.Int64
	RequestsFailed  atomic.Int64
	RecordsScraped  atomic.Int64
	RecordsDropped  atomic.Int64
	URLsFiltered    atomic.Int64
	BytesDownloaded atomic.Int64
	StartTime       time.Time
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"listing_pages":    s.ListingPages.Load(),
		"detail_pages":     s.DetailPages.Load(),
		"requests_sent":    s.RequestsSent.Load(),
		"requests_failed":  s.RequestsFailed.Load(),
		"records_scraped":  s.RecordsScraped.Load(),
		"records_dropped":  s.RecordsDropped.Load(),
		"urls_filtered":    s.URLsFiltered.Load(),
		"bytes_downloaded": s.BytesDownloaded.Load(),
		"elapsed":          time.Since(s.StartTime).String(),
	}
}

// Fetcher is the interface for all fetcher implementations.
type Fetcher interface {
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)
	Close() error
}

// Pipeline is the interface for the record processing pipeline.
type Pipeline interface {
	Process(rec *types.Record) (*types.Record, error)
}

// Engine walks the listing chain and builds one record per detail page.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	fetcher  Fetcher
	listing  *parser.ListingParser
	detail   *parser.DetailParser
	pipeline Pipeline
	visited  *Visited
	robots   *RobotsManager
	throttle *Throttle

	state atomic.Int32
	stats *Stats
}

// New creates a new Engine with the given configuration and fetcher.
func New(cfg *config.Config, logger *slog.Logger, fetcher Fetcher) *Engine {
	logger = logger.With("component", "engine")
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		fetcher:  fetcher,
		listing:  parser.NewListingParser(cfg.Parser, logger),
		detail:   parser.NewDetailParser(cfg.Parser, logger),
		visited:  NewVisited(),
		robots:   NewRobotsManager(cfg.Crawl.RespectRobotsTxt, cfg.Crawl.UserAgent, logger),
		throttle: NewThrottle(),
		stats:    &Stats{},
	}
}

// SetPipeline sets the pipeline every detail record passes through before aggregation.
func (e *Engine) SetPipeline(p Pipeline) {
	e.pipeline = p
}

// Stats returns the current crawl statistics.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// GetState returns the current engine state.
func (e *Engine) GetState() State {
	return State(e.state.Load())
}

// Run crawls from the configured start URL until the listing chain ends,
// max_pages listing pages have been fetched, or ctx is cancelled. It returns
// the records in listing order. On cancellation the records gathered so far
// are returned together with the context error.
func (e *Engine) Run(ctx context.Context) ([]*types.Record, error) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, fmt.Errorf("engine is in state %s, cannot run", e.GetState())
	}
	defer e.state.Store(int32(StateStopped))

	seed, err := types.NewRequest(e.cfg.Crawl.StartURL)
	if err != nil {
		return nil, err
	}
	seed.Tag = types.TagListing
	seed.Page = 1

	e.logger.Info("crawl starting",
		"start_url", seed.URLString(),
		"max_pages", e.cfg.Crawl.MaxPages,
		"concurrency", e.cfg.Crawl.Concurrency,
		"respect_robots", e.cfg.Crawl.RespectRobotsTxt,
	)
	e.stats.StartTime = time.Now()

	agg := NewAggregator()
	frontier := NewFrontier()
	e.visited.Admit(seed.URLString())
	frontier.Push(seed)

	var runErr error
	pages := 0
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		req := frontier.Pop()
		if req == nil {
			break
		}
		if limit := e.cfg.Crawl.MaxPages; limit > 0 && pages >= limit {
			e.logger.Info("listing chain stopped", "reason", types.ErrMaxPages, "max_pages", limit, "skipped", req.URLString())
			break
		}
		pages++

		listing, err := e.crawlListing(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			e.logger.Warn("listing page failed, pagination ends here", "url", req.URLString(), "page", req.Page, "error", err)
			continue
		}

		if err := e.crawlDetails(ctx, req, listing.DetailURLs, agg); err != nil {
			runErr = err
			break
		}

		if !listing.HasNext() {
			e.logger.Debug("last listing page", "url", req.URLString(), "page", req.Page)
			continue
		}
		next, err := types.NewRequest(listing.NextURL)
		if err != nil {
			e.logger.Warn("next page link rejected", "url", listing.NextURL, "error", err)
			continue
		}
		if !e.visited.Admit(next.URLString()) {
			e.stats.URLsFiltered.Add(1)
			e.logger.Warn("pagination cycle detected", "from", req.URLString(), "to", next.URLString())
			continue
		}
		next.Tag = types.TagListing
		next.Page = req.Page + 1
		next.ParentURL = req.URLString()
		frontier.Push(next)
	}
	frontier.Close()

	records, err := agg.Finalize()
	if err != nil {
		return nil, err
	}

	e.logger.Info("crawl finished", "records", len(records), "stats", e.stats.Snapshot())
	return records, runErr
}

// crawlListing fetches one listing page and extracts its links.
func (e *Engine) crawlListing(ctx context.Context, req *types.Request) (parser.Listing, error) {
	resp, err := e.fetch(ctx, req)
	if err != nil {
		return parser.Listing{}, err
	}

	listing, err := e.listing.Parse(resp)
	if err != nil {
		return parser.Listing{}, err
	}
	e.logger.Info("listing page crawled",
		"page", req.Page,
		"url", req.URLString(),
		"details", len(listing.DetailURLs),
		"has_next", listing.HasNext(),
	)
	return listing, nil
}

// crawlDetails fetches the detail pages of one listing page concurrently and
// appends the resulting records to agg in link order. Individual page failures
// are logged and skipped; only cancellation is returned.
func (e *Engine) crawlDetails(ctx context.Context, parent *types.Request, links []string, agg *Aggregator) error {
	results := make([]*types.Record, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Crawl.Concurrency)

	for i, link := range links {
		if !e.visited.Admit(link) {
			e.stats.URLsFiltered.Add(1)
			continue
		}
		req, err := types.NewRequest(link)
		if err != nil {
			e.logger.Warn("detail link rejected", "url", link, "error", err)
			continue
		}
		req.Tag = types.TagDetail
		req.Page = parent.Page
		req.ParentURL = parent.URLString()

		g.Go(func() error {
			rec, err := e.crawlDetail(gctx, req)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.logger.Warn("detail page failed", "url", link, "error", err)
				return nil
			}
			results[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, rec := range results {
		if rec == nil {
			continue
		}
		if err := agg.Append(rec); err != nil {
			return err
		}
		e.stats.RecordsScraped.Add(1)
	}
	return nil
}

// crawlDetail fetches one detail page and builds its record. A nil record with
// a nil error means the pipeline dropped it.
func (e *Engine) crawlDetail(ctx context.Context, req *types.Request) (*types.Record, error) {
	resp, err := e.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	rec := e.detail.Parse(resp)
	if e.pipeline == nil {
		return rec, nil
	}

	processed, err := e.pipeline.Process(rec)
	if errors.Is(err, types.ErrDuplicate) {
		e.stats.RecordsDropped.Add(1)
		e.logger.Debug("duplicate record skipped", "url", rec.URL)
		return nil, nil
	}
	if err != nil {
		e.stats.RecordsDropped.Add(1)
		return nil, err
	}
	if processed == nil {
		e.stats.RecordsDropped.Add(1)
	}
	return processed, nil
}

// fetch applies robots.txt and politeness rules, then fetches req.
// Non-2xx responses and empty bodies are errors.
func (e *Engine) fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	urlStr := req.URLString()
	if !e.robots.IsAllowed(ctx, urlStr) {
		e.stats.URLsFiltered.Add(1)
		return nil, fmt.Errorf("%w: %s", types.ErrBlocked, urlStr)
	}

	delay := e.cfg.Crawl.PolitenessDelay
	if rd := e.robots.CrawlDelay(ctx, urlStr); rd > delay {
		delay = rd
	}
	if err := e.throttle.Wait(ctx, req.Domain(), delay); err != nil {
		return nil, err
	}

	e.stats.RequestsSent.Add(1)
	resp, err := e.fetcher.Fetch(ctx, req)
	if err != nil {
		e.stats.RequestsFailed.Add(1)
		return nil, err
	}
	e.stats.BytesDownloaded.Add(int64(len(resp.Body)))

	if !resp.IsSuccess() {
		e.stats.RequestsFailed.Add(1)
		return nil, &types.FetchError{
			URL:        urlStr,
			StatusCode: resp.StatusCode,
			Err:        errors.New("unexpected status"),
		}
	}
	if len(resp.Body) == 0 {
		e.stats.RequestsFailed.Add(1)
		return nil, &types.FetchError{URL: urlStr, StatusCode: resp.StatusCode, Err: types.ErrEmptyResponse}
	}
	if req.IsListing() {
		e.stats.ListingPages.Add(1)
	} else {
		e.stats.DetailPages.Add(1)
	}
	return resp, nil
}
