// Package media downloads the photo referenced by each record's image_url.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// DefaultMaxSize caps a single photo when no limit is configured.
const DefaultMaxSize = 5 * 1024 * 1024

// Photo tracks a downloaded file.
type Photo struct {
	RecordURL   string `json:"record_url"`
	URL         string `json:"url"`
	LocalPath   string `json:"local_path"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Hash        string `json:"hash"`
}

// Downloader fetches record photos into a single directory.
type Downloader struct {
	dir     string
	client  *resty.Client
	maxSize int64
	workers int
	logger  *slog.Logger

	downloaded atomic.Int64
	failed     atomic.Int64

	group singleflight.Group
	mu    sync.Mutex
	seen  map[string]*Photo
}

// NewDownloader creates a downloader writing into dir. Files larger than
// maxSize bytes are rejected.
func NewDownloader(dir string, maxSize int64, workers int, userAgent string, timeout time.Duration, logger *slog.Logger) *Downloader {
	if workers < 1 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
	return &Downloader{
		dir:     dir,
		client:  client,
		maxSize: maxSize,
		workers: workers,
		logger:  logger.With("component", "photo_downloader"),
		seen:    make(map[string]*Photo),
	}
}

// Downloaded returns the number of files written.
func (d *Downloader) Downloaded() int64 { return d.downloaded.Load() }

// Failed returns the number of photos that could not be fetched.
func (d *Downloader) Failed() int64 { return d.failed.Load() }

// DownloadAll fetches the photo of every record that has one. Individual
// failures are logged and skipped; only cancellation is returned. Results
// follow record order.
func (d *Downloader) DownloadAll(ctx context.Context, records []*types.Record) ([]*Photo, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "file", Path: d.dir, Err: fmt.Errorf("create photo dir: %w", err)}
	}

	results := make([]*Photo, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			photo, err := d.Download(gctx, rec)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				d.failed.Add(1)
				d.logger.Warn("photo download failed", "record", rec.URL, "error", err)
				return nil
			}
			results[i] = photo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	photos := make([]*Photo, 0, len(results))
	for _, p := range results {
		if p != nil {
			photos = append(photos, p)
		}
	}
	d.logger.Info("photos downloaded", "photos", len(photos), "failed", d.failed.Load(), "dir", d.dir)
	return photos, nil
}

// Download fetches the photo of one record. A record without a photo yields
// (nil, nil). Photos shared between records are fetched once and named
// after the first record that asked for them.
func (d *Downloader) Download(ctx context.Context, rec *types.Record) (*Photo, error) {
	photoURL, ok := PhotoURL(rec)
	if !ok {
		return nil, nil
	}

	v, err, _ := d.group.Do(photoURL, func() (any, error) {
		d.mu.Lock()
		p, ok := d.seen[photoURL]
		d.mu.Unlock()
		if ok {
			return p, nil
		}
		return d.fetch(ctx, rec.URL, photoURL)
	})
	if err != nil {
		return nil, err
	}
	photo := *v.(*Photo)
	photo.RecordURL = rec.URL
	return &photo, nil
}

func (d *Downloader) fetch(ctx context.Context, recordURL, photoURL string) (*Photo, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(photoURL)
	if err != nil {
		return nil, &types.FetchError{URL: photoURL, Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, &types.FetchError{URL: photoURL, StatusCode: resp.StatusCode(), Err: fmt.Errorf("unexpected status")}
	}

	contentType := resp.Header().Get("Content-Type")
	localPath := filepath.Join(d.dir, FileName(recordURL, photoURL, contentType))

	f, err := os.Create(localPath)
	if err != nil {
		return nil, &types.StorageError{Backend: "file", Path: localPath, Err: err}
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hasher), io.LimitReader(body, d.maxSize+1))
	if err == nil && size > d.maxSize {
		err = fmt.Errorf("file too large (max %d bytes)", d.maxSize)
	}
	if err != nil {
		os.Remove(localPath)
		return nil, &types.StorageError{Backend: "file", Path: localPath, Err: err}
	}

	photo := &Photo{
		RecordURL:   recordURL,
		URL:         photoURL,
		LocalPath:   localPath,
		Size:        size,
		ContentType: contentType,
		Hash:        hex.EncodeToString(hasher.Sum(nil)),
	}
	d.downloaded.Add(1)

	d.mu.Lock()
	d.seen[photoURL] = photo
	d.mu.Unlock()

	d.logger.Debug("photo downloaded", "url", photoURL, "size", size, "hash", photo.Hash[:16])
	return photo, nil
}

// PhotoURL resolves a record's image_url against the record URL.
func PhotoURL(rec *types.Record) (string, bool) {
	raw, ok := rec.Get(types.ColImageURL)
	if !ok || raw == "" || raw == types.NotAvailable {
		return "", false
	}
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if base, err := url.Parse(rec.URL); err == nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	return ref.String(), true
}

// FileName names a photo after the record's URL slug, keeping the photo's
// extension or deriving one from the content type.
func FileName(recordURL, photoURL, contentType string) string {
	name := ""
	if u, err := url.Parse(recordURL); err == nil {
		name = sanitize(path.Base(strings.TrimSuffix(u.Path, "/")))
	}
	if name == "" || name == "." {
		sum := sha256.Sum256([]byte(recordURL))
		name = hex.EncodeToString(sum[:8])
	}

	ext := ""
	if u, err := url.Parse(photoURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	if ext == "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
				ext = exts[0]
			}
		}
	}
	return name + ext
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
