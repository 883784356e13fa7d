package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request tags distinguish the two crawl states.
const (
	TagListing = "listing"
	TagDetail  = "detail"
)

// Request represents a page to be fetched by the crawler.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are extra HTTP headers for this request only.
	Headers http.Header

	// Tag is either TagListing or TagDetail.
	Tag string

	// Page is the 1-based listing page number this request belongs to.
	Page int

	// Timeout overrides the global request timeout for this request.
	Timeout time.Duration

	// ParentURL tracks which listing page this request was discovered on.
	ParentURL string

	// CreatedAt is when this request was created.
	CreatedAt time.Time
}

// NewRequest creates a new GET Request. Only absolute http(s) URLs are accepted.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w %q: must be absolute http(s)", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:       u,
		Method:    http.MethodGet,
		Headers:   make(http.Header),
		CreatedAt: time.Now(),
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the hostname of the request URL.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}

// IsListing reports whether the request targets a listing page.
func (r *Request) IsListing() bool {
	return r.Tag == TagListing
}
