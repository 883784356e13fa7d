package engine

import (
	"net/url"
	"slices"
	"strings"
	"sync"
)

// Visited is the set of listing and detail URLs the crawl has admitted,
// keyed by canonical form. A cyclic next-page link or a detail link repeated
// across pages is admitted only once.
type Visited struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

// NewVisited creates an empty set.
func NewVisited() *Visited {
	return &Visited{urls: make(map[string]struct{})}
}

// Admit adds the URL and reports whether it was not yet in the set.
func (v *Visited) Admit(rawURL string) bool {
	key := CanonicalizeURL(rawURL)

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.urls[key]; ok {
		return false
	}
	v.urls[key] = struct{}{}
	return true
}

// Len returns the number of distinct URLs admitted.
func (v *Visited) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.urls)
}

// CanonicalizeURL reduces URLs that address the same page to one string:
// lowercase scheme and host, no fragment, no default port, sorted query and
// no trailing slash. Unparseable input is returned as is.
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment, u.RawFragment = "", ""
	if port := u.Port(); (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = u.Hostname()
	}

	if u.RawQuery != "" {
		q := u.Query()
		for _, vals := range q {
			slices.Sort(vals)
		}
		u.RawQuery = q.Encode() // sorted by key
	}

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
