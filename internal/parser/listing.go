package parser

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/wantedcrawl/internal/config"
	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// Listing is what a listing page yields: detail links in page order and the
// optional next-page link.
type Listing struct {
	DetailURLs []string
	NextURL    string
}

// HasNext reports whether the listing links to another page.
func (l Listing) HasNext() bool {
	return l.NextURL != ""
}

// ListingParser extracts links from listing pages using CSS selectors via goquery.
type ListingParser struct {
	detailSel string
	nextSel   string
	logger    *slog.Logger
}

// NewListingParser creates a listing parser from the configured selectors.
func NewListingParser(cfg config.ParserConfig, logger *slog.Logger) *ListingParser {
	return &ListingParser{
		detailSel: cfg.DetailLinks,
		nextSel:   cfg.NextPage,
		logger:    logger.With("component", "listing_parser"),
	}
}

// Parse extracts detail-page links and the next-page link. Relative hrefs are
// resolved against the page URL.
func (p *ListingParser) Parse(resp *types.Response) (Listing, error) {
	doc, err := resp.Document()
	if err != nil {
		return Listing{}, &types.ParseError{URL: resp.URL(), Selector: p.detailSel, Err: err}
	}

	base, _ := url.Parse(resp.URL())

	var listing Listing
	doc.Find(p.detailSel).Each(func(_ int, sel *goquery.Selection) {
		if link := resolveHref(base, sel); link != "" {
			listing.DetailURLs = append(listing.DetailURLs, link)
		}
	})

	listing.NextURL = resolveHref(base, doc.Find(p.nextSel).First())

	p.logger.Debug("listing parsed",
		"url", resp.URL(),
		"details", len(listing.DetailURLs),
		"next", listing.NextURL,
	)
	return listing, nil
}

// resolveHref returns the absolute http(s) form of the selection's href, or "".
func resolveHref(base *url.URL, sel *goquery.Selection) string {
	href, exists := sel.Attr("href")
	if !exists {
		return ""
	}
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}
