package parser

import (
	"fmt"
	"log/slog"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/wantedcrawl/internal/config"
	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// Labels that prefix the profile fields on a detail page.
const (
	LabelDateOfBirth = "Date of birth:"
	LabelCitizenship = "Citizenship:"
	LabelAddress     = "Home address:"
	LabelReason      = "Reason:"
	LabelBornIn      = "Born in:"
)

// DetailParser builds a Record from a wanted-person detail page using XPath.
type DetailParser struct {
	profile string
	details string
	photo   string
	logger  *slog.Logger
}

// NewDetailParser creates a detail parser from the configured XPath expressions.
func NewDetailParser(cfg config.ParserConfig, logger *slog.Logger) *DetailParser {
	return &DetailParser{
		profile: cfg.ProfileXPath,
		details: cfg.DetailsXPath,
		photo:   cfg.PhotoXPath,
		logger:  logger.With("component", "detail_parser"),
	}
}

// Parse extracts every field of a detail page. It never fails: a page that
// cannot be parsed yields a record holding only its URL.
func (p *DetailParser) Parse(resp *types.Response) *types.Record {
	rec := types.NewRecord(resp.URL())

	doc, err := resp.Node()
	if err != nil {
		p.logger.Warn("detail page not parseable", "url", rec.URL, "error", err)
		return rec
	}

	rec.Name = p.Name(doc).String()
	rec.DateOfBirth = p.DateOfBirth(doc).String()
	rec.Citizenship = p.Labelled(doc, LabelCitizenship).String()
	rec.Address = p.Labelled(doc, LabelAddress).String()
	rec.Reason = p.Labelled(doc, LabelReason).String()
	rec.Details = p.Details(doc).String()
	rec.BornIn = p.Labelled(doc, LabelBornIn).String()
	rec.ImageURL = p.ImageURL(doc).String()

	p.logger.Debug("detail parsed", "url", rec.URL, "name", rec.Name)
	return rec
}

// Name returns the heading of the profile block.
func (p *DetailParser) Name(doc *html.Node) Field {
	text, ok := p.first(doc, p.profile+"/h3/text()")
	if !ok {
		return Missing
	}
	return Found(CollapseWhitespace(text))
}

// Labelled returns the text of the first profile node containing label, with
// the label itself stripped.
func (p *DetailParser) Labelled(doc *html.Node, label string) Field {
	text, ok := p.first(doc, labelXPath(p.profile+"//*", label))
	if !ok {
		return Missing
	}
	return Found(StripAnchor(text, label))
}

// DateOfBirth returns the birth date reformatted as DD/MM/YYYY.
func (p *DetailParser) DateOfBirth(doc *html.Node) Field {
	text, ok := p.first(doc, labelXPath(p.profile+"/*", LabelDateOfBirth))
	if !ok {
		return Missing
	}
	return NormalizeDate(StripAnchor(text, LabelDateOfBirth))
}

// Details returns the first paragraph of the additional details block.
func (p *DetailParser) Details(doc *html.Node) Field {
	text, ok := p.first(doc, p.details)
	if !ok {
		return Missing
	}
	return Found(CollapseWhitespace(text))
}

// ImageURL returns the photo source exactly as it appears in the markup.
func (p *DetailParser) ImageURL(doc *html.Node) Field {
	text, ok := p.first(doc, p.photo)
	if !ok {
		return Missing
	}
	return Found(text)
}

// first returns the text of the first node matching expr.
func (p *DetailParser) first(doc *html.Node, expr string) (string, bool) {
	node, err := htmlquery.Query(doc, expr)
	if err != nil {
		p.logger.Warn("invalid xpath", "selector", expr, "error", err)
		return "", false
	}
	if node == nil {
		return "", false
	}
	return htmlquery.InnerText(node), true
}

// labelXPath matches the first text node of elements under base whose text
// contains the label word (the trailing colon is not required to match).
func labelXPath(base, label string) string {
	word := label
	if n := len(word); n > 0 && word[n-1] == ':' {
		word = word[:n-1]
	}
	return fmt.Sprintf(`%s[contains(text(),%q)]/text()`, base, word)
}
