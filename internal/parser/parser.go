// Package parser extracts listing links and wanted-person fields from fetched pages.
package parser

import (
	"strings"
	"time"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// Field is the outcome of one extraction. Found is false when the anchor node
// was absent or the value could not be parsed; an extracted but empty value
// is Found with Value "".
type Field struct {
	Value string
	Found bool
}

// Missing is the result for an absent or unparseable field.
var Missing = Field{}

// Found wraps a successfully extracted value.
func Found(v string) Field {
	return Field{Value: v, Found: true}
}

// String returns the value, or the sentinel when the field is missing.
func (f Field) String() string {
	if !f.Found {
		return types.NotAvailable
	}
	return f.Value
}

// CollapseWhitespace replaces every run of whitespace with a single space and trims the result.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripAnchor removes the label (e.g. "Citizenship:") from a labelled text node.
// Everything after the label is kept; text without the label yields "".
func StripAnchor(text, anchor string) string {
	parts := strings.Split(text, anchor)
	return CollapseWhitespace(strings.Join(parts[1:], " "))
}

const (
	dateInLayout  = "2-1-2006" // day and month with or without leading zero
	dateOutLayout = "02/01/2006"
)

// NormalizeDate reformats a day-month-year date from dashes to slashes.
// Anything that does not parse is Missing; the unparsed text is discarded.
func NormalizeDate(s string) Field {
	t, err := time.Parse(dateInLayout, CollapseWhitespace(s))
	if err != nil {
		return Missing
	}
	return Found(t.Format(dateOutLayout))
}
