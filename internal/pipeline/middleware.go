package pipeline

import (
	"strings"
	"sync"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// SentinelMiddleware replaces blank values and the literal "None" with N/A.
type SentinelMiddleware struct{}

func (m *SentinelMiddleware) Name() string { return "sentinel" }

func (m *SentinelMiddleware) Process(rec *types.Record) (*types.Record, error) {
	for col, val := range rec.Fields() {
		if IsBlank(val) {
			rec.Set(col, types.NotAvailable)
		}
	}
	return rec, nil
}

// IsBlank reports whether a cell value counts as missing.
func IsBlank(s string) bool {
	return s == "" || s == "None"
}

// SanitizeMiddleware collapses whitespace in every field except the URL
// columns. Field values are already decoded text, so markup-like content
// such as "<3" or "&amp;" is kept as written.
type SanitizeMiddleware struct{}

func NewSanitizeMiddleware() *SanitizeMiddleware {
	return &SanitizeMiddleware{}
}

func (m *SanitizeMiddleware) Name() string { return "sanitize" }

func (m *SanitizeMiddleware) Process(rec *types.Record) (*types.Record, error) {
	for col, val := range rec.Fields() {
		if col == types.ColURL || col == types.ColImageURL || val == "" {
			continue
		}
		rec.Set(col, strings.Join(strings.Fields(val), " "))
	}
	return rec, nil
}

// RequiredFieldsMiddleware drops records whose required fields are missing.
type RequiredFieldsMiddleware struct {
	Fields []string
}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(rec *types.Record) (*types.Record, error) {
	for _, field := range m.Fields {
		val, ok := rec.Get(field)
		if !ok || IsBlank(val) || val == types.NotAvailable {
			return nil, nil
		}
	}
	return rec, nil
}

// DedupMiddleware rejects records whose URL was already seen with
// types.ErrDuplicate.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[string]struct{}),
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(rec *types.Record) (*types.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[rec.URL]; exists {
		return nil, types.ErrDuplicate
	}
	m.seen[rec.URL] = struct{}{}
	return rec, nil
}
