package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(NewSanitizeMiddleware())

	rec := types.NewRecord("https://example.com/a")
	rec.Name = "  Ion \n Popescu  "
	rec.Reason = "Fraud\t&  theft"

	result, err := p.Process(rec)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.Name != "Ion Popescu" {
		t.Errorf("expected collapsed name, got %q", result.Name)
	}
	if result.Reason != "Fraud & theft" {
		t.Errorf("expected collapsed reason, got %q", result.Reason)
	}
}

func TestSanitizeKeepsLiteralText(t *testing.T) {
	m := NewSanitizeMiddleware()
	rec := types.NewRecord("https://example.com/a")
	rec.Name = "Tom &amp; Jerry <3"
	rec.Details = "a <b>bold</b>  claim"

	result, _ := m.Process(rec)
	if result.Name != "Tom &amp; Jerry <3" {
		t.Errorf("name changed: %q", result.Name)
	}
	if result.Details != "a <b>bold</b> claim" {
		t.Errorf("details = %q, want only whitespace collapsed", result.Details)
	}
}

func TestSanitizeKeepsURLs(t *testing.T) {
	m := NewSanitizeMiddleware()
	rec := types.NewRecord("https://example.com/a?x=1&amp;y=2")
	rec.ImageURL = "/img/a b.jpg"

	result, _ := m.Process(rec)
	if result.URL != "https://example.com/a?x=1&amp;y=2" {
		t.Errorf("url changed: %q", result.URL)
	}
	if result.ImageURL != "/img/a b.jpg" {
		t.Errorf("image_url changed: %q", result.ImageURL)
	}
}

func TestSentinelMiddleware(t *testing.T) {
	m := &SentinelMiddleware{}
	rec := types.NewRecord("https://example.com/a")
	rec.Name = ""
	rec.Reason = "None"
	rec.Details = "Nonetheless"

	result, _ := m.Process(rec)
	if result.Name != types.NotAvailable {
		t.Errorf("blank name should become sentinel, got %q", result.Name)
	}
	if result.Reason != types.NotAvailable {
		t.Errorf("\"None\" should become sentinel, got %q", result.Reason)
	}
	if result.Details != "Nonetheless" {
		t.Errorf("only the exact literal is replaced, got %q", result.Details)
	}
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m := &RequiredFieldsMiddleware{Fields: []string{types.ColURL}}

	result, err := m.Process(types.NewRecord("https://example.com/a"))
	if err != nil || result == nil {
		t.Error("record with url should pass")
	}

	result, _ = m.Process(types.NewRecord(""))
	if result != nil {
		t.Error("record without url should be dropped")
	}
}

func TestDedupMiddleware(t *testing.T) {
	m := NewDedupMiddleware()

	if r, _ := m.Process(types.NewRecord("https://example.com/a")); r == nil {
		t.Fatal("first record should pass")
	}
	r, err := m.Process(types.NewRecord("https://example.com/a"))
	if r != nil || !errors.Is(err, types.ErrDuplicate) {
		t.Errorf("duplicate record: got (%v, %v), want ErrDuplicate", r, err)
	}
	if r, _ := m.Process(types.NewRecord("https://example.com/b")); r == nil {
		t.Error("distinct record should pass")
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }
func (failingMiddleware) Process(*types.Record) (*types.Record, error) {
	return nil, errors.New("boom")
}

func TestPipelineErrorWrapsStage(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})

	_, err := p.Process(types.NewRecord("https://example.com/a"))
	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Stage != "failing" {
		t.Errorf("stage = %q, want failing", pe.Stage)
	}
}

func TestDefaultPipeline(t *testing.T) {
	p := Default(testLogger)
	if p.Len() != 4 {
		t.Errorf("expected 4 middleware, got %d", p.Len())
	}

	rec := types.NewRecord("https://example.com/a")
	rec.Name = "  "
	rec.Citizenship = "Romanian"

	result, err := p.Process(rec)
	if err != nil || result == nil {
		t.Fatalf("expected record to pass, err=%v", err)
	}
	if result.Name != types.NotAvailable {
		t.Errorf("whitespace-only name should become sentinel, got %q", result.Name)
	}

	dup, _ := p.Process(types.NewRecord("https://example.com/a"))
	if dup != nil {
		t.Error("second record with same url should be dropped")
	}
}
