package types

import "testing"

func TestNewRecordDefaultsToSentinel(t *testing.T) {
	r := NewRecord("https://example.com/a")

	fields := r.Fields()
	if len(fields) != len(RecordColumns) {
		t.Fatalf("expected %d fields, got %d", len(RecordColumns), len(fields))
	}
	for _, col := range RecordColumns {
		want := NotAvailable
		if col == ColURL {
			want = "https://example.com/a"
		}
		if fields[col] != want {
			t.Errorf("%s: expected %q, got %q", col, want, fields[col])
		}
	}
}

func TestRecordGetSet(t *testing.T) {
	r := NewRecord("u")

	if !r.Set(ColName, "Ion Popescu") {
		t.Fatal("Set on known column returned false")
	}
	if v, ok := r.Get(ColName); !ok || v != "Ion Popescu" {
		t.Errorf("expected Ion Popescu, got %q (ok=%v)", v, ok)
	}
	if r.Set("shoe_size", "44") {
		t.Error("Set on unknown column should return false")
	}
	if _, ok := r.Get("shoe_size"); ok {
		t.Error("Get on unknown column should report false")
	}
}

func TestNewRequestRejectsRelative(t *testing.T) {
	if _, err := NewRequest("/en/most-wanted"); err == nil {
		t.Error("expected error for relative URL")
	}
	req, err := NewRequest("https://politiaromana.ro/en/most-wanted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Domain() != "politiaromana.ro" {
		t.Errorf("expected domain politiaromana.ro, got %q", req.Domain())
	}
}
