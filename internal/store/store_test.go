package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/normatext/internal/compliance"
)

func TestCategoryKey(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"terminology"}, "terminology"},
		{[]string{"structure", "numbering", "structure"}, "numbering,structure"},
	}
	for _, tt := range tests {
		if got := CategoryKey(tt.in); got != tt.want {
			t.Errorf("CategoryKey(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestMemory_SaveFind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	r := &Report{
		ContentHash: "abc",
		Filename:    "order.docx",
		DocType:     "order",
		Categories:  []string{"terminology", "numbering"},
		Findings:    []compliance.Finding{{Line: 2, Rule: compliance.RuleTerminology, Message: "x"}},
	}
	if err := m.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	if r.ID != 1 || r.CreatedAt.IsZero() {
		t.Errorf("expected id and timestamp assigned, got id=%d created=%v", r.ID, r.CreatedAt)
	}

	got, err := m.Find(ctx, Query{ContentHash: "abc", DocType: "order", Categories: []string{"numbering", "terminology"}})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got.Findings) != 1 || got.Findings[0].Line != 2 {
		t.Errorf("expected stored finding, got %+v", got.Findings)
	}

	// Mutating the caller's report must not change the stored copy.
	r.Findings[0].Line = 99
	got, _ = m.Find(ctx, Query{ContentHash: "abc", DocType: "order", Categories: []string{"terminology", "numbering"}})
	if got.Findings[0].Line != 2 {
		t.Errorf("expected stored copy unaffected, got line %d", got.Findings[0].Line)
	}

	misses := []Query{
		{ContentHash: "other", DocType: "order", Categories: []string{"terminology", "numbering"}},
		{ContentHash: "abc", DocType: "memo", Categories: []string{"terminology", "numbering"}},
		{ContentHash: "abc", DocType: "order", Categories: []string{"terminology"}},
		{ContentHash: "abc", DocType: "order", Categories: []string{"terminology", "numbering"}, RulesHash: "r2"},
	}
	for _, q := range misses {
		if _, err := m.Find(ctx, q); !errors.Is(err, ErrNotFound) {
			t.Errorf("Find(%+v): expected ErrNotFound, got %v", q, err)
		}
	}
}

func TestMemory_FindMaxAge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	m.Save(ctx, &Report{ContentHash: "h", DocType: "memo"})
	now = now.Add(2 * time.Hour)

	q := Query{ContentHash: "h", DocType: "memo", MaxAge: time.Hour}
	if _, err := m.Find(ctx, q); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected stale report to be ErrNotFound, got %v", err)
	}
	q.MaxAge = 0
	if _, err := m.Find(ctx, q); err != nil {
		t.Errorf("expected report when age ignored, got %v", err)
	}
}

func TestMemory_Latest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := m.Latest(ctx, "h"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	m.Save(ctx, &Report{ContentHash: "h", DocType: "order"})
	m.Save(ctx, &Report{ContentHash: "h", DocType: "report"})

	got, err := m.Latest(ctx, "h")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.DocType != "report" || got.ID != 2 {
		t.Errorf("expected most recent report, got %+v", got)
	}
}
