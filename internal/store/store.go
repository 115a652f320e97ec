// Package store keeps the history of check reports, keyed by the content
// hash of the checked document.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/normatext/internal/compliance"
)

var ErrNotFound = errors.New("report not found")

// Report is one stored check result.
type Report struct {
	ID           int64                `json:"id"`
	CreatedAt    time.Time            `json:"created_at"`
	ContentHash  string               `json:"content_hash"`
	Filename     string               `json:"filename"`
	DocType      string               `json:"doc_type"`
	Categories   []string             `json:"categories"`
	RulesHash    string               `json:"rules_hash"`
	Findings     []compliance.Finding `json:"findings"`
	Replacements int                  `json:"replacements"`
	DurationMs   int64                `json:"duration_ms"`
}

// Query selects a reusable report: same content checked as the same
// document type with the same categories under the same rules. MaxAge of
// zero ignores age.
type Query struct {
	ContentHash string
	DocType     string
	Categories  []string
	RulesHash   string
	MaxAge      time.Duration
}

// Store persists reports. Find returns ErrNotFound when nothing matches.
type Store interface {
	Save(ctx context.Context, r *Report) error
	Find(ctx context.Context, q Query) (*Report, error)
	Latest(ctx context.Context, contentHash string) (*Report, error)
}

// CategoryKey is the canonical form of a category list used for matching.
func CategoryKey(cats []string) string {
	sorted := slices.Clone(cats)
	slices.Sort(sorted)
	return strings.Join(slices.Compact(sorted), ",")
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	byHash map[string][]*Report
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{byHash: make(map[string][]*Report), now: time.Now}
}

func (m *Memory) Save(_ context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	r.ID = m.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	cp := *r
	cp.Categories = slices.Clone(r.Categories)
	cp.Findings = slices.Clone(r.Findings)
	m.byHash[r.ContentHash] = append(m.byHash[r.ContentHash], &cp)
	return nil
}

func (m *Memory) Find(_ context.Context, q Query) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := CategoryKey(q.Categories)
	reports := m.byHash[q.ContentHash]
	for i := len(reports) - 1; i >= 0; i-- {
		r := reports[i]
		if r.DocType != q.DocType || r.RulesHash != q.RulesHash || CategoryKey(r.Categories) != key {
			continue
		}
		if q.MaxAge > 0 && m.now().Sub(r.CreatedAt) > q.MaxAge {
			return nil, ErrNotFound
		}
		cp := *r
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) Latest(_ context.Context, contentHash string) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reports := m.byHash[contentHash]
	if len(reports) == 0 {
		return nil, ErrNotFound
	}
	cp := *reports[len(reports)-1]
	return &cp, nil
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Postgres)(nil)
)
