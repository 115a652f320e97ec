// Package compliance checks a parsed document against the formatting
// standard: heading numbering, forbidden vocabulary, required fields and
// typography. It also implements the lexical auto-fix pass.
//
// Rule violations are returned as Findings. Nothing in this package returns
// an error for document content; malformed items are skipped.
package compliance

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dgallion1/normatext/internal/document"
	"github.com/dgallion1/normatext/internal/lemma"
	"github.com/dgallion1/normatext/internal/rules"
)

// Category selects a group of checks.
type Category string

const (
	CategoryTerminology Category = "terminology"
	CategoryStructure   Category = "structure"
	CategoryNumbering   Category = "numbering"
)

// Categories lists all categories in output order.
var Categories = []Category{CategoryTerminology, CategoryStructure, CategoryNumbering}

var categoryNames = map[string]Category{
	"terminology":  CategoryTerminology,
	"терминология": CategoryTerminology,
	"structure":    CategoryStructure,
	"структура":    CategoryStructure,
	"numbering":    CategoryNumbering,
	"нумерация":    CategoryNumbering,
}

// ParseCategory resolves a Russian or English category name.
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown rule category %q", s)
}

// ParseCategories parses a comma-separated list. An empty list selects all
// categories.
func ParseCategories(list string) ([]Category, error) {
	var out []Category
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseCategory(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Engine runs the checks with an injected lemma service and rule set. It
// holds no per-document state and is safe for concurrent use when its
// Normalizer is.
type Engine struct {
	lemmas lemma.Normalizer
	rules  *rules.Set
	log    *slog.Logger
}

// New creates an engine. A nil rule set selects the defaults; a nil logger
// discards output.
func New(n lemma.Normalizer, r *rules.Set, log *slog.Logger) *Engine {
	if r == nil {
		r = rules.Default()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{lemmas: n, rules: r, log: log}
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() *rules.Set {
	return e.rules
}

// Check runs the selected categories (all when none are given) and returns
// findings ordered terminology, structure, numbering.
func (e *Engine) Check(doc document.Document, t rules.DocType, cats ...Category) []Finding {
	if len(cats) == 0 {
		cats = Categories
	}
	var findings []Finding
	for _, c := range Categories {
		if !slices.Contains(cats, c) {
			continue
		}
		var got []Finding
		switch c {
		case CategoryTerminology:
			got = e.CheckTerminology(doc)
		case CategoryStructure:
			got = e.CheckStructure(doc, t)
		case CategoryNumbering:
			got = CheckNumbering(ExtractHeadings(doc))
		}
		e.log.Debug("category checked", "category", c, "findings", len(got))
		findings = append(findings, got...)
	}
	return findings
}
