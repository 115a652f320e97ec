// Package rules holds the static rule configuration of the checker: the
// forbidden vocabulary, the lemma replacement table and the required
// fields per document type.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrUnknownDocType is returned by ParseDocType for unrecognised names.
var ErrUnknownDocType = errors.New("unknown document type")

// DocType is the logical category of a checked document.
type DocType int

const (
	Order DocType = iota
	Memo
	Report
)

// DocTypes lists every document type in display order.
var DocTypes = []DocType{Order, Memo, Report}

func (t DocType) String() string {
	switch t {
	case Order:
		return "order"
	case Memo:
		return "memo"
	case Report:
		return "report"
	}
	return fmt.Sprintf("DocType(%d)", int(t))
}

// Title returns the Russian name of the document type.
func (t DocType) Title() string {
	switch t {
	case Order:
		return "приказ"
	case Memo:
		return "служебная записка"
	case Report:
		return "отчёт"
	}
	return ""
}

var docTypeNames = map[string]DocType{
	"order":             Order,
	"приказ":            Order,
	"memo":              Memo,
	"служебная записка": Memo,
	"служебка":          Memo,
	"записка":           Memo,
	"report":            Report,
	"отчёт":             Report,
	"отчет":             Report,
}

// ParseDocType resolves a Russian or English document type name.
func ParseDocType(s string) (DocType, error) {
	key := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if t, ok := docTypeNames[key]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDocType, s)
}

// Set is an immutable rule configuration. Keys of Forbidden and
// Replacements are lemmas. An empty replacement means the token is deleted.
type Set struct {
	Forbidden    map[string]struct{}
	Replacements map[string]string
	Required     map[DocType][]string
}

// IsForbidden reports whether lemma is in the forbidden vocabulary.
func (s *Set) IsForbidden(lemma string) bool {
	_, ok := s.Forbidden[lemma]
	return ok
}

// Replacement returns the replacement for lemma and whether it has one.
func (s *Set) Replacement(lemma string) (string, bool) {
	r, ok := s.Replacements[lemma]
	return r, ok
}

// RequiredFields returns the lowercase phrases a document of type t must
// contain.
func (s *Set) RequiredFields(t DocType) []string {
	return s.Required[t]
}

// ForbiddenWords returns the forbidden lemmas sorted.
func (s *Set) ForbiddenWords() []string {
	return slices.Sorted(maps.Keys(s.Forbidden))
}

// Fingerprint identifies the rule content: two sets with the same
// vocabulary, replacements and required fields share a fingerprint. The
// extra strings (such as the lemma backend) are mixed in after the rules.
func (s *Set) Fingerprint(extra ...string) string {
	h := sha256.New()
	fmt.Fprintf(h, "forbidden\x00")
	for _, w := range s.ForbiddenWords() {
		fmt.Fprintf(h, "%s\x00", w)
	}
	fmt.Fprintf(h, "replacements\x00")
	for _, k := range slices.Sorted(maps.Keys(s.Replacements)) {
		fmt.Fprintf(h, "%s=%s\x00", k, s.Replacements[k])
	}
	for _, t := range slices.Sorted(maps.Keys(s.Required)) {
		fmt.Fprintf(h, "required %d\x00", int(t))
		for _, f := range s.Required[t] {
			fmt.Fprintf(h, "%s\x00", f)
		}
	}
	for _, e := range extra {
		fmt.Fprintf(h, "extra\x00%s\x00", e)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Default returns a fresh copy of the built-in rule set.
func Default() *Set {
	s := &Set{
		Forbidden:    make(map[string]struct{}, len(defaultForbidden)),
		Replacements: maps.Clone(defaultReplacements),
		Required:     make(map[DocType][]string, len(defaultRequired)),
	}
	for _, w := range defaultForbidden {
		s.Forbidden[w] = struct{}{}
	}
	for t, fields := range defaultRequired {
		s.Required[t] = slices.Clone(fields)
	}
	return s
}

var defaultForbidden = []string{
	"штука", "типа", "короче", "ну тип", "как бы", "просто", "вообще", "очень",
	"крутой", "прикольный", "нифига", "блин", "чё", "надо", "дело", "общий",
	"факт", "имхо", "походу", "зачем", "чтоб", "ага", "угу", "аг", "сам",
	"конечно", "честно", "говорить", "вот", "именно", "так", "ничего",
	"фигня", "бардак", "завал", "халява", "лажа", "прикол", "треш", "огонь",
	"кажется", "думать", "мнение", "всё", "равно", "любой", "случай", "там",
	"этот", "самый", "вроде", "быть", "наверно", "примерно", "некоторый", "разный",
	"всякий", "чел", "народ", "ребята", "чувак", "пацан", "девчонка", "хотеть",
	"жестко", "кайф", "ништяк", "отпад", "жесть", "бомбить", "зашквар", "лол",
	"кек", "ржака", "мем", "сарказм", "ирония", "понимать", "идти", "прочее",
	"такой", "собственно", "фактически", "сути", "принцип",
}

var defaultReplacements = map[string]string{
	"надо":       "необходимо",
	"штука":      "единица",
	"крутой":     "значительный",
	"прикольный": "интересный",
	"думать":     "полагать",
	"примерно":   "приблизительно",
	"наверно":    "вероятно",
	"ребята":     "коллеги",
	"народ":      "сотрудники",
	"бардак":     "беспорядок",
	"фигня":      "несущественный вопрос",
	"очень":      "",
	"просто":     "",
	"вообще":     "",
	"короче":     "",
	"типа":       "",
	"конечно":    "",
	"походу":     "",
	"вроде":      "",
	"блин":       "",
	"собственно": "",
}

// defaultRequired must have an entry for every DocType.
var defaultRequired = map[DocType][]string{
	Order:  {"приказ"},
	Memo:   {"служебная записка"},
	Report: {"реферат", "заключение", "список использованных источников"},
}
