// Package document defines the read/write view of a parsed office document
// that the compliance engine works on. One adapter per file format lives in
// the parser package; Memory is the format-neutral implementation.
package document

import (
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Document exposes an ordered paragraph sequence.
type Document interface {
	Paragraphs() []Paragraph
}

// Paragraph is a single block of text with style and alignment metadata.
type Paragraph interface {
	Text() string
	// SetText replaces the paragraph text. Run formatting of the first run
	// is kept, the remaining runs are dropped.
	SetText(text string)
	Style() string
	Alignment() Alignment
	// Runs returns the formatted fragments of the paragraph with font and
	// size already resolved against paragraph defaults.
	Runs() []Run
}

// Run is a formatted text fragment.
type Run interface {
	Text() string
	Font() string
	Size() Size
}

// Saver is implemented by documents that can serialize their current state,
// e.g. after an auto-fix pass.
type Saver interface {
	Save(w io.Writer) error
}

// Alignment is the paragraph-level horizontal alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	}
	return "unknown"
}

// ParseAlignment maps alignment codes used by docx (w:jc), HTML/CSS and
// the numeric python-docx enumeration to an Alignment. Unknown or empty
// values map to AlignLeft, the inherited default.
func ParseAlignment(s string) Alignment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "center", "1":
		return AlignCenter
	case "right", "end", "2":
		return AlignRight
	case "both", "justify", "distribute", "3":
		return AlignJustify
	}
	return AlignLeft
}

// SizeUnit identifies how a stored font size is expressed.
type SizeUnit int

const (
	UnitPoint SizeUnit = iota
	// UnitHalfPoint is the docx w:sz unit.
	UnitHalfPoint
	// UnitEMU is the English Metric Unit, 12700 per point.
	UnitEMU
)

// emuPerPoint converts English Metric Units to points.
const emuPerPoint = 12700

// Size is a font size in some storage unit. The zero value means the size
// is not set.
type Size struct {
	Value float64
	Unit  SizeUnit
}

// Points returns the size in points. ok is false when the size is unset or
// not a positive number.
func (s Size) Points() (pt float64, ok bool) {
	if s.Value <= 0 {
		return 0, false
	}
	switch s.Unit {
	case UnitPoint:
		return s.Value, true
	case UnitHalfPoint:
		return s.Value / 2, true
	case UnitEMU:
		return s.Value / emuPerPoint, true
	}
	return 0, false
}

// IsSet reports whether the size carries a value.
func (s Size) IsSet() bool {
	return s.Value > 0
}

// Pt builds a Size in points.
func Pt(v float64) Size {
	return Size{Value: v, Unit: UnitPoint}
}

// HeadingLevel returns the heading depth encoded in a style tag such as
// "Heading 1", "Heading2" or "Заголовок 3", or 0 when the style is not a
// heading style.
func HeadingLevel(style string) int {
	s := strings.TrimSpace(style)
	lower := strings.ToLower(s)
	var rest string
	switch {
	case strings.HasPrefix(lower, "heading"):
		rest = s[len("heading"):]
	case strings.HasPrefix(lower, "заголовок"):
		rest = s[len("заголовок"):]
	default:
		return 0
	}
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// IsHeading reports whether the paragraph carries a heading style.
func IsHeading(p Paragraph) bool {
	return HeadingLevel(p.Style()) > 0
}

// IsBlank reports whether the paragraph has no visible text.
func IsBlank(p Paragraph) bool {
	return strings.TrimSpace(p.Text()) == ""
}

// FullText joins the text of all paragraphs with single spaces.
func FullText(doc Document) string {
	paras := doc.Paragraphs()
	parts := make([]string, 0, len(paras))
	for _, p := range paras {
		parts = append(parts, p.Text())
	}
	return strings.Join(parts, " ")
}
