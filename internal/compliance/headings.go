package compliance

import (
	"strings"
	"unicode"

	"github.com/dgallion1/normatext/internal/document"
)

// Heading is a heading paragraph split into its declared number and title.
// Number is empty when the heading carries no valid number for its level;
// Text then keeps the whole heading text.
type Heading struct {
	Level          int
	Number         string
	Text           string
	ParagraphIndex int
}

// Line returns the 1-based paragraph number of the heading.
func (h Heading) Line() int {
	return h.ParagraphIndex + 1
}

// ExtractHeadings returns the heading paragraphs of doc in order.
func ExtractHeadings(doc document.Document) []Heading {
	var headings []Heading
	for i, p := range doc.Paragraphs() {
		if document.IsBlank(p) {
			continue
		}
		level := document.HeadingLevel(p.Style())
		if level == 0 {
			continue
		}
		text := strings.TrimSpace(p.Text())
		h := Heading{Level: level, Text: text, ParagraphIndex: i}
		if i := strings.IndexFunc(text, unicode.IsSpace); i > 0 && ValidNumber(text[:i], level) {
			h.Number = text[:i]
			h.Text = strings.TrimSpace(text[i:])
		}
		headings = append(headings, h)
	}
	return headings
}
