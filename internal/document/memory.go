package document

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Memory is an in-memory Document. Parsers for formats without a writable
// container build one, and tests use it as a fake.
type Memory struct {
	Title string
	Paras []*Para
}

// Para is a paragraph of a Memory document. Font and Size are paragraph
// defaults inherited by spans that leave them unset.
type Para struct {
	Content   string
	StyleName string
	Align     Alignment
	Font      string
	Size      Size
	Spans     []Span
}

// Span is a run of a Memory paragraph.
type Span struct {
	Content  string
	FontName string
	FontSize Size
}

// NewMemory builds a document from paragraphs.
func NewMemory(paras ...*Para) *Memory {
	return &Memory{Paras: paras}
}

// Body returns a plain body paragraph.
func Body(text string) *Para {
	return &Para{Content: text, StyleName: "Normal"}
}

// Heading returns a heading paragraph of the given level.
func Heading(level int, text string) *Para {
	return &Para{Content: text, StyleName: "Heading " + strconv.Itoa(level)}
}

func (m *Memory) Paragraphs() []Paragraph {
	out := make([]Paragraph, len(m.Paras))
	for i, p := range m.Paras {
		out[i] = p
	}
	return out
}

// Save writes paragraphs as plain text separated by blank lines.
func (m *Memory) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, p := range m.Paras {
		if i > 0 {
			if _, err := bw.WriteString("\n\n"); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(p.Content); err != nil {
			return err
		}
	}
	if len(m.Paras) > 0 {
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Append adds paragraphs at the end of the document.
func (m *Memory) Append(paras ...*Para) {
	m.Paras = append(m.Paras, paras...)
}

func (p *Para) Text() string         { return p.Content }
func (p *Para) Style() string        { return p.StyleName }
func (p *Para) Alignment() Alignment { return p.Align }

func (p *Para) SetText(text string) {
	p.Content = text
	if len(p.Spans) == 0 {
		return
	}
	first := p.Spans[0]
	first.Content = text
	p.Spans = []Span{first}
}

// Runs returns the spans with inherited font and size filled in. A
// paragraph without explicit spans exposes its whole text as one run.
func (p *Para) Runs() []Run {
	if len(p.Spans) == 0 {
		if strings.TrimSpace(p.Content) == "" {
			return nil
		}
		return []Run{Span{Content: p.Content, FontName: p.Font, FontSize: p.Size}}
	}
	out := make([]Run, 0, len(p.Spans))
	for _, s := range p.Spans {
		if s.FontName == "" {
			s.FontName = p.Font
		}
		if !s.FontSize.IsSet() {
			s.FontSize = p.Size
		}
		out = append(out, s)
	}
	return out
}

func (s Span) Text() string { return s.Content }
func (s Span) Font() string { return s.FontName }
func (s Span) Size() Size   { return s.FontSize }
