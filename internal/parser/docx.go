package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/normatext/internal/document"
)

// DOCXParser handles .docx files. The returned document writes changes back
// into the docx tree and saves as .docx.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (document.Document, error) {
	// go-docx needs a ReaderAt+size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	return FromDocx(doc), nil
}

// DocxDocument adapts a go-docx tree to document.Document. Only top-level
// body paragraphs are exposed; tables are not checked.
type DocxDocument struct {
	doc   *docx.Docx
	paras []document.Paragraph
}

// FromDocx wraps an already parsed or freshly built docx.
func FromDocx(doc *docx.Docx) *DocxDocument {
	d := &DocxDocument{doc: doc}
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			d.paras = append(d.paras, &docxParagraph{p: p})
		}
	}
	return d
}

func (d *DocxDocument) Paragraphs() []document.Paragraph {
	return d.paras
}

// Save writes the docx container.
func (d *DocxDocument) Save(w io.Writer) error {
	if _, err := d.doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

type docxParagraph struct {
	p *docx.Paragraph
}

func (dp *docxParagraph) runs() []*docx.Run {
	var out []*docx.Run
	for _, child := range dp.p.Children {
		switch c := child.(type) {
		case *docx.Run:
			out = append(out, c)
		case *docx.Hyperlink:
			out = append(out, &c.Run)
		}
	}
	return out
}

func (dp *docxParagraph) Text() string {
	var buf strings.Builder
	for _, r := range dp.runs() {
		buf.WriteString(runText(r))
	}
	return buf.String()
}

func runText(r *docx.Run) string {
	var buf strings.Builder
	for _, rc := range r.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		}
	}
	return buf.String()
}

// SetText replaces all runs with the first one carrying text.
func (dp *docxParagraph) SetText(text string) {
	var first *docx.Run
	for _, child := range dp.p.Children {
		if r, ok := child.(*docx.Run); ok {
			first = r
			break
		}
	}
	if first == nil {
		first = &docx.Run{RunProperties: &docx.RunProperties{}}
	}
	first.Children = []interface{}{&docx.Text{Text: text, XMLSpace: "preserve"}}

	kept := make([]interface{}, 0, len(dp.p.Children))
	placed := false
	for _, child := range dp.p.Children {
		switch child.(type) {
		case *docx.Run, *docx.Hyperlink:
			if !placed {
				kept = append(kept, first)
				placed = true
			}
		default:
			kept = append(kept, child)
		}
	}
	if !placed {
		kept = append(kept, first)
	}
	dp.p.Children = kept
}

func (dp *docxParagraph) Style() string {
	if dp.p.Properties == nil || dp.p.Properties.Style == nil {
		return ""
	}
	return dp.p.Properties.Style.Val
}

func (dp *docxParagraph) Alignment() document.Alignment {
	if dp.p.Properties == nil || dp.p.Properties.Justification == nil {
		return document.AlignLeft
	}
	return document.ParseAlignment(dp.p.Properties.Justification.Val)
}

// Runs resolves run font and size against the paragraph mark properties.
func (dp *docxParagraph) Runs() []document.Run {
	var defFont string
	var defSize document.Size
	if dp.p.Properties != nil {
		defFont = fontName(dp.p.Properties.RunProperties)
		defSize = fontSize(dp.p.Properties.RunProperties)
	}
	var out []document.Run
	for _, r := range dp.runs() {
		span := document.Span{
			Content:  runText(r),
			FontName: fontName(r.RunProperties),
			FontSize: fontSize(r.RunProperties),
		}
		if span.FontName == "" {
			span.FontName = defFont
		}
		if !span.FontSize.IsSet() {
			span.FontSize = defSize
		}
		out = append(out, span)
	}
	return out
}

func fontName(rp *docx.RunProperties) string {
	if rp == nil || rp.Fonts == nil {
		return ""
	}
	for _, name := range []string{rp.Fonts.ASCII, rp.Fonts.HAnsi, rp.Fonts.EastAsia} {
		if name != "" {
			return name
		}
	}
	return ""
}

// fontSize reads w:sz, falling back to w:szCs. Both are in half-points;
// unparsable values are treated as unset.
func fontSize(rp *docx.RunProperties) document.Size {
	if rp == nil {
		return document.Size{}
	}
	var raw string
	switch {
	case rp.Size != nil:
		raw = rp.Size.Val
	case rp.SizeCs != nil:
		raw = rp.SizeCs.Val
	default:
		return document.Size{}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 {
		return document.Size{}
	}
	return document.Size{Value: v, Unit: document.UnitHalfPoint}
}
