package parser

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/normatext/internal/document"
)

// MarkdownParser handles Markdown files using goldmark. ATX and setext
// headings map to "Heading N" styles; list items become paragraphs prefixed
// with a bullet or their ordinal.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	doc := &document.Memory{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
	}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		appendMarkdownBlock(doc, n, src)
	}
	return doc, nil
}

func appendMarkdownBlock(doc *document.Memory, n ast.Node, src []byte) {
	switch node := n.(type) {
	case *ast.Heading:
		doc.Append(document.Heading(node.Level, extractText(node, src)))
	case *ast.List:
		ordinal := node.Start
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			marker := "•"
			if node.IsOrdered() {
				marker = strconv.Itoa(ordinal) + "."
				ordinal++
			}
			var nested []ast.Node
			var body []string
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				if _, ok := c.(*ast.List); ok {
					nested = append(nested, c)
					continue
				}
				if t := extractText(c, src); t != "" {
					body = append(body, t)
				}
			}
			doc.Append(document.Body(strings.TrimSpace(marker + " " + strings.Join(body, " "))))
			for _, c := range nested {
				appendMarkdownBlock(doc, c, src)
			}
		}
	case *ast.ThematicBreak, *ast.HTMLBlock:
	default:
		if t := extractText(n, src); t != "" {
			doc.Append(document.Body(t))
		}
	}
}

// extractText gets the text content of a goldmark AST node. Line breaks
// inside a block become spaces.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(extractText(c, src))
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}
