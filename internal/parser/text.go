package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/normatext/internal/document"
)

// TextParser handles plain text files. Paragraphs are separated by blank
// lines; lines inside a paragraph are joined with a space.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (document.Document, error) {
	paragraphs, err := splitParagraphs(r)
	if err != nil {
		return nil, err
	}
	doc := &document.Memory{Title: strings.TrimSuffix(filename, ".txt")}
	for _, para := range paragraphs {
		doc.Append(document.Body(para))
	}
	return doc, nil
}

func splitParagraphs(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(strings.TrimSpace(line))
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paragraphs, nil
}
