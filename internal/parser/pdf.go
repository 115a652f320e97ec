package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/normatext/internal/document"
)

// PDFParser handles PDF files. It tries the Go library first, then falls
// back to pdftotext if enabled. PDF carries no paragraph styles, so every
// paragraph is body text.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (document.Document, error) {
	// ledongthuc/pdf opens by path.
	tmp, err := os.CreateTemp("", "normatext-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return pdfDocument(strings.TrimSuffix(filename, ".pdf"), text)
}

// pdfDocument splits extracted text into pages on form feeds and pages
// into paragraphs on blank lines.
func pdfDocument(title, text string) (*document.Memory, error) {
	doc := &document.Memory{Title: title}
	for _, page := range strings.Split(text, "\f") {
		paras, err := splitParagraphs(strings.NewReader(page))
		if err != nil {
			return nil, err
		}
		for _, para := range paras {
			doc.Append(document.Body(para))
		}
	}
	return doc, nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f")
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
