package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const pdfFamily = "report"

// PDFOptions controls PDF rendering. Cyrillic text needs a UTF-8 TrueType
// font; without FontPath the core Helvetica font is used and characters
// outside Windows-1252 are lost.
type PDFOptions struct {
	Title    string
	FontPath string
}

// WritePDF renders text as an A4 PDF, one MultiCell per line. The first
// line is set in a larger size.
func WritePDF(w io.Writer, text string, opts PDFOptions) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		pdf.AddUTF8Font(pdfFamily, "", opts.FontPath)
		family = pdfFamily
		tr = func(s string) string { return s }
	}
	pdf.SetFont(family, "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			pdf.Ln(5)
			continue
		}
		if first {
			pdf.SetFont(family, "", 14)
			pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
			pdf.SetFont(family, "", 11)
			first = false
			continue
		}
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}
