package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/normatext/internal/document"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m := doc.(*document.Memory); m.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", m.Title)
	}
	want := []string{
		"First paragraph line one. First paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	got := paragraphTexts(doc)
	if len(got) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("paragraph[%d]: expected %q, got %q", i, w, got[i])
		}
	}
	for _, para := range doc.Paragraphs() {
		if para.Style() != "Normal" {
			t.Errorf("expected Normal style, got %q", para.Style())
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Paragraphs()) != 0 {
		t.Errorf("expected 0 paragraphs for empty input, got %d", len(doc.Paragraphs()))
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Multiple consecutive blank lines should not produce empty paragraphs.
	input := "Para one.\n\n\n\nPara two.\r\n   \nPara three."
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(doc.Paragraphs()); n != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", n)
	}
}

func TestTextParser_SaveRoundTrip(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader("Надо сделать.\n\nВторой абзац."), "fix.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc.Paragraphs()[0].SetText("Необходимо сделать.")

	var buf strings.Builder
	if err := doc.(document.Saver).Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	want := "Необходимо сделать.\n\nВторой абзац.\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"a.docx", false},
		{"a.DOCX", false},
		{"a.md", false},
		{"a.markdown", false},
		{"a.htm", false},
		{"a.pdf", false},
		{"a.txt", false},
		{"a.doc", true},
		{"a", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ForFile(tc.name)
			if (err != nil) != tc.wantErr {
				t.Errorf("expected error=%v, got %v", tc.wantErr, err)
			}
			if IsSupportedExtension(tc.name) == tc.wantErr {
				t.Errorf("IsSupportedExtension(%q) disagrees with ForFile", tc.name)
			}
		})
	}
}

func TestOutputExtension(t *testing.T) {
	if got := OutputExtension("a.DOCX"); got != ".docx" {
		t.Errorf("expected .docx, got %q", got)
	}
	if got := OutputExtension("a.md"); got != ".txt" {
		t.Errorf("expected .txt, got %q", got)
	}
}
