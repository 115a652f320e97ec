package report

import (
	"bytes"
	"errors"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/dgallion1/normatext/internal/compliance"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		findings []compliance.Finding
		want     string
	}{
		{"clean", nil, "Проверка завершена.\nОшибок не найдено!"},
		{
			"with findings",
			[]compliance.Finding{
				{Line: 0, Rule: compliance.RuleRequiredField, Message: "Отсутствует обязательное поле: приказ"},
				{Line: 3, Rule: compliance.RuleCaps, Message: "Текст не должен быть полностью заглавными буквами"},
			},
			"Проверка завершена.\nНайденные ошибки:\n" +
				"• Отсутствует обязательное поле: приказ\n" +
				"• Стр. 3: Текст не должен быть полностью заглавными буквами",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.findings); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFixSummary(t *testing.T) {
	want := "Автоматическое исправление завершено.\nВыполнено замен: 4"
	if got := FixSummary(4); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in   string
		want Encoding
	}{
		{"", UTF8},
		{"UTF-8", UTF8},
		{"utf8", UTF8},
		{"cp1251", Windows1251},
		{" Windows-1251 ", Windows1251},
	}
	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		if err != nil {
			t.Fatalf("ParseEncoding(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseEncoding(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
	if _, err := ParseEncoding("koi8-r"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("expected ErrUnknownEncoding, got %v", err)
	}
}

func TestEncode_Windows1251(t *testing.T) {
	text := Text([]compliance.Finding{{Line: 2, Message: "Недопустимое слово «надо»"}})
	b, err := Encode(text, Windows1251)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if b[0] != 0xCF {
		t.Errorf("expected cp1251 byte 0xCF for П, got %#x", b[0])
	}
	if len(b) != len([]rune(text)) {
		t.Errorf("expected one byte per rune, got %d bytes for %d runes", len(b), len([]rune(text)))
	}
	back, err := charmap.Windows1251.NewDecoder().Bytes(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(back) != text {
		t.Errorf("expected round trip %q, got %q", text, back)
	}
}

func TestEncode_Unsupported(t *testing.T) {
	b, err := Encode("ok ✓", Windows1251)
	if err != nil {
		t.Fatalf("expected replacement instead of error, got %v", err)
	}
	if len(b) != 4 {
		t.Errorf("expected 4 bytes, got %d", len(b))
	}
	if _, err := Encode("x", Encoding("latin1")); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("expected ErrUnknownEncoding, got %v", err)
	}
}

func TestWriteText_UTF8(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, "Проверка", UTF8); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "Проверка" {
		t.Errorf("expected utf-8 passthrough, got %q", buf.String())
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	text := "Check report\nFound issues:\n\n- line 3: caps"
	if err := WritePDF(&buf, text, PDFOptions{Title: "report"}); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("expected PDF header, got %q", buf.Bytes()[:8])
	}
}

func TestWritePDF_MissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := WritePDF(&buf, "x", PDFOptions{FontPath: "/nonexistent/font.ttf"})
	if err == nil {
		t.Error("expected error for missing font file")
	}
}
