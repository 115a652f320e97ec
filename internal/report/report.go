// Package report renders compliance findings for people: the plain-text
// summary shown after a check, its export in UTF-8 or Windows-1251, and a
// PDF rendition.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/dgallion1/normatext/internal/compliance"
)

const (
	headerDone    = "Проверка завершена."
	headerFound   = "Найденные ошибки:"
	headerClean   = "Ошибок не найдено!"
	headerFixed   = "Автоматическое исправление завершено."
	replacedLabel = "Выполнено замен"
)

var ErrUnknownEncoding = errors.New("unknown encoding")

// Text renders the check summary. An empty findings list yields the
// "no errors" form.
func Text(findings []compliance.Finding) string {
	if len(findings) == 0 {
		return headerDone + "\n" + headerClean
	}
	var b strings.Builder
	b.WriteString(headerDone)
	b.WriteString("\n")
	b.WriteString(headerFound)
	for _, f := range findings {
		b.WriteString("\n")
		b.WriteString(f.String())
	}
	return b.String()
}

// FixSummary renders the auto-fix result.
func FixSummary(replacements int) string {
	return fmt.Sprintf("%s\n%s: %d", headerFixed, replacedLabel, replacements)
}

// Encoding names a text export charset.
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	Windows1251 Encoding = "windows-1251"
)

// ParseEncoding accepts the usual spellings of the supported charsets.
// An empty name means UTF-8.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "windows-1251", "cp1251", "win1251", "1251":
		return Windows1251, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// ContentType is the HTTP content type for text exported in e.
func (e Encoding) ContentType() string {
	return "text/plain; charset=" + string(e)
}

// Encode converts text to the given charset. Runes Windows-1251 cannot
// represent are written as the charset's replacement byte.
func Encode(text string, enc Encoding) ([]byte, error) {
	switch enc {
	case UTF8, "":
		return []byte(text), nil
	case Windows1251:
		out, err := encoding.ReplaceUnsupported(charmap.Windows1251.NewEncoder()).String(text)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", enc, err)
		}
		return []byte(out), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
}

// WriteText encodes text and writes it to w.
func WriteText(w io.Writer, text string, enc Encoding) error {
	b, err := Encode(text, enc)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
