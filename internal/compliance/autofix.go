package compliance

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/normatext/internal/document"
)

type fixPlan struct {
	para  document.Paragraph
	words []string
}

// AutoFix rewrites tokens whose lemma has a replacement and returns the
// number of substitutions plus deletions. The whole document is planned
// before any paragraph is touched; when the total is zero the document is
// left as is, otherwise every non-blank paragraph is rewritten with its
// tokens joined by single spaces.
func (e *Engine) AutoFix(doc document.Document) int {
	var (
		plans []fixPlan
		total int
	)
	for _, p := range doc.Paragraphs() {
		if document.IsBlank(p) {
			continue
		}
		words, n := e.fixParagraph(p.Text())
		total += n
		plans = append(plans, fixPlan{para: p, words: words})
	}
	if total == 0 {
		return 0
	}
	for _, pl := range plans {
		pl.para.SetText(strings.Join(pl.words, " "))
	}
	e.log.Info("auto-fix applied", "replacements", total, "paragraphs", len(plans))
	return total
}

func (e *Engine) fixParagraph(text string) ([]string, int) {
	toks := tokenize(text)
	out := make([]string, 0, len(toks))
	n := 0
	for _, tok := range toks {
		if !tok.ok {
			out = append(out, tok.raw)
			continue
		}
		l, ok := e.lemmaOf(tok.clean)
		if !ok {
			out = append(out, tok.raw)
			continue
		}
		repl, has := e.rules.Replacement(l)
		if !has {
			out = append(out, tok.raw)
			continue
		}
		n++
		if repl == "" {
			continue
		}
		out = append(out, strings.Replace(tok.raw, tok.clean, matchCase(tok.clean, repl), 1))
	}
	return out, n
}

// matchCase gives repl the case pattern of surface: all caps, capitalized
// or lower.
func matchCase(surface, repl string) string {
	switch {
	case isUpper(surface):
		return strings.ToUpper(repl)
	case startsUpper(surface):
		return capitalize(repl)
	}
	return strings.ToLower(repl)
}

// isUpper reports whether s has at least one cased letter and no lowercase
// ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r) || unicode.IsTitle(r)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
