package compliance

import (
	"strings"
	"unicode"

	"github.com/dgallion1/normatext/internal/document"
)

// punct is trimmed from both ends of every token.
const punct = ".,;:!?\"'()[]{}—–-«»„“”…"

// token is one whitespace-separated word. clean is the word with edge
// punctuation trimmed; ok is false when clean is empty or contains a
// non-letter, in which case the token is not checked.
type token struct {
	raw   string
	clean string
	ok    bool
}

func tokenize(text string) []token {
	fields := strings.Fields(text)
	out := make([]token, len(fields))
	for i, f := range fields {
		out[i] = newToken(f)
	}
	return out
}

func newToken(raw string) token {
	clean := strings.Trim(raw, punct)
	return token{raw: raw, clean: clean, ok: isWord(clean)}
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// lemmaOf returns the lemma of a clean token. Lookup failures skip the
// token.
func (e *Engine) lemmaOf(clean string) (string, bool) {
	l, err := e.lemmas.Normalize(strings.ToLower(clean))
	if err != nil {
		e.log.Debug("lemma lookup failed, token skipped", "token", clean, "error", err)
		return "", false
	}
	return l, true
}

// CheckTerminology reports every token whose lemma is forbidden, once per
// occurrence.
func (e *Engine) CheckTerminology(doc document.Document) []Finding {
	var findings []Finding
	for i, p := range doc.Paragraphs() {
		if document.IsBlank(p) {
			continue
		}
		for _, tok := range tokenize(p.Text()) {
			if !tok.ok {
				continue
			}
			l, ok := e.lemmaOf(tok.clean)
			if !ok || !e.rules.IsForbidden(l) {
				continue
			}
			findings = append(findings, at(i+1, RuleTerminology,
				"Недопустимое слово «%s» (основа: «%s»)", tok.clean, l))
		}
	}
	return findings
}
