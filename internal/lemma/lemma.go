// Package lemma provides the lemma service used by the terminology checks:
// it maps a surface word form to its dictionary (normal) form.
package lemma

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyWord is returned for blank input.
var ErrEmptyWord = errors.New("lemma: empty word")

// Normalizer returns the normal form of a lowercase word. Implementations
// return the word unchanged when it is not in their vocabulary and an error
// only when the lookup itself failed.
type Normalizer interface {
	Normalize(word string) (string, error)
}

// Func adapts a plain function to a Normalizer.
type Func func(word string) (string, error)

func (f Func) Normalize(word string) (string, error) { return f(word) }

// Map is a fixed form→lemma table. Unknown forms are returned unchanged.
// It is mostly useful as a deterministic lemmatizer in tests.
type Map map[string]string

func (m Map) Normalize(word string) (string, error) {
	if word == "" {
		return "", ErrEmptyWord
	}
	if l, ok := m[word]; ok {
		return l, nil
	}
	return word, nil
}

// Key canonicalizes a word before lookup: NFC composition, lowercase and
// trimmed surrounding space.
func Key(word string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(word)))
}
