package lemma

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed data/ru.lex
var builtinLexicon string

// Dictionary is a form→lemma table loaded from lexicon files.
//
// Lexicon format, one entry per line:
//
//	lemma|form1,form2,...
//
// Lines starting with "!" are comments. The lemma itself is always
// registered as one of its own forms. When two lemmas claim the same form
// the first one loaded wins.
type Dictionary struct {
	forms map[string]string
}

// NewDictionary returns a dictionary seeded with the built-in Russian
// lexicon. Extra lexicon files are loaded on top of it.
func NewDictionary(paths ...string) (*Dictionary, error) {
	d := &Dictionary{forms: make(map[string]string, 2048)}
	if err := d.Load(strings.NewReader(builtinLexicon)); err != nil {
		return nil, fmt.Errorf("load builtin lexicon: %w", err)
	}
	for _, p := range paths {
		if err := d.LoadFile(p); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// LoadFile reads a lexicon file into d.
func (d *Dictionary) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()
	if err := d.Load(f); err != nil {
		return fmt.Errorf("load lexicon %s: %w", path, err)
	}
	return nil
}

// Load reads lexicon entries from r into d.
func (d *Dictionary) Load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		lemmaPart, formsPart, ok := strings.Cut(line, "|")
		if !ok {
			return fmt.Errorf("line %d: missing '|' separator", lineNo)
		}
		lemma := Key(lemmaPart)
		if lemma == "" {
			return fmt.Errorf("line %d: empty lemma", lineNo)
		}
		d.add(lemma, lemma)
		for _, form := range strings.Split(formsPart, ",") {
			if form = Key(form); form != "" {
				d.add(form, lemma)
			}
		}
	}
	return sc.Err()
}

func (d *Dictionary) add(form, lemma string) {
	if _, exists := d.forms[form]; exists {
		return
	}
	d.forms[form] = lemma
}

// Len returns the number of known forms.
func (d *Dictionary) Len() int {
	return len(d.forms)
}

// Lookup returns the lemma for a known form.
func (d *Dictionary) Lookup(word string) (string, bool) {
	l, ok := d.forms[Key(word)]
	return l, ok
}

// Normalize returns the lemma of word, or the canonicalized word itself
// when it is not in the dictionary.
func (d *Dictionary) Normalize(word string) (string, error) {
	k := Key(word)
	if k == "" {
		return "", ErrEmptyWord
	}
	if l, ok := d.forms[k]; ok {
		return l, nil
	}
	return k, nil
}
