package rules

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/dgallion1/normatext/internal/lemma"
)

// File is the on-disk rule override format (YAML or JSON):
//
//	replace: false          # true drops the built-in tables first
//	forbidden: [жесть, кек]
//	replacements: {надо: необходимо, очень: ""}
//	required:
//	  order: [приказ, утверждаю]
type File struct {
	Replace      bool                `yaml:"replace" json:"replace"`
	Forbidden    []string            `yaml:"forbidden" json:"forbidden"`
	Replacements map[string]string   `yaml:"replacements" json:"replacements"`
	Required     map[string][]string `yaml:"required" json:"required"`
}

// LoadFile reads a rules file and applies it on top of the defaults. A
// ".csv" file is read as a replacement table.
func LoadFile(path string) (*Set, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open rules: %w", err)
		}
		defer f.Close()
		repl, err := LoadReplacementsCSV(f)
		if err != nil {
			return nil, err
		}
		s := Default()
		for k, v := range repl {
			s.Replacements[k] = v
		}
		return s, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rf File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(b, &rf); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &rf); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	return rf.Apply(Default())
}

// Apply merges the file into base and returns base.
func (rf *File) Apply(base *Set) (*Set, error) {
	if rf.Replace {
		base.Forbidden = make(map[string]struct{})
		base.Replacements = make(map[string]string)
	}
	for _, w := range rf.Forbidden {
		if w = lemma.Key(w); w != "" {
			base.Forbidden[w] = struct{}{}
		}
	}
	for k, v := range rf.Replacements {
		if k = lemma.Key(k); k != "" {
			base.Replacements[k] = strings.TrimSpace(v)
		}
	}
	for name, fields := range rf.Required {
		t, err := ParseDocType(name)
		if err != nil {
			return nil, fmt.Errorf("required fields: %w", err)
		}
		lowered := make([]string, 0, len(fields))
		for _, f := range fields {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				lowered = append(lowered, f)
			}
		}
		base.Required[t] = lowered
	}
	return base, nil
}

// LoadReplacementsCSV reads "lemma,replacement" rows. A header row whose
// first cell is "lemma" is skipped; a missing or empty second column means
// the token is deleted.
func LoadReplacementsCSV(r io.Reader) (map[string]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	out := make(map[string]string)
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		key := lemma.Key(rec[0])
		if key == "" || (line == 1 && key == "lemma") {
			continue
		}
		var repl string
		if len(rec) > 1 {
			repl = strings.TrimSpace(rec[1])
		}
		out[key] = repl
	}
	return out, nil
}
