package compliance

import (
	"strconv"
	"strings"
)

// ValidNumber reports whether s is a heading number for level: exactly
// level dot-separated parts, each made of ASCII digits only. A trailing dot
// ("1.") is invalid.
func ValidNumber(s string, level int) bool {
	if level <= 0 {
		return false
	}
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != level {
		return false
	}
	for _, part := range parts {
		if !isDigits(part) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CheckNumbering validates heading numbers and their sequence. Counters are
// tracked per level; a valid heading at level L drops the counters of all
// deeper levels.
func CheckNumbering(headings []Heading) []Finding {
	if len(headings) == 0 {
		return []Finding{at(0, RuleNumbering, "Документ не содержит заголовков с нумерацией")}
	}

	var findings []Finding
	current := make(map[int]int)
	for _, h := range headings {
		if h.Number == "" {
			findings = append(findings, at(h.Line(), RuleNumbering,
				"Заголовок уровня %d не содержит номера", h.Level))
			continue
		}
		if !ValidNumber(h.Number, h.Level) {
			findings = append(findings, at(h.Line(), RuleNumbering,
				"Неверный формат номера '%s' для уровня %d", h.Number, h.Level))
			continue
		}
		if f, ok := checkSequence(h, current); !ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// checkSequence advances the counter for h.Level. On a sequencing error the
// counters are left untouched.
func checkSequence(h Heading, current map[int]int) (Finding, bool) {
	parts := strings.Split(h.Number, ".")
	n, err := strconv.Atoi(parts[h.Level-1])
	if err != nil {
		// digit runs beyond int range
		return at(h.Line(), RuleNumbering, "Неверный формат номера '%s' для уровня %d", h.Number, h.Level), false
	}

	prev, seen := current[h.Level]
	switch {
	case !seen && n != 1:
		return at(h.Line(), RuleNumbering,
			"Первый номер на уровне %d должен быть 1, а не %d", h.Level, n), false
	case seen && n != prev+1:
		return at(h.Line(), RuleNumbering,
			"Ожидался номер %d, а не %d на уровне %d", prev+1, n, h.Level), false
	}

	current[h.Level] = n
	for l := range current {
		if l > h.Level {
			delete(current, l)
		}
	}
	return Finding{}, true
}
