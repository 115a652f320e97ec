package compliance

import (
	"fmt"
	"strings"
)

// Rule identifies the check that produced a finding.
type Rule string

const (
	RuleTerminology     Rule = "terminology"
	RuleNumbering       Rule = "numbering"
	RuleRequiredField   Rule = "required_field"
	RuleApproval        Rule = "approval"
	RuleAlignment       Rule = "alignment"
	RuleCaps            Rule = "caps"
	RuleParagraphLength Rule = "paragraph_length"
	RuleHeadingGap      Rule = "heading_gap"
	RuleEmptyListItem   Rule = "empty_list_item"
	RuleFont            Rule = "font"
	RuleFontSize        Rule = "font_size"
)

// Finding is one reported issue. Line is the 1-based paragraph number, or 0
// for document-level findings.
type Finding struct {
	Line    int    `json:"line,omitempty"`
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("• Стр. %d: %s", f.Line, f.Message)
	}
	return "• " + f.Message
}

// Strings renders findings one per element.
func Strings(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.String()
	}
	return out
}

// Join renders findings one per line.
func Join(findings []Finding) string {
	return strings.Join(Strings(findings), "\n")
}

func at(line int, rule Rule, format string, args ...any) Finding {
	return Finding{Line: line, Rule: rule, Message: fmt.Sprintf(format, args...)}
}
