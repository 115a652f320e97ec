package compliance

import (
	"cmp"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/normatext/internal/document"
	"github.com/dgallion1/normatext/internal/rules"
)

const (
	capsMinLen      = 10
	paragraphMaxLen = 500
	approvalWindow  = 5
	approvalMark    = "утверждаю"
	standardFont    = "Times New Roman"
)

// Size ranges in points, inclusive.
var (
	bodySize    = sizeRange{12, 14}
	headingSize = sizeRange{14, 16}
)

type sizeRange struct{ min, max float64 }

func (r sizeRange) contains(pt float64) bool { return pt >= r.min && pt <= r.max }

var (
	bullets      = []string{"•", "-", "–", "—", "*", "◦", "▪"}
	numberedItem = regexp.MustCompile(`^\d+[.)]\s*$`)
)

// CheckStructure runs all structural and typography checks for a document
// of type t.
func (e *Engine) CheckStructure(doc document.Document, t rules.DocType) []Finding {
	var findings []Finding
	findings = append(findings, CheckRequiredFields(doc, e.rules.RequiredFields(t))...)
	findings = append(findings, CheckApproval(doc, t)...)
	findings = append(findings, CheckFormatting(doc)...)
	findings = append(findings, CheckParagraphs(doc)...)
	findings = append(findings, CheckLists(doc)...)
	findings = append(findings, CheckFonts(doc)...)
	return findings
}

// CheckRequiredFields reports each required phrase missing from the
// lowercased document text.
func CheckRequiredFields(doc document.Document, required []string) []Finding {
	text := strings.ToLower(document.FullText(doc))
	var findings []Finding
	for _, field := range required {
		if !strings.Contains(text, field) {
			findings = append(findings, at(0, RuleRequiredField, "Отсутствует обязательный реквизит: '%s'", field))
		}
	}
	return findings
}

// CheckApproval requires an approval stamp within the first paragraphs of
// an order.
func CheckApproval(doc document.Document, t rules.DocType) []Finding {
	if t != rules.Order {
		return nil
	}
	paras := doc.Paragraphs()
	if len(paras) > approvalWindow {
		paras = paras[:approvalWindow]
	}
	parts := make([]string, len(paras))
	for i, p := range paras {
		parts[i] = p.Text()
	}
	if strings.Contains(strings.ToLower(strings.Join(parts, " ")), approvalMark) {
		return nil
	}
	return []Finding{at(1, RuleApproval, "Отсутствует реквизит «Утверждаю»")}
}

// CheckFormatting flags centered or right-aligned paragraphs and long
// all-caps paragraphs.
func CheckFormatting(doc document.Document) []Finding {
	var findings []Finding
	for i, p := range doc.Paragraphs() {
		text := strings.TrimSpace(p.Text())
		if text == "" {
			continue
		}
		if a := p.Alignment(); a != document.AlignLeft && a != document.AlignJustify {
			findings = append(findings, at(i+1, RuleAlignment, "Рекомендуется выравнивание по ширине или левому краю"))
		}
		if utf8.RuneCountInString(text) > capsMinLen && isUpper(text) {
			findings = append(findings, at(i+1, RuleCaps, "Избегайте написания всего текста в верхнем регистре"))
		}
	}
	return findings
}

// CheckParagraphs flags overlong paragraphs and a heading that directly
// follows a blank heading paragraph.
func CheckParagraphs(doc document.Document) []Finding {
	paras := doc.Paragraphs()
	var findings []Finding
	for i, p := range paras {
		if utf8.RuneCountInString(strings.TrimSpace(p.Text())) > paragraphMaxLen {
			findings = append(findings, at(i+1, RuleParagraphLength, "Абзац слишком длинный (разбейте на несколько)"))
		}
		if i == 0 {
			continue
		}
		prev := paras[i-1]
		if document.IsHeading(p) && document.IsHeading(prev) && document.IsBlank(prev) {
			findings = append(findings, at(i+1, RuleHeadingGap, "Между заголовками должен быть основной текст"))
		}
	}
	return findings
}

// CheckLists flags bullet and numbered list items without content.
func CheckLists(doc document.Document) []Finding {
	var findings []Finding
	for i, p := range doc.Paragraphs() {
		text := strings.TrimSpace(p.Text())
		if text == "" {
			continue
		}
		if emptyBullet(text) {
			findings = append(findings, at(i+1, RuleEmptyListItem, "Пустой элемент списка"))
			continue
		}
		if numberedItem.MatchString(text) {
			findings = append(findings, at(i+1, RuleEmptyListItem, "Пустой элемент нумерованного списка"))
		}
	}
	return findings
}

func emptyBullet(text string) bool {
	for _, b := range bullets {
		if rest, ok := strings.CutPrefix(text, b); ok {
			return strings.TrimSpace(rest) == ""
		}
	}
	return false
}

// CheckFonts reports non-standard font families and out-of-range sizes,
// each as at most one document-level finding. Runs without a font or size
// are skipped for that attribute.
func CheckFonts(doc document.Document) []Finding {
	fonts := make(map[string]struct{})
	bodySizes := make(map[float64]struct{})
	headingSizes := make(map[float64]struct{})

	for _, p := range doc.Paragraphs() {
		if document.IsBlank(p) {
			continue
		}
		heading := document.IsHeading(p)
		for _, r := range p.Runs() {
			if strings.TrimSpace(r.Text()) == "" {
				continue
			}
			if name := strings.TrimSpace(r.Font()); name != "" && !strings.Contains(strings.ToLower(name), "times") {
				fonts[name] = struct{}{}
			}
			pt, ok := r.Size().Points()
			if !ok {
				continue
			}
			switch {
			case heading && !headingSize.contains(pt):
				headingSizes[pt] = struct{}{}
			case !heading && !bodySize.contains(pt):
				bodySizes[pt] = struct{}{}
			}
		}
	}

	var findings []Finding
	if len(fonts) > 0 {
		names := sortedKeys(fonts)
		findings = append(findings, at(0, RuleFont, "Обнаружены нерекомендуемые шрифты: %s (ГОСТ: %s)",
			strings.Join(names, ", "), standardFont))
	}
	var sizes []string
	for _, pt := range sortedKeys(bodySizes) {
		sizes = append(sizes, fmt.Sprintf("текст: %.1fpt (требуется %g-%gpt)", pt, bodySize.min, bodySize.max))
	}
	for _, pt := range sortedKeys(headingSizes) {
		sizes = append(sizes, fmt.Sprintf("заголовок: %.1fpt (требуется %g-%gpt)", pt, headingSize.min, headingSize.max))
	}
	if len(sizes) > 0 {
		findings = append(findings, at(0, RuleFontSize, "Несоответствие размеров шрифта: %s", strings.Join(sizes, ", ")))
	}
	return findings
}

func sortedKeys[K cmp.Ordered](m map[K]struct{}) []K {
	return slices.Sorted(maps.Keys(m))
}
