// similarity/parser.go
package similarity

import (
	"regexp"
	"strings"

	"github.com/BetJor/plantilla-sub000/models"
)

var (
	numberedRe = regexp.MustCompile(`^\s*\d+[\.\)]\s+(.+)$`)
	bulletRe   = regexp.MustCompile(`^\s*[-*•]\s+(.+)$`)
)

// Sentences containing one of these verbs are treated as candidate steps in
// the keyword fallback.
var actionKeywords = []string{
	"implement", "review", "ensure", "train", "update", "establish",
	"verify", "monitor", "define", "document", "audit", "correct",
}

// ParseSuggestionText extracts draft proposed-action items from free text.
// Fallback order: numbered list, bullet list, keyword sentences, whole text
// as a single item. The heuristics are approximate; the guarantee is only
// that non-empty input always yields at least one item.
func ParseSuggestionText(text string) []models.ProposedActionItem {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if items := matchLines(text, numberedRe); len(items) > 0 {
		return items
	}
	if items := matchLines(text, bulletRe); len(items) > 0 {
		return items
	}
	if items := keywordSentences(text); len(items) > 0 {
		return items
	}
	return []models.ProposedActionItem{newDraftItem(text)}
}

func matchLines(text string, re *regexp.Regexp) []models.ProposedActionItem {
	var items []models.ProposedActionItem
	for _, line := range strings.Split(text, "\n") {
		if m := re.FindStringSubmatch(line); m != nil {
			desc := strings.TrimSpace(m[1])
			if desc != "" {
				items = append(items, newDraftItem(desc))
			}
		}
	}
	return items
}

func keywordSentences(text string) []models.ProposedActionItem {
	var items []models.ProposedActionItem
	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)
		for _, kw := range actionKeywords {
			if strings.Contains(lower, kw) {
				items = append(items, newDraftItem(sentence))
				break
			}
		}
	}
	return items
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	}) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
