package translator

import (
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// DETERMINISTIC FALLBACK — Reword and metadata without the collaborator
// ============================================================================
// When the collaborator is unavailable or its reply fails validation, the
// binding still goes out: percentages and exact deltas in the proposition
// are softened by lexical substitution, and title/description/reasoning are
// assembled from the dataset and variant names.
// ============================================================================

const (
	maxTitleLen       = 60
	maxDescriptionLen = 120
)

var (
	changeByPercent = regexp.MustCompile(`\b(increased|decreased) by \d+(\.\d+)?%`)
	accountsFor     = regexp.MustCompile(`accounts for \d+(\.\d+)?%`)
	comprises       = regexp.MustCompile(`comprises? \d+(\.\d+)?%`)
	barePercent     = regexp.MustCompile(`\b\d+(\.\d+)?%`)
)

// FallbackReword softens exact statistics in a proposition into qualitative
// language. Substitution order matters: the compound phrases go first so the
// bare-percentage rule does not eat their numbers.
func FallbackReword(text string) string {
	text = changeByPercent.ReplaceAllStringFunc(text, func(match string) string {
		if strings.HasPrefix(match, "increased") {
			return "showed notable growth"
		}
		return "showed notable decline"
	})
	text = accountsFor.ReplaceAllString(text, "represents a significant portion")
	text = comprises.ReplaceAllString(text, "makes up a substantial share")
	text = barePercent.ReplaceAllString(text, "significantly")
	return text
}

// FallbackTitle builds a chart title from the dataset name.
func FallbackTitle(datasetName, geographicLevel string) string {
	title := titleCase(strings.ReplaceAll(datasetName, "-", " "))
	if strings.EqualFold(geographicLevel, "borough") {
		title += " by Borough"
	}
	return clip(strings.TrimSpace(title), maxTitleLen)
}

// FallbackDescription builds a chart description from the variant identifier.
func FallbackDescription(variantID, geographicLevel string) string {
	formatted := strings.ReplaceAll(variantID, "_", " ")
	level := strings.ToLower(geographicLevel)
	if level == "" {
		level = "area"
	}
	return clip(fmt.Sprintf("%s showing patterns across %s level data", formatted, level), maxDescriptionLen)
}

// FallbackReasoning explains the deterministic variant choice.
func FallbackReasoning(variantID, geographicLevel, category string) string {
	return fmt.Sprintf("%s is suitable for showing %s level %s patterns",
		strings.ReplaceAll(variantID, "_", " "), strings.ToLower(geographicLevel), category)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// clip shortens to at most max runes without splitting a multi-byte rune.
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
