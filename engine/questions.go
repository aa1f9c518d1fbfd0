package engine

import (
	"fmt"
	"strings"

	"github.com/vizrule-org/vizrule/template"
)

// ============================================================================
// VALIDATION QUESTIONS — Natural-language checks for a bound chart
// ============================================================================
// Each binding carries a few questions a table question-answering model can
// run against the retrieved rows to validate the claim. Synthesis is
// deterministic: it backs the fallback path and fills in when the generative
// collaborator omits questions. At most four, at least one.
// ============================================================================

const maxQuestions = 4

// GenerateQuestions synthesizes validation questions for a variant selection.
func GenerateQuestions(prop Proposition, s ChartVariantSelection) []string {
	entity, metric := questionSubjects(prop.VariablesNeeded)
	text := strings.ToLower(prop.Text)
	var questions []string

	if s.Overlay == OverlayMean || s.Overlay == OverlayMeanAndThreshold {
		questions = append(questions,
			fmt.Sprintf("What is the average %s across all %ss?", metric, entity),
			fmt.Sprintf("Which %ss are above the average %s?", entity, metric))
	}
	if s.Overlay == OverlayThreshold || s.Overlay == OverlayMeanAndThreshold {
		questions = append(questions,
			fmt.Sprintf("Which %ss are above the threshold for %s?", entity, metric),
			fmt.Sprintf("How many %ss exceed the benchmark %s?", entity, metric))
	}

	switch s.Family {
	case template.FamilyBar:
		questions = append(questions,
			fmt.Sprintf("Which %s has the highest %s?", entity, metric),
			fmt.Sprintf("Which %s has the lowest %s?", entity, metric))
	case template.FamilyDonut:
		questions = append(questions,
			fmt.Sprintf("What percentage of the total %s is in each %s?", metric, entity),
			fmt.Sprintf("Which %s accounts for the largest share of %s?", entity, metric))
	case template.FamilyScatter:
		if second, ok := secondMetric(prop.VariablesNeeded, metric); ok {
			questions = append(questions,
				fmt.Sprintf("Is there a correlation between %s and %s?", metric, second),
				fmt.Sprintf("Which %s shows the strongest relationship between %s and %s?", entity, metric, second))
		} else {
			questions = append(questions,
				"What is the correlation pattern in the data?",
				fmt.Sprintf("Are there any outliers in the %s values?", metric))
		}
	}

	if strings.Contains(text, "percentage") || strings.Contains(text, "accounts for") {
		questions = append(questions,
			fmt.Sprintf("Which %s accounts for the largest share of %s?", entity, metric))
	}

	if hasTimePeriod(prop) || s.Family == template.FamilyLine || s.Family == template.FamilyArea {
		questions = append(questions, fmt.Sprintf("How did %s change over time?", metric))
		if start, end, ok := splitPeriod(prop.TimePeriod); ok {
			questions = append(questions,
				fmt.Sprintf("What was the %s trend from %s to %s?", metric, start, end))
		}
	}

	if s.Dimensionality == ThreeD {
		questions = append(questions,
			"How does the pattern vary across the additional dimension?",
			fmt.Sprintf("Which dimension shows the most significant variation in %s?", metric))
	}

	if len(questions) < 3 {
		questions = append(questions,
			fmt.Sprintf("What is the overall pattern shown in the %s data?", metric))
	}

	questions = dedupe(questions)
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}
	return questions
}

// questionSubjects picks the entity and metric words used in question text
// from the proposition's variables.
func questionSubjects(variables []string) (entity, metric string) {
	entityVar := findVariable(variables, "borough", "area", "authority", "name")
	if entityVar == "" {
		entityVar = "area"
	}
	metricVar := findVariable(variables, "count", "value", "income", "rate", "population")
	if metricVar == "" {
		metricVar = "value"
	}

	entity = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(entityVar, "_", " "), "name", ""))
	if entity == "" {
		entity = "borough"
	}
	metric = strings.TrimSpace(strings.ReplaceAll(metricVar, "_", " "))
	return entity, metric
}

func findVariable(variables []string, hints ...string) string {
	for _, v := range variables {
		lower := strings.ToLower(v)
		for _, h := range hints {
			if strings.Contains(lower, h) {
				return v
			}
		}
	}
	return ""
}

func secondMetric(variables []string, first string) (string, bool) {
	firstKey := strings.ReplaceAll(first, " ", "_")
	for _, v := range variables {
		lower := strings.ToLower(v)
		if v == firstKey {
			continue
		}
		if strings.Contains(lower, "count") || strings.Contains(lower, "value") || strings.Contains(lower, "rate") {
			return strings.ReplaceAll(v, "_", " "), true
		}
	}
	return "", false
}

func hasTimePeriod(prop Proposition) bool {
	period := strings.ToLower(strings.TrimSpace(prop.TimePeriod))
	return period != "" && period != "not applicable" && period != "n/a"
}

func splitPeriod(period string) (start, end string, ok bool) {
	parts := strings.SplitN(period, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, q := range in {
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	return out
}
