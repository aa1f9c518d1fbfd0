package translator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ============================================================================
// PROMPT BUILDER — Proposition rewording prompt
// ============================================================================
// The prompt carries a single proposition, its dataset context, and the
// candidate chart variants the matcher accepted. It asks for an interpretive
// rewrite, a variant choice from the candidate list, chart title and
// description, validation questions, and a third dimension when the chosen
// variant is 3D. Only metadata goes over the wire, never data rows.
// ============================================================================

// BuildPrompt generates the collaborator prompt for one proposition.
func BuildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString(`You are a data-aware assistant matching narrative propositions to chart variants and metadata for visualization.

YOUR TASK:
1. Rewrite the proposition to sound interpretive and insight-driven.
   - Avoid exact statistics or numeric values (e.g., "40% increase").
   - Focus on patterns, comparisons, or trends.
   - Example:
     - BAD:  "Westminster crime rates are 40% above London average"
     - GOOD: "Westminster consistently shows crime rates significantly above the London average"

2. Pick the most appropriate chart variant from the candidate list below.

3. Write a chart title (max 60 chars) and description (max 120 chars) for rendering the chart.

4. List 2-4 natural language questions a table question-answering model could run to validate the insight.
   - If the variant has a mean overlay: ask about the average and which entities sit above it.
   - If the variant has a threshold overlay: ask which entities are above the threshold.
   - If the variant is 3D: ask how the pattern varies across the additional dimension.

5. Give a brief reasoning for the chart choice.

`)

	b.WriteString(buildCandidateSection(req))
	b.WriteString(buildInputSection(req))

	b.WriteString(`REQUIRED OUTPUT FORMAT (JSON only):
{
  "reworded_proposition": "Your interpretive rewrite here",
  "chart_type": "A variant identifier from the candidate list",
  "chart_title": "Concise title (max 60 chars)",
  "chart_description": "Brief description (max 120 chars)",
  "tapas_questions": ["Question 1", "Question 2", "Question 3"],
  "reasoning": "Why this chart variant fits",
  "3d_dimension": "Third dimension name for a 3D variant, null for 2D"
}

Respond with only the JSON object, no additional text.`)

	return b.String()
}

func buildCandidateSection(req Request) string {
	var b strings.Builder
	b.WriteString("CANDIDATE CHART VARIANTS:\n")
	for _, v := range req.CandidateVariants {
		b.WriteString(fmt.Sprintf("- %s\n", v))
	}
	if req.SuggestedVariant != "" {
		b.WriteString(fmt.Sprintf("Suggested default: %s\n", req.SuggestedVariant))
	}
	b.WriteString("\n")
	return b.String()
}

func buildInputSection(req Request) string {
	variables, _ := json.Marshal(req.Proposition.VariablesNeeded)
	return fmt.Sprintf(`INPUT DATA:
{
  "id": %q,
  "proposition": %q,
  "variables_needed": %s,
  "time_period": %q,
  "geographic_level": %q,
  "dataset": %q,
  "category": %q
}

`, req.Proposition.ID, req.Proposition.Text, variables,
		req.Proposition.TimePeriod, req.Proposition.GeographicLevel,
		req.DatasetName, req.Category)
}
