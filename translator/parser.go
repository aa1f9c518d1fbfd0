package translator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ============================================================================
// RESPONSE PARSER — Extracts and validates the collaborator's Suggestion
// ============================================================================
// Generative output arrives as JSON, often wrapped in markdown fences. The
// parser strips fences, unmarshals, and checks structure: the required keys
// must be present and the optional ones well-typed. Any defect maps to
// ErrMalformedResponse so the caller can take the deterministic path.
// ============================================================================

// parseResponse validates a raw collaborator reply into a Suggestion.
func parseResponse(response string) (*Suggestion, error) {
	response = stripFences(response)
	if response == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(response), &s); err != nil {
		return nil, fmt.Errorf("%w: %v (response: %.200s)", ErrMalformedResponse, err, response)
	}

	if strings.TrimSpace(s.RewordedProposition) == "" {
		return nil, fmt.Errorf("%w: missing reworded_proposition", ErrMalformedResponse)
	}
	if strings.TrimSpace(s.ChartType) == "" {
		return nil, fmt.Errorf("%w: missing chart_type", ErrMalformedResponse)
	}

	// LLMs sometimes return the literal string "null" for the third
	// dimension of a 2D chart.
	if strings.EqualFold(strings.TrimSpace(s.ThirdDimension), "null") {
		s.ThirdDimension = ""
	}

	return &s, nil
}

// stripFences removes markdown code blocks around a JSON payload.
func stripFences(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
