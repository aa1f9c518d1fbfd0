package translator

import (
	"context"
	"errors"

	"github.com/vizrule-org/vizrule/engine"
)

// ============================================================================
// COLLABORATOR — Generative-text boundary for proposition rewording
// ============================================================================
// The Collaborator is the ONLY component that calls an external AI service.
// It receives a proposition plus the candidate chart variants and returns a
// reworded proposition with chart metadata. It NEVER sees raw data rows.
// Malformed output is a normal outcome here, reported through
// ErrMalformedResponse so callers can branch into the deterministic fallback.
// ============================================================================

// ErrMalformedResponse marks collaborator output that failed structural
// validation: non-JSON, missing required keys, or wrong value shapes.
var ErrMalformedResponse = errors.New("malformed collaborator response")

// Request carries everything the collaborator needs for one proposition.
type Request struct {
	Proposition engine.Proposition
	DatasetName string
	Category    string

	// SuggestedVariant is the engine's own pick, offered as a default.
	SuggestedVariant string
	// CandidateVariants are the variant identifiers the proposition may use.
	CandidateVariants []string
}

// Suggestion is the collaborator's structured reply.
type Suggestion struct {
	RewordedProposition string   `json:"reworded_proposition"`
	ChartType           string   `json:"chart_type"`
	ChartTitle          string   `json:"chart_title,omitempty"`
	ChartDescription    string   `json:"chart_description,omitempty"`
	TapasQuestions      []string `json:"tapas_questions,omitempty"`
	Reasoning           string   `json:"reasoning,omitempty"`
	ThirdDimension      string   `json:"3d_dimension,omitempty"`
}

// Collaborator produces a Suggestion for one proposition.
// Implementations: Gemini (v1), others behind the same interface.
type Collaborator interface {
	Suggest(ctx context.Context, req Request) (*Suggestion, error)
}

// Config holds collaborator configuration.
type Config struct {
	APIKey   string // AI provider API key (consumer's key)
	Model    string // Model name (e.g., "gemini-2.0-flash")
	Endpoint string // API endpoint override (empty = default)
}

// DefaultGeminiConfig returns a Config with sensible Gemini defaults.
func DefaultGeminiConfig(apiKey string) Config {
	return Config{
		APIKey:   apiKey,
		Model:    "gemini-2.0-flash",
		Endpoint: "https://generativelanguage.googleapis.com/v1beta/models",
	}
}
