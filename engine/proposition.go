package engine

// ============================================================================
// PROPOSITION — A natural-language claim about a dataset pattern
// ============================================================================

// Proposition categories form a fixed taxonomy.
const (
	CategoryTemporalTrends      = "temporal_trends"
	CategoryGeographicPatterns  = "geographic_patterns"
	CategoryCategoricalAnalysis = "categorical_analysis"
	CategoryCrossDimensional    = "cross_dimensional"
	CategoryStatisticalPatterns = "statistical_patterns"
)

// Proposition is one externally supplied claim to bind to a chart.
// Read-only input; never mutated by the engine.
type Proposition struct {
	ID              string   `json:"id"`
	DatasetID       string   `json:"datasetId"`
	Category        string   `json:"category"`
	Text            string   `json:"proposition"`
	VariablesNeeded []string `json:"variables_needed"`
	TimePeriod      string   `json:"time_period"`
	GeographicLevel string   `json:"geographic_level"`
}
