package template

import "github.com/vizrule-org/vizrule/schema"

// ============================================================================
// DATASET CATALOGUE — All templates matched and filtered for one dataset
// ============================================================================

// Rejection records why one template was dropped for a dataset.
type Rejection struct {
	TemplateID string `json:"templateId"`
	Reason     string `json:"reason"`
}

// CatalogueResult is the full matching outcome for one dataset: the accepted
// matches plus every rejection with its reason, and summary counts.
type CatalogueResult struct {
	DatasetID string      `json:"datasetId"`
	Accepted  []Match     `json:"accepted"`
	Rejected  []Rejection `json:"rejected"`

	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
}

// BuildCatalogue runs every catalog template against a dataset's classified
// fields and applies the heuristic filter. An empty accepted set is a valid
// outcome, not an error.
func BuildCatalogue(datasetID string, fields []schema.FieldDescriptor, propositionCategories []string) CatalogueResult {
	result := CatalogueResult{DatasetID: datasetID}

	for _, t := range Catalog {
		m := MatchTemplate(t, fields)
		if !m.Satisfied {
			result.Rejected = append(result.Rejected, Rejection{TemplateID: t.ID, Reason: m.FailureReason})
			result.Skipped++
			continue
		}
		if v := Filter(t, m, propositionCategories); !v.Accepted {
			result.Rejected = append(result.Rejected, Rejection{TemplateID: t.ID, Reason: v.Reason})
			result.Skipped++
			continue
		}
		result.Accepted = append(result.Accepted, m)
		result.Generated++
	}
	return result
}

// AcceptedTemplate reports whether a template id survived matching and
// filtering for this dataset.
func (c CatalogueResult) AcceptedTemplate(id string) (Match, bool) {
	for _, m := range c.Accepted {
		if m.TemplateID == id {
			return m, true
		}
	}
	return Match{}, false
}
