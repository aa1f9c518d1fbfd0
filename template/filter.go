package template

// ============================================================================
// HEURISTIC FILTER — Quality gates on satisfied matches
// ============================================================================
// A satisfied match can still make a bad chart: one bar, fifty slices, a two
// point "trend". Each rule is independently sufficient to reject. Rejection
// is routine, not an error; it just drops one template from the candidate
// set. Cardinality checks lean on the distinct-count hint (sample count when
// absent) and pass when no cardinality is known at all.
// ============================================================================

// Verdict is the filter's decision for one match.
type Verdict struct {
	Accepted bool
	Reason   string
}

func accept() Verdict         { return Verdict{Accepted: true} }
func reject(r string) Verdict { return Verdict{Reason: r} }

// Filter applies a template's quality heuristics to a satisfied match.
// propositionCategories are the categories of propositions known for the
// dataset; an empty set means no alignment is required.
func Filter(t ChartTemplate, m Match, propositionCategories []string) Verdict {
	if !m.Satisfied {
		return reject("match not satisfied")
	}

	if !alignsWithPropositions(t, propositionCategories) {
		return reject("no proposition alignment")
	}

	for rule, threshold := range t.Heuristics {
		if !checkHeuristic(rule, threshold, m) {
			return reject("failed heuristic: " + rule)
		}
	}
	return accept()
}

// alignsWithPropositions allows the match when no proposition categories are
// known for the dataset, otherwise requires at least one overlap.
func alignsWithPropositions(t ChartTemplate, propositionCategories []string) bool {
	if len(propositionCategories) == 0 {
		return true
	}
	for _, want := range t.PropositionCategories {
		for _, have := range propositionCategories {
			if want == have {
				return true
			}
		}
	}
	return false
}

func checkHeuristic(rule string, threshold int, m Match) bool {
	switch rule {
	case HeuristicMinCategories:
		return atLeast(primaryCardinality(m), threshold)
	case HeuristicMaxCategories:
		return atMost(primaryCardinality(m), threshold)
	case HeuristicMinGeoCoverage:
		return atLeast(slotCardinality(m, SlotGeo), threshold)
	case HeuristicMaxGeoAreas:
		return atMost(slotCardinality(m, SlotGeo), threshold)
	case HeuristicMinTimePoints:
		return atLeast(slotCardinality(m, SlotTime), threshold)
	case HeuristicMinCategoriesX:
		return atLeast(slotCardinality(m, SlotCategoryX), threshold)
	case HeuristicMaxCategoriesX:
		return atMost(slotCardinality(m, SlotCategoryX), threshold)
	case HeuristicMinCategoriesY:
		return atLeast(slotCardinality(m, SlotCategoryY), threshold)
	case HeuristicMaxCategoriesY:
		return atMost(slotCardinality(m, SlotCategoryY), threshold)
	case HeuristicMaxGroups:
		return atMost(slotCardinality(m, SlotGroup), threshold)
	default:
		// Data-volume rules (min_data_points, unique-value bounds) need the
		// actual rows, which this engine never sees. Pass them through.
		return true
	}
}

func primaryCardinality(m Match) int {
	if f, ok := m.PrimarySlotField(); ok {
		return f.Cardinality
	}
	return 0
}

func slotCardinality(m Match, slot Slot) int {
	if f, ok := m.SlotField(slot); ok {
		return f.Cardinality
	}
	return 0
}

// Cardinality 0 means unknown. Unknown never rejects.
func atLeast(card, threshold int) bool { return card == 0 || card >= threshold }
func atMost(card, threshold int) bool  { return card == 0 || card <= threshold }
