package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vizrule-org/vizrule/schema"
	"github.com/vizrule-org/vizrule/template"
)

// ============================================================================
// CHART VARIANT SELECTOR — Proposition text + template family → variant
// ============================================================================
// Lexical cues in the proposition pick a variant of an already-matched
// template. The rule order is a design commitment: benchmark language wins
// over threshold language, both beat the 3D check, and anything else is a
// plain 2D chart. A 3D pick that cannot name a third dimension downgrades to
// 2D instead of emitting a selection with a hole in it.
// ============================================================================

// Dimensionality of a chart variant.
type Dimensionality string

const (
	TwoD   Dimensionality = "2D"
	ThreeD Dimensionality = "3D"
)

// Overlay is an extra statistical layer on the base chart.
type Overlay string

const (
	OverlayNone             Overlay = "none"
	OverlayMean             Overlay = "mean"
	OverlayThreshold        Overlay = "threshold"
	OverlayMeanAndThreshold Overlay = "mean_and_threshold"
)

// ChartVariantSelection names the concrete variant chosen for a proposition.
type ChartVariantSelection struct {
	TemplateID     string         `json:"templateId"`
	Family         template.Family `json:"family"`
	Dimensionality Dimensionality `json:"dimensionality"`
	Overlay        Overlay        `json:"overlay"`

	// ThirdDimension is set iff Dimensionality is 3D.
	ThirdDimension string `json:"thirdDimension,omitempty"`

	// Fields already bound to the primary slots, kept for the distinctness
	// check on the third dimension.
	PrimaryCategory string `json:"primaryCategory,omitempty"`
	PrimaryMetric   string `json:"primaryMetric,omitempty"`
}

// VariantID renders the selection as a single identifier string, e.g.
// "bar_chart_with_mean_2D" or "grouped_bar_simple_3D".
func (s ChartVariantSelection) VariantID() string {
	variation := "simple"
	switch s.Overlay {
	case OverlayMean:
		variation = "with_mean"
	case OverlayThreshold:
		variation = "with_threshold"
	case OverlayMeanAndThreshold:
		variation = "with_mean_threshold"
	}
	return fmt.Sprintf("%s_%s_%s", s.TemplateID, variation, s.Dimensionality)
}

// ParseVariantID splits a variant identifier back into its parts. The
// template id must exist in the catalog for the parse to succeed.
func ParseVariantID(id string) (templateID string, overlay Overlay, dim Dimensionality, ok bool) {
	var mode Dimensionality
	switch {
	case strings.HasSuffix(id, "_2D"):
		mode = TwoD
	case strings.HasSuffix(id, "_3D"):
		mode = ThreeD
	default:
		return "", "", "", false
	}
	rest := id[:len(id)-3]

	variations := []struct {
		suffix  string
		overlay Overlay
	}{
		{"_with_mean_threshold", OverlayMeanAndThreshold},
		{"_with_threshold", OverlayThreshold},
		{"_with_mean", OverlayMean},
		{"_simple", OverlayNone},
	}
	for _, v := range variations {
		if strings.HasSuffix(rest, v.suffix) {
			tid := strings.TrimSuffix(rest, v.suffix)
			if _, exists := template.ByID(tid); exists {
				return tid, v.overlay, mode, true
			}
			return "", "", "", false
		}
	}
	return "", "", "", false
}

// Validate surfaces invariant violations instead of fixing them.
// cardinality maps field names to their distinct counts; 0 means unknown and
// is not checked.
func (s ChartVariantSelection) Validate(cardinality map[string]int) error {
	caps := template.FamilyCapabilities(s.Family)

	switch s.Overlay {
	case OverlayMean:
		if !caps.MeanOverlay {
			return fmt.Errorf("family %s does not support a mean overlay", s.Family)
		}
	case OverlayThreshold:
		if !caps.ThresholdOverlay {
			return fmt.Errorf("family %s does not support a threshold overlay", s.Family)
		}
	case OverlayMeanAndThreshold:
		if !caps.MeanOverlay || !caps.ThresholdOverlay {
			return fmt.Errorf("family %s does not support combined overlays", s.Family)
		}
	}

	if s.Dimensionality == ThreeD {
		if s.ThirdDimension == "" {
			return fmt.Errorf("3D selection for %s has no third dimension", s.TemplateID)
		}
		if !caps.ThreeD {
			return fmt.Errorf("family %s has no 3D variant", s.Family)
		}
		if s.ThirdDimension == s.PrimaryCategory || s.ThirdDimension == s.PrimaryMetric {
			return fmt.Errorf("third dimension %q already bound to a primary slot", s.ThirdDimension)
		}
		if card := cardinality[s.ThirdDimension]; card != 0 && (card < 3 || card > 8) {
			return fmt.Errorf("third dimension %q has %d distinct values, want 3-8", s.ThirdDimension, card)
		}
	} else if s.ThirdDimension != "" {
		return fmt.Errorf("2D selection for %s carries a third dimension", s.TemplateID)
	}

	return nil
}

// Lexical cues scanned in the proposition text.
var (
	meanCues      = []string{"average", "mean", "compared to", "above", "below"}
	thresholdCues = []string{"threshold", "exceed", "safe", "limit"}
	crossCutCues  = []string{"by", "across"}
)

// Selector picks chart variants and logs downgrade events.
type Selector struct {
	log *zap.Logger
}

// NewSelector returns a Selector logging through the given logger.
// A nil logger is replaced with a no-op one.
func NewSelector(log *zap.Logger) *Selector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{log: log}
}

// Select picks the variant of a matched template for one proposition.
// datasetName steers the third-dimension inference for 3D variants.
func (sel *Selector) Select(prop Proposition, tmpl template.ChartTemplate, m template.Match, datasetName string) ChartVariantSelection {
	caps := template.FamilyCapabilities(tmpl.Family)
	text := strings.ToLower(prop.Text)

	s := ChartVariantSelection{
		TemplateID:     tmpl.ID,
		Family:         tmpl.Family,
		Dimensionality: TwoD,
		Overlay:        OverlayNone,
	}
	if f, ok := m.PrimarySlotField(); ok {
		s.PrimaryCategory = f.Name
	}
	if f, ok := m.SlotField(template.SlotMetric); ok {
		s.PrimaryMetric = f.Name
	} else if f, ok := m.SlotField(template.SlotMetricX); ok {
		// Pair-slot templates (scatter) carry their metric in metric_x.
		s.PrimaryMetric = f.Name
	}

	wantsMean := containsAny(text, meanCues) && caps.MeanOverlay
	wantsThreshold := containsAny(text, thresholdCues) && caps.ThresholdOverlay

	switch {
	case wantsMean && wantsThreshold:
		s.Overlay = OverlayMeanAndThreshold
		return s
	case wantsMean:
		s.Overlay = OverlayMean
		return s
	case wantsThreshold:
		s.Overlay = OverlayThreshold
		return s
	}

	if len(prop.VariablesNeeded) > 3 && containsAnyWord(text, crossCutCues) && caps.ThreeD {
		if dim, ok := sel.thirdDimension(prop, datasetName, s.PrimaryCategory, s.PrimaryMetric); ok {
			s.Dimensionality = ThreeD
			s.ThirdDimension = dim
			return s
		}
		sel.log.Warn("no eligible third dimension, downgrading to 2D",
			zap.String("proposition", prop.ID),
			zap.String("template", tmpl.ID),
			zap.String("dataset", datasetName))
	}

	return s
}

// thirdDimension picks a third-dimension field from the proposition's
// variables that are not already bound to a primary slot. The dataset-type
// lookup steers the choice: a crime dataset prefers a crime-flavoured
// variable, an income dataset an income bracket, and so on. When no variable
// resembles the inferred dimension, any category- or time-like leftover is
// taken; with nothing eligible at all the caller falls back to 2D.
func (sel *Selector) thirdDimension(prop Proposition, datasetName, primaryCategory, primaryMetric string) (string, bool) {
	var eligible []string
	for _, v := range prop.VariablesNeeded {
		if v != primaryCategory && v != primaryMetric {
			eligible = append(eligible, v)
		}
	}
	if len(eligible) == 0 {
		return "", false
	}

	preferred := InferFallbackDimension(datasetName, prop.Category)
	if key := dimensionKeyword(preferred); key != "" {
		for _, v := range eligible {
			if strings.Contains(strings.ToLower(v), key) {
				return v, true
			}
		}
	}

	// Prefer a variable that looks categorical or temporal over a leftover
	// metric.
	for _, v := range eligible {
		roles := schema.Classify(v, schema.TypeUnknown, nil)
		for _, r := range roles {
			if r == schema.RoleCategory || r == schema.RoleTime {
				return v, true
			}
		}
	}
	return eligible[0], true
}

// dimensionKeyword extracts the leading token of an inferred dimension name
// ("crime_type" → "crime") for matching against variable names.
func dimensionKeyword(dim string) string {
	if i := strings.Index(dim, "_"); i > 0 {
		return dim[:i]
	}
	return dim
}

// InferFallbackDimension maps a dataset name and proposition category to a
// default third-dimension name. The table is ad hoc by design: it encodes
// the known dataset families and keeps a generic default for everything else.
func InferFallbackDimension(datasetName, category string) string {
	ds := strings.ToLower(datasetName)
	cat := strings.ToLower(category)

	switch {
	case strings.Contains(ds, "crime") || strings.Contains(ds, "offence"):
		return "crime_type"
	case strings.Contains(ds, "housing") || strings.Contains(ds, "tenure"):
		return "housing_type"
	case strings.Contains(ds, "employment") || strings.Contains(ds, "job"):
		return "employment_sector"
	case strings.Contains(ds, "income") || strings.Contains(ds, "earning"):
		return "income_bracket"
	case strings.Contains(ds, "population") || strings.Contains(ds, "demographic"):
		return "age_group"
	case strings.Contains(ds, "education") || strings.Contains(ds, "school"):
		return "education_level"
	case strings.Contains(ds, "health") || strings.Contains(ds, "mortality"):
		return "age_group"
	case strings.Contains(ds, "transport") || strings.Contains(ds, "travel"):
		return "transport_mode"
	}

	switch {
	case strings.Contains(cat, "temporal") || strings.Contains(cat, "time"):
		return "time_subdivision"
	case strings.Contains(cat, "geographic") || strings.Contains(cat, "spatial"):
		return "geographic_subdivision"
	}

	return "demographic_breakdown"
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

// containsAnyWord matches cues on word boundaries so that "by" does not fire
// inside "nearby".
func containsAnyWord(text string, cues []string) bool {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	for _, w := range words {
		for _, cue := range cues {
			if w == cue {
				return true
			}
		}
	}
	return false
}
