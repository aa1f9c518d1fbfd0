package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// QUERY-SHAPE DERIVER — Variant selection → retrieval column contract
// ============================================================================
// Each template has a fixed base column contract. The deriver appends the
// variant's extras (a dimension column for 3D, derived overlay columns), a
// time filter parsed from the proposition's period, a group-by over the
// non-numeric base columns, and an order-by on the leading column. The
// resulting QueryShape is the whole contract an external retrieval step must
// honor; this engine never touches rows itself.
// ============================================================================

// Semantic column types in a query contract.
const (
	ColText    = "text"
	ColNumber  = "number"
	ColBoolean = "boolean"
)

// Column is one output column the retrieval step must produce.
type Column struct {
	Name         string `json:"name"`
	SemanticType string `json:"semanticType"`
}

// TimeFilter restricts retrieval to a year or a year range.
type TimeFilter struct {
	// Op is "equals" or "between".
	Op        string `json:"op"`
	Year      int    `json:"year,omitempty"`
	StartYear int    `json:"startYear,omitempty"`
	EndYear   int    `json:"endYear,omitempty"`
}

// OrderBy names a sort column and direction.
type OrderBy struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// QueryShape is the retrieval contract for one (proposition, variant) pair.
type QueryShape struct {
	Columns        []Column    `json:"columns"`
	DerivedColumns []Column    `json:"derivedColumns,omitempty"`
	GroupBy        []string    `json:"groupBy,omitempty"`
	TimeFilter     *TimeFilter `json:"timeFilter,omitempty"`
	OrderBy        *OrderBy    `json:"orderBy,omitempty"`
}

// baseContracts fixes the output columns per template.
var baseContracts = map[string][]Column{
	"bar_chart":      {{"category", ColText}, {"value", ColNumber}},
	"grouped_bar":    {{"category", ColText}, {"series", ColText}, {"value", ColNumber}},
	"line_chart":     {{"time", ColText}, {"value", ColNumber}},
	"area_chart":     {{"time", ColText}, {"value", ColNumber}},
	"donut_chart":    {{"category", ColText}, {"value", ColNumber}, {"percentage", ColNumber}},
	"scatter_plot":   {{"category", ColText}, {"x_value", ColNumber}, {"y_value", ColNumber}},
	"histogram":      {{"bin", ColText}, {"frequency", ColNumber}},
	"heatmap":        {{"x_bin", ColText}, {"y_bin", ColText}, {"count", ColNumber}},
	"choropleth_map": {{"area", ColText}, {"value", ColNumber}},
}

// Deriver turns variant selections into query shapes. The clock resolves
// "present" in time ranges; a nil clock uses time.Now.
type Deriver struct {
	now func() time.Time
}

// NewDeriver returns a Deriver using the given clock.
func NewDeriver(now func() time.Time) *Deriver {
	if now == nil {
		now = time.Now
	}
	return &Deriver{now: now}
}

// Derive produces the retrieval contract for a selected variant.
func (d *Deriver) Derive(s ChartVariantSelection, prop Proposition) QueryShape {
	base, ok := baseContracts[s.TemplateID]
	if !ok {
		base = baseContracts["bar_chart"]
	}

	shape := QueryShape{Columns: append([]Column(nil), base...)}

	if s.Dimensionality == ThreeD {
		shape.Columns = append(shape.Columns, Column{"dimension", ColText})
	}

	if s.Overlay == OverlayMean || s.Overlay == OverlayMeanAndThreshold {
		shape.DerivedColumns = append(shape.DerivedColumns, Column{"mean_value", ColNumber})
	}
	if s.Overlay == OverlayThreshold || s.Overlay == OverlayMeanAndThreshold {
		shape.DerivedColumns = append(shape.DerivedColumns,
			Column{"threshold_value", ColNumber},
			Column{"above_threshold", ColBoolean})
	}

	for _, c := range shape.Columns {
		if c.SemanticType != ColNumber {
			shape.GroupBy = append(shape.GroupBy, c.Name)
		}
	}

	shape.TimeFilter = ParseTimePeriod(prop.TimePeriod, d.now())
	shape.OrderBy = &OrderBy{Column: shape.Columns[0].Name, Ascending: true}
	return shape
}

var (
	singleYearPattern = regexp.MustCompile(`^(\d{4})$`)
	yearRangePattern  = regexp.MustCompile(`(?i)^(\d{4})\s*-\s*(\d{4}|present)$`)
)

// ParseTimePeriod turns a proposition's time period into a filter predicate.
// "2022" becomes an equality, "2015-2023" a between, and "2015-present"
// resolves "present" against now. Absent or unparseable periods yield no
// filter.
func ParseTimePeriod(period string, now time.Time) *TimeFilter {
	period = strings.TrimSpace(period)
	if period == "" {
		return nil
	}
	switch strings.ToLower(period) {
	case "not applicable", "n/a", "none":
		return nil
	}

	if m := singleYearPattern.FindStringSubmatch(period); m != nil {
		year, _ := strconv.Atoi(m[1])
		return &TimeFilter{Op: "equals", Year: year}
	}

	if m := yearRangePattern.FindStringSubmatch(period); m != nil {
		start, _ := strconv.Atoi(m[1])
		end := now.Year()
		if !strings.EqualFold(m[2], "present") {
			end, _ = strconv.Atoi(m[2])
		}
		return &TimeFilter{Op: "between", StartYear: start, EndYear: end}
	}

	return nil
}
