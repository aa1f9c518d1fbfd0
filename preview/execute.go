package preview

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vizrule-org/vizrule/engine"
)

// ============================================================================
// PREVIEW EXECUTION — Materializes a query contract against sampled rows
// ============================================================================
// The binding pipeline never touches rows; retrieval is an external concern.
// Preview execution exists for inspection: it runs a QueryShape against a
// local row sample so a binding can be eyeballed before the real retrieval
// step is built. Binned contracts (histogram, heatmap) need a binning step
// the preview does not implement.
// ============================================================================

// Table is a materialized query contract.
type Table struct {
	Columns []engine.Column  `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Option tweaks preview execution.
type Option func(*config)

type config struct {
	threshold  *float64
	timeColumn string
}

// WithThreshold fixes the threshold_value for threshold overlays. Without it
// the overlay falls back to the mean across groups.
func WithThreshold(v float64) Option {
	return func(c *config) { c.threshold = &v }
}

// WithTimeColumn names the data column a TimeFilter applies to.
func WithTimeColumn(name string) Option {
	return func(c *config) { c.timeColumn = name }
}

// Execute runs a query contract against records. mapping translates contract
// column names to data column names; every non-derived contract column except
// percentage needs an entry. Numeric contract columns aggregate by sum.
func Execute(shape engine.QueryShape, mapping map[string]string, records []Record, opts ...Option) (*Table, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	for _, col := range shape.Columns {
		if col.Name == "bin" || strings.HasSuffix(col.Name, "_bin") {
			return nil, fmt.Errorf("binned contracts are not supported in preview")
		}
		if col.Name == "percentage" {
			continue
		}
		if mapping[col.Name] == "" {
			return nil, fmt.Errorf("no data column mapped to contract column %q", col.Name)
		}
	}

	if shape.TimeFilter != nil && cfg.timeColumn != "" {
		records = filterByTime(records, cfg.timeColumn, shape.TimeFilter)
	}

	// Group rows by the contract's group-by columns.
	type group struct {
		dims map[string]string
		sums map[string]float64
	}
	groups := make(map[string]*group)
	var order []string

	for _, rec := range records {
		var keyParts []string
		dims := make(map[string]string, len(shape.GroupBy))
		for _, colName := range shape.GroupBy {
			v := rec.Dimensions[mapping[colName]]
			if v == "" {
				// Numeric columns can arrive as dimensions of a time axis.
				if f, ok := rec.Measures[mapping[colName]]; ok {
					v = strconv.FormatFloat(f, 'f', -1, 64)
				}
			}
			dims[colName] = v
			keyParts = append(keyParts, v)
		}
		key := strings.Join(keyParts, "|")

		g, ok := groups[key]
		if !ok {
			g = &group{dims: dims, sums: make(map[string]float64)}
			groups[key] = g
			order = append(order, key)
		}
		for _, col := range shape.Columns {
			if col.SemanticType != engine.ColNumber || col.Name == "percentage" {
				continue
			}
			g.sums[col.Name] += rec.Measures[mapping[col.Name]]
		}
	}

	// Overlay inputs are computed over the grouped values.
	var total, mean float64
	if len(groups) > 0 {
		for _, g := range groups {
			total += g.sums["value"]
		}
		mean = total / float64(len(groups))
	}
	threshold := mean
	if cfg.threshold != nil {
		threshold = *cfg.threshold
	}

	table := &Table{
		Columns: append(append([]engine.Column(nil), shape.Columns...), shape.DerivedColumns...),
	}
	for _, key := range order {
		g := groups[key]
		row := make(map[string]any)
		for _, col := range shape.Columns {
			switch {
			case col.Name == "percentage":
				if total != 0 {
					row[col.Name] = g.sums["value"] / total * 100
				} else {
					row[col.Name] = 0.0
				}
			case col.SemanticType == engine.ColNumber:
				row[col.Name] = g.sums[col.Name]
			default:
				row[col.Name] = g.dims[col.Name]
			}
		}
		for _, col := range shape.DerivedColumns {
			switch col.Name {
			case "mean_value":
				row[col.Name] = mean
			case "threshold_value":
				row[col.Name] = threshold
			case "above_threshold":
				row[col.Name] = g.sums["value"] > threshold
			}
		}
		table.Rows = append(table.Rows, row)
	}

	if shape.OrderBy != nil {
		sortRows(table.Rows, shape.OrderBy)
	}
	return table, nil
}

func filterByTime(records []Record, column string, f *engine.TimeFilter) []Record {
	var kept []Record
	for _, rec := range records {
		year, ok := recordYear(rec, column)
		if !ok {
			continue
		}
		switch f.Op {
		case "equals":
			if year == f.Year {
				kept = append(kept, rec)
			}
		case "between":
			if year >= f.StartYear && year <= f.EndYear {
				kept = append(kept, rec)
			}
		}
	}
	return kept
}

// recordYear extracts a year from either side of the record. Dimension
// values like "2022-03" count by their leading four digits.
func recordYear(rec Record, column string) (int, bool) {
	if f, ok := rec.Measures[column]; ok {
		return int(f), true
	}
	v := rec.Dimensions[column]
	if len(v) >= 4 {
		if year, err := strconv.Atoi(v[:4]); err == nil {
			return year, true
		}
	}
	return 0, false
}

func sortRows(rows []map[string]any, by *engine.OrderBy) {
	sort.SliceStable(rows, func(i, j int) bool {
		less := compareValues(rows[i][by.Column], rows[j][by.Column])
		if by.Ascending {
			return less
		}
		return !less
	})
}

func compareValues(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
