package preview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizrule-org/vizrule/engine"
	"github.com/vizrule-org/vizrule/schema"
)

const crimeCSV = `Borough Name,Count,Year
Westminster,120,2022
Camden,85,2022
Westminster,90,2023
Camden,60,2023
Hackney,40,2022
`

func crimeMeta() schema.DatasetMeta {
	return schema.DatasetMeta{
		ID: "crime-rates",
		Columns: []schema.ColumnMeta{
			{Name: "borough_name", Type: "categorical"},
			{Name: "count", Type: "numeric"},
			{Name: "year", Type: "numeric"},
		},
	}
}

func TestRecordsFromCSV(t *testing.T) {
	records, err := RecordsFromCSV([]byte(crimeCSV), crimeMeta())
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, "Westminster", records[0].Dimensions["borough_name"])
	assert.Equal(t, 120.0, records[0].Measures["count"])
	assert.Equal(t, 2022.0, records[0].Measures["year"])
}

func barShape(t *testing.T, overlay engine.Overlay, timePeriod string) engine.QueryShape {
	t.Helper()
	d := engine.NewDeriver(func() time.Time {
		return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	})
	return d.Derive(engine.ChartVariantSelection{
		TemplateID:     "bar_chart",
		Dimensionality: engine.TwoD,
		Overlay:        overlay,
	}, engine.Proposition{TimePeriod: timePeriod})
}

func TestExecuteAggregatesByCategory(t *testing.T) {
	records, err := RecordsFromCSV([]byte(crimeCSV), crimeMeta())
	require.NoError(t, err)

	shape := barShape(t, engine.OverlayNone, "")
	table, err := Execute(shape, map[string]string{"category": "borough_name", "value": "count"}, records)
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)

	// Ordered by category ascending.
	assert.Equal(t, "Camden", table.Rows[0]["category"])
	assert.Equal(t, 145.0, table.Rows[0]["value"])
	assert.Equal(t, "Hackney", table.Rows[1]["category"])
	assert.Equal(t, "Westminster", table.Rows[2]["category"])
	assert.Equal(t, 210.0, table.Rows[2]["value"])
}

func TestExecuteTimeFilter(t *testing.T) {
	records, err := RecordsFromCSV([]byte(crimeCSV), crimeMeta())
	require.NoError(t, err)

	shape := barShape(t, engine.OverlayNone, "2022")
	require.NotNil(t, shape.TimeFilter)

	table, err := Execute(shape,
		map[string]string{"category": "borough_name", "value": "count"},
		records, WithTimeColumn("year"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, 85.0, table.Rows[0]["value"])  // Camden 2022 only
	assert.Equal(t, 120.0, table.Rows[2]["value"]) // Westminster 2022 only
}

func TestExecuteOverlays(t *testing.T) {
	records, err := RecordsFromCSV([]byte(crimeCSV), crimeMeta())
	require.NoError(t, err)

	shape := barShape(t, engine.OverlayMeanAndThreshold, "")
	table, err := Execute(shape,
		map[string]string{"category": "borough_name", "value": "count"},
		records, WithThreshold(100))
	require.NoError(t, err)

	for _, row := range table.Rows {
		assert.InDelta(t, (145.0+40.0+210.0)/3, row["mean_value"].(float64), 0.001)
		assert.Equal(t, 100.0, row["threshold_value"])
	}
	byCategory := make(map[string]bool)
	for _, row := range table.Rows {
		byCategory[row["category"].(string)] = row["above_threshold"].(bool)
	}
	assert.True(t, byCategory["Westminster"])
	assert.True(t, byCategory["Camden"])
	assert.False(t, byCategory["Hackney"])
}

func TestExecuteRejectsBinnedContracts(t *testing.T) {
	d := engine.NewDeriver(nil)
	shape := d.Derive(engine.ChartVariantSelection{TemplateID: "histogram"}, engine.Proposition{})

	_, err := Execute(shape, map[string]string{"bin": "count", "frequency": "count"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestExecuteRequiresMapping(t *testing.T) {
	shape := barShape(t, engine.OverlayNone, "")
	_, err := Execute(shape, map[string]string{"category": "borough_name"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"value"`)
}
