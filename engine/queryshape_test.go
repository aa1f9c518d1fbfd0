package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizrule-org/vizrule/template"
)

func fixedClock() time.Time {
	return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func columnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func TestDeriveBaseContracts(t *testing.T) {
	d := NewDeriver(fixedClock)

	tests := []struct {
		templateID string
		family     template.Family
		want       []string
		groupBy    []string
	}{
		{"bar_chart", template.FamilyBar, []string{"category", "value"}, []string{"category"}},
		{"grouped_bar", template.FamilyBar, []string{"category", "series", "value"}, []string{"category", "series"}},
		{"line_chart", template.FamilyLine, []string{"time", "value"}, []string{"time"}},
		{"area_chart", template.FamilyArea, []string{"time", "value"}, []string{"time"}},
		{"donut_chart", template.FamilyDonut, []string{"category", "value", "percentage"}, []string{"category"}},
		{"scatter_plot", template.FamilyScatter, []string{"category", "x_value", "y_value"}, []string{"category"}},
		{"histogram", template.FamilyHistogram, []string{"bin", "frequency"}, []string{"bin"}},
		{"heatmap", template.FamilyHeatmap, []string{"x_bin", "y_bin", "count"}, []string{"x_bin", "y_bin"}},
		{"choropleth_map", template.FamilyChoropleth, []string{"area", "value"}, []string{"area"}},
	}

	for _, tt := range tests {
		t.Run(tt.templateID, func(t *testing.T) {
			s := ChartVariantSelection{TemplateID: tt.templateID, Family: tt.family, Dimensionality: TwoD, Overlay: OverlayNone}
			shape := d.Derive(s, Proposition{})

			assert.Equal(t, tt.want, columnNames(shape.Columns))
			assert.Empty(t, shape.DerivedColumns)
			assert.Equal(t, tt.groupBy, shape.GroupBy)
			require.NotNil(t, shape.OrderBy)
			assert.Equal(t, tt.want[0], shape.OrderBy.Column)
			assert.True(t, shape.OrderBy.Ascending)
		})
	}
}

func TestDeriveMeanAndThresholdRoundTrip(t *testing.T) {
	d := NewDeriver(fixedClock)
	s := ChartVariantSelection{
		TemplateID:     "bar_chart",
		Family:         template.FamilyBar,
		Dimensionality: TwoD,
		Overlay:        OverlayMeanAndThreshold,
	}

	shape := d.Derive(s, Proposition{})

	assert.Equal(t, []string{"category", "value"}, columnNames(shape.Columns))
	assert.Equal(t, []string{"mean_value", "threshold_value", "above_threshold"}, columnNames(shape.DerivedColumns))

	types := map[string]string{}
	for _, c := range shape.DerivedColumns {
		types[c.Name] = c.SemanticType
	}
	assert.Equal(t, ColNumber, types["mean_value"])
	assert.Equal(t, ColNumber, types["threshold_value"])
	assert.Equal(t, ColBoolean, types["above_threshold"])
}

func TestDeriveThreeDimensionalAppendsDimension(t *testing.T) {
	d := NewDeriver(fixedClock)
	s := ChartVariantSelection{
		TemplateID:     "bar_chart",
		Family:         template.FamilyBar,
		Dimensionality: ThreeD,
		Overlay:        OverlayNone,
		ThirdDimension: "crime_category",
	}

	shape := d.Derive(s, Proposition{})
	assert.Equal(t, []string{"category", "value", "dimension"}, columnNames(shape.Columns))
	assert.Equal(t, []string{"category", "dimension"}, shape.GroupBy, "dimension joins the group-by")
}

func TestParseTimePeriod(t *testing.T) {
	now := fixedClock()

	tests := []struct {
		period string
		want   *TimeFilter
	}{
		{"", nil},
		{"Not applicable", nil},
		{"n/a", nil},
		{"ongoing", nil},
		{"2022", &TimeFilter{Op: "equals", Year: 2022}},
		{"2015-2023", &TimeFilter{Op: "between", StartYear: 2015, EndYear: 2023}},
		{"2015 - 2023", &TimeFilter{Op: "between", StartYear: 2015, EndYear: 2023}},
		{"2018-present", &TimeFilter{Op: "between", StartYear: 2018, EndYear: 2025}},
		{"2018-Present", &TimeFilter{Op: "between", StartYear: 2018, EndYear: 2025}},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTimePeriod(tt.period, now))
		})
	}
}

func TestDeriveAttachesTimeFilter(t *testing.T) {
	d := NewDeriver(fixedClock)
	s := ChartVariantSelection{TemplateID: "line_chart", Family: template.FamilyLine, Dimensionality: TwoD, Overlay: OverlayNone}

	shape := d.Derive(s, Proposition{TimePeriod: "2019-present"})
	require.NotNil(t, shape.TimeFilter)
	assert.Equal(t, "between", shape.TimeFilter.Op)
	assert.Equal(t, 2019, shape.TimeFilter.StartYear)
	assert.Equal(t, 2025, shape.TimeFilter.EndYear)
}

func TestGenerateQuestions(t *testing.T) {
	prop := Proposition{
		Text:            "Westminster crime rates are above the London average",
		VariablesNeeded: []string{"borough_name", "count"},
		TimePeriod:      "Not applicable",
	}
	s := ChartVariantSelection{
		TemplateID:     "bar_chart",
		Family:         template.FamilyBar,
		Dimensionality: TwoD,
		Overlay:        OverlayMean,
	}

	questions := GenerateQuestions(prop, s)
	require.NotEmpty(t, questions)
	assert.LessOrEqual(t, len(questions), 4)
	assert.Contains(t, questions, "What is the average count across all boroughs?")
	assert.Contains(t, questions, "Which boroughs are above the average count?")
}

func TestGenerateQuestionsThreeD(t *testing.T) {
	prop := Proposition{
		Text:            "Crime varies across boroughs by type",
		VariablesNeeded: []string{"borough_name", "crime_category", "count", "year"},
		TimePeriod:      "Not applicable",
	}
	s := ChartVariantSelection{
		TemplateID:     "bar_chart",
		Family:         template.FamilyBar,
		Dimensionality: ThreeD,
		Overlay:        OverlayNone,
		ThirdDimension: "crime_category",
	}

	questions := GenerateQuestions(prop, s)
	assert.Len(t, questions, 4)
	assert.Contains(t, questions, "How does the pattern vary across the additional dimension?")
}

func TestGenerateQuestionsFallsBackToGeneric(t *testing.T) {
	prop := Proposition{Text: "Values cluster", VariablesNeeded: nil, TimePeriod: "Not applicable"}
	s := ChartVariantSelection{TemplateID: "heatmap", Family: template.FamilyHeatmap, Dimensionality: TwoD, Overlay: OverlayNone}

	questions := GenerateQuestions(prop, s)
	require.NotEmpty(t, questions)
	assert.Contains(t, questions, "What is the overall pattern shown in the value data?")
}
