package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizrule-org/vizrule/engine"
	"github.com/vizrule-org/vizrule/schema"
	"github.com/vizrule-org/vizrule/translator"
)

type stubCollaborator struct {
	suggest func(req translator.Request) (*translator.Suggestion, error)
	calls   int
}

func (s *stubCollaborator) Suggest(_ context.Context, req translator.Request) (*translator.Suggestion, error) {
	s.calls++
	return s.suggest(req)
}

func crimeDataset() schema.DatasetMeta {
	return schema.DatasetMeta{
		ID:       "crime-rates",
		Name:     "crime-rates",
		Category: "crime-safety",
		Columns: []schema.ColumnMeta{
			{Name: "borough_name", Type: "categorical", SampleValues: []string{"Westminster", "Camden", "Hackney"}, DistinctCount: 33},
			{Name: "crime_category", Type: "categorical", SampleValues: []string{"Burglary", "Robbery", "Theft"}, DistinctCount: 12},
			{Name: "count", Type: "numeric", SampleValues: []string{"120", "340", "88"}, DistinctCount: 500},
			{Name: "year", Type: "numeric", SampleValues: []string{"2022", "2023"}, DistinctCount: 6},
		},
	}
}

func crimeProposition(id string) engine.Proposition {
	return engine.Proposition{
		ID:              id,
		DatasetID:       "crime-rates",
		Category:        engine.CategoryGeographicPatterns,
		Text:            "Westminster recorded the highest crime count of all boroughs",
		VariablesNeeded: []string{"borough_name", "count"},
		TimePeriod:      "2022",
		GeographicLevel: "borough",
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BatchDelay = 0
	return cfg
}

func TestRunOfflineDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.Offline = true
	o := New(cfg, []schema.DatasetMeta{crimeDataset()}, nil, nil)

	props := []engine.Proposition{crimeProposition("p1"), crimeProposition("p2")}
	report, err := o.Run(context.Background(), props)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, 2, report.Fallback)
	assert.Equal(t, 0, report.Excluded)
	require.Len(t, report.Bindings, 2)

	assert.Equal(t, "p1", report.Bindings[0].PropositionID)
	assert.Equal(t, "p2", report.Bindings[1].PropositionID)
	for _, b := range report.Bindings {
		assert.Equal(t, StatusFallback, b.Status)
		assert.Equal(t, "bar_chart_simple_2D", b.VariantID)
		assert.NotEmpty(t, b.RewordedText)
		assert.NotEmpty(t, b.ChartTitle)
		assert.NotEmpty(t, b.TapasQuestions)
		require.NotEmpty(t, b.QueryShape.Columns)
		assert.Equal(t, "category", b.QueryShape.Columns[0].Name)
	}
}

func TestRunUnknownDatasetAborts(t *testing.T) {
	cfg := testConfig()
	cfg.Offline = true
	o := New(cfg, []schema.DatasetMeta{crimeDataset()}, nil, nil)

	prop := crimeProposition("p1")
	prop.DatasetID = "housing-tenure"
	_, err := o.Run(context.Background(), []engine.Proposition{prop})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDataset)
	assert.Contains(t, err.Error(), "housing-tenure")
}

func TestRunExcludesUnknownVariable(t *testing.T) {
	cfg := testConfig()
	cfg.Offline = true
	o := New(cfg, []schema.DatasetMeta{crimeDataset()}, nil, nil)

	good := crimeProposition("p1")
	bad := crimeProposition("p2")
	bad.VariablesNeeded = []string{"borough_name", "median_price"}

	report, err := o.Run(context.Background(), []engine.Proposition{good, bad})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Fallback)
	assert.Equal(t, 1, report.Excluded)
	require.Len(t, report.Exclusions, 1)
	assert.Equal(t, "p2", report.Exclusions[0].PropositionID)
	assert.Contains(t, report.Exclusions[0].Reason, "median_price")
	require.Len(t, report.Bindings, 1)
	assert.Equal(t, "p1", report.Bindings[0].PropositionID)
}

func TestRunCollaboratorSucceeds(t *testing.T) {
	stub := &stubCollaborator{
		suggest: func(req translator.Request) (*translator.Suggestion, error) {
			return &translator.Suggestion{
				RewordedProposition: "Westminster has the highest recorded crime count in London",
				ChartType:           req.SuggestedVariant,
				ChartTitle:          "Crime by Borough",
				ChartDescription:    "Recorded crime counts across London boroughs",
				TapasQuestions:      []string{"Which borough has the highest count?"},
				Reasoning:           "A bar chart ranks boroughs directly.",
			}, nil
		},
	}
	o := New(testConfig(), []schema.DatasetMeta{crimeDataset()}, stub, nil)

	report, err := o.Run(context.Background(), []engine.Proposition{crimeProposition("p1")})
	require.NoError(t, err)
	require.Len(t, report.Bindings, 1)

	b := report.Bindings[0]
	assert.Equal(t, StatusSucceeded, b.Status)
	assert.Equal(t, "Westminster has the highest recorded crime count in London", b.RewordedText)
	assert.Equal(t, "Crime by Borough", b.ChartTitle)
	assert.Equal(t, "bar_chart_simple_2D", b.VariantID)
	assert.Equal(t, 1, report.Succeeded)
}

func TestRunMalformedResponseFallsBack(t *testing.T) {
	// One bad item in the batch must not poison its neighbors.
	stub := &stubCollaborator{
		suggest: func(req translator.Request) (*translator.Suggestion, error) {
			if req.Proposition.ID == "p2" {
				return nil, fmt.Errorf("suggest: %w", translator.ErrMalformedResponse)
			}
			return &translator.Suggestion{
				RewordedProposition: "Reworded " + req.Proposition.ID,
				ChartType:           req.SuggestedVariant,
			}, nil
		},
	}
	o := New(testConfig(), []schema.DatasetMeta{crimeDataset()}, stub, nil)

	props := []engine.Proposition{
		crimeProposition("p1"),
		crimeProposition("p2"),
		crimeProposition("p3"),
	}
	report, err := o.Run(context.Background(), props)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Fallback)
	require.Len(t, report.Bindings, 3)

	assert.Equal(t, StatusSucceeded, report.Bindings[0].Status)
	assert.Equal(t, StatusFallback, report.Bindings[1].Status)
	assert.Equal(t, StatusSucceeded, report.Bindings[2].Status)

	// The fallback binding is still complete.
	fb := report.Bindings[1]
	assert.NotEmpty(t, fb.RewordedText)
	assert.NotEmpty(t, fb.ChartTitle)
	assert.NotEmpty(t, fb.QueryShape.Columns)
}

func TestRunAdoptsCandidateVariant(t *testing.T) {
	stub := &stubCollaborator{
		suggest: func(req translator.Request) (*translator.Suggestion, error) {
			assert.Contains(t, req.CandidateVariants, "bar_chart_with_mean_2D")
			return &translator.Suggestion{
				RewordedProposition: "Westminster sits well above the borough average",
				ChartType:           "bar_chart_with_mean_2D",
			}, nil
		},
	}
	o := New(testConfig(), []schema.DatasetMeta{crimeDataset()}, stub, nil)

	report, err := o.Run(context.Background(), []engine.Proposition{crimeProposition("p1")})
	require.NoError(t, err)
	require.Len(t, report.Bindings, 1)

	b := report.Bindings[0]
	assert.Equal(t, "bar_chart_with_mean_2D", b.VariantID)
	assert.Equal(t, engine.OverlayMean, b.ChartVariant.Overlay)

	names := make([]string, len(b.QueryShape.DerivedColumns))
	for i, c := range b.QueryShape.DerivedColumns {
		names[i] = c.Name
	}
	assert.Contains(t, names, "mean_value")
}

func TestRunIgnoresUnknownVariantPick(t *testing.T) {
	stub := &stubCollaborator{
		suggest: func(req translator.Request) (*translator.Suggestion, error) {
			return &translator.Suggestion{
				RewordedProposition: "Reworded",
				ChartType:           "sankey_diagram_simple_2D",
			}, nil
		},
	}
	o := New(testConfig(), []schema.DatasetMeta{crimeDataset()}, stub, nil)

	report, err := o.Run(context.Background(), []engine.Proposition{crimeProposition("p1")})
	require.NoError(t, err)
	require.Len(t, report.Bindings, 1)

	// The suggestion text is kept but the variant stays deterministic.
	assert.Equal(t, StatusSucceeded, report.Bindings[0].Status)
	assert.Equal(t, "bar_chart_simple_2D", report.Bindings[0].VariantID)
}

func TestRunBatchesWithDelay(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 2
	cfg.BatchDelay = 10 * time.Millisecond
	cfg.Offline = true
	o := New(cfg, []schema.DatasetMeta{crimeDataset()}, nil, nil)

	props := []engine.Proposition{
		crimeProposition("p1"),
		crimeProposition("p2"),
		crimeProposition("p3"),
		crimeProposition("p4"),
		crimeProposition("p5"),
	}

	start := time.Now()
	report, err := o.Run(context.Background(), props)
	require.NoError(t, err)

	// 3 batches means 2 inter-batch delays.
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	require.Len(t, report.Bindings, 5)
	for i, b := range report.Bindings {
		assert.Equal(t, fmt.Sprintf("p%d", i+1), b.PropositionID)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 1
	cfg.BatchDelay = time.Minute
	cfg.Offline = true
	o := New(cfg, []schema.DatasetMeta{crimeDataset()}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := o.Run(ctx, []engine.Proposition{crimeProposition("p1"), crimeProposition("p2")})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
