package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vizrule-org/vizrule/engine"
	"github.com/vizrule-org/vizrule/schema"
	"github.com/vizrule-org/vizrule/template"
	"github.com/vizrule-org/vizrule/translator"
)

// ============================================================================
// BATCH ORCHESTRATOR — Dataset metadata + propositions → chart bindings
// ============================================================================
// Classification and template matching run once per dataset and are cached
// for the run. Propositions go through in fixed-size batches with a delay
// between batches to respect the collaborator's rate limits; inside a batch
// items fan out concurrently, each writing its own slot so input order is
// preserved. Per-item failures degrade to the deterministic fallback or an
// exclusion; only a proposition referencing a dataset with no metadata at
// all aborts the run.
// ============================================================================

// ErrUnknownDataset marks a proposition whose dataset has no metadata.
var ErrUnknownDataset = errors.New("unknown dataset")

// Status of one proposition binding.
type Status string

const (
	// StatusSucceeded means the collaborator produced the binding.
	StatusSucceeded Status = "succeeded"
	// StatusFallback means the deterministic path produced the binding.
	StatusFallback Status = "fallback"
)

// Binding is the per-proposition output: the chosen chart variant, its
// retrieval contract, and the narrative metadata around it. RewordedText and
// Reasoning may come from the collaborator or the fallback; callers must not
// assume either source.
type Binding struct {
	PropositionID    string                       `json:"propositionId"`
	DatasetID        string                       `json:"datasetId"`
	Status           Status                       `json:"status"`
	RewordedText     string                       `json:"rewordedText"`
	ChartTitle       string                       `json:"chartTitle"`
	ChartDescription string                       `json:"chartDescription"`
	Reasoning        string                       `json:"reasoning"`
	TapasQuestions   []string                     `json:"tapasQuestions"`
	ChartVariant     engine.ChartVariantSelection `json:"chartVariant"`
	VariantID        string                       `json:"variantId"`
	QueryShape       engine.QueryShape            `json:"queryShape"`
}

// Exclusion records a proposition dropped from the output.
type Exclusion struct {
	PropositionID string `json:"propositionId"`
	Reason        string `json:"reason"`
}

// BatchReport is the result of one run.
type BatchReport struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Fallback  int `json:"fallback"`
	Excluded  int `json:"excluded"`

	// Bindings holds the non-excluded results in input order.
	Bindings   []Binding   `json:"bindings"`
	Exclusions []Exclusion `json:"exclusions,omitempty"`
}

// Orchestrator drives the full binding pipeline.
type Orchestrator struct {
	cfg      Config
	datasets map[string]schema.DatasetMeta
	collab   translator.Collaborator
	selector *engine.Selector
	deriver  *engine.Deriver
	log      *zap.Logger
	now      func() time.Time
}

// Option tweaks orchestrator construction.
type Option func(*Orchestrator)

// WithClock injects a clock, used for run timestamps and time-filter
// resolution.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New builds an Orchestrator over a set of dataset metadata. collab may be
// nil when cfg.Offline is set; every item then takes the deterministic path.
func New(cfg Config, datasets []schema.DatasetMeta, collab translator.Collaborator, log *zap.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{
		cfg:      cfg,
		datasets: schema.IndexByID(datasets),
		collab:   collab,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.selector = engine.NewSelector(log)
	o.deriver = engine.NewDeriver(o.now)
	return o
}

// datasetContext caches the per-dataset work shared by all of its
// propositions within a run.
type datasetContext struct {
	meta        schema.DatasetMeta
	fields      []schema.FieldDescriptor
	catalogue   template.CatalogueResult
	columns     map[string]bool
	cardinality map[string]int
}

// Run binds every proposition and reports the outcome. Outputs preserve
// input order. A proposition referencing an unknown dataset fails the whole
// run before any batch starts.
func (o *Orchestrator) Run(ctx context.Context, props []engine.Proposition) (*BatchReport, error) {
	report := &BatchReport{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
		Total:     len(props),
	}

	for _, p := range props {
		if _, ok := o.datasets[p.DatasetID]; !ok {
			return nil, fmt.Errorf("%w: %q referenced by proposition %s", ErrUnknownDataset, p.DatasetID, p.ID)
		}
	}

	contexts := o.buildContexts(props)

	o.log.Info("starting batch run",
		zap.String("runId", report.RunID),
		zap.Int("propositions", len(props)),
		zap.Int("datasets", len(contexts)),
		zap.Int("batchSize", o.cfg.BatchSize))

	type itemResult struct {
		binding   *Binding
		exclusion *Exclusion
	}
	results := make([]itemResult, len(props))

	batchSize := o.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := 0; start < len(props); start += batchSize {
		end := start + batchSize
		if end > len(props) {
			end = len(props)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				prop := props[i]
				dctx := contexts[prop.DatasetID]
				binding, exclusion := o.processOne(gctx, prop, dctx)
				results[i] = itemResult{binding: binding, exclusion: exclusion}
				return nil
			})
		}
		// Workers never return errors; per-item failures degrade in place.
		_ = g.Wait()

		if end < len(props) && o.cfg.BatchDelay > 0 {
			select {
			case <-time.After(o.cfg.BatchDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	for _, r := range results {
		switch {
		case r.binding != nil:
			report.Bindings = append(report.Bindings, *r.binding)
			if r.binding.Status == StatusSucceeded {
				report.Succeeded++
			} else {
				report.Fallback++
			}
		case r.exclusion != nil:
			report.Exclusions = append(report.Exclusions, *r.exclusion)
			report.Excluded++
		}
	}
	report.FinishedAt = o.now()

	o.log.Info("batch run finished",
		zap.String("runId", report.RunID),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("fallback", report.Fallback),
		zap.Int("excluded", report.Excluded))

	return report, nil
}

// buildContexts classifies and matches each referenced dataset once.
// The heuristic filter sees the categories of the run's own propositions.
func (o *Orchestrator) buildContexts(props []engine.Proposition) map[string]*datasetContext {
	categories := make(map[string]map[string]bool)
	for _, p := range props {
		if p.Category == "" {
			continue
		}
		if categories[p.DatasetID] == nil {
			categories[p.DatasetID] = make(map[string]bool)
		}
		categories[p.DatasetID][p.Category] = true
	}

	contexts := make(map[string]*datasetContext)
	for _, p := range props {
		if _, done := contexts[p.DatasetID]; done {
			continue
		}
		meta := o.datasets[p.DatasetID]
		fields := schema.ClassifyDataset(meta)

		var cats []string
		for c := range categories[p.DatasetID] {
			cats = append(cats, c)
		}

		columns := make(map[string]bool, len(meta.Columns))
		cardinality := make(map[string]int, len(fields))
		for _, f := range fields {
			columns[f.Name] = true
			cardinality[f.Name] = f.Cardinality
		}

		contexts[p.DatasetID] = &datasetContext{
			meta:        meta,
			fields:      fields,
			catalogue:   template.BuildCatalogue(meta.ID, fields, cats),
			columns:     columns,
			cardinality: cardinality,
		}
	}
	return contexts
}

// processOne binds a single proposition. Exactly one of the returns is set.
func (o *Orchestrator) processOne(ctx context.Context, prop engine.Proposition, dctx *datasetContext) (*Binding, *Exclusion) {
	for _, v := range prop.VariablesNeeded {
		if !dctx.columns[v] {
			o.log.Warn("proposition references unknown column",
				zap.String("proposition", prop.ID),
				zap.String("column", v))
			return nil, &Exclusion{
				PropositionID: prop.ID,
				Reason:        fmt.Sprintf("variable %q not in dataset %s", v, dctx.meta.ID),
			}
		}
	}

	tmpl, match, ok := chooseTemplate(dctx.catalogue, prop.Category)
	if !ok {
		return nil, &Exclusion{
			PropositionID: prop.ID,
			Reason:        "no chart template matched the dataset",
		}
	}

	selection := o.selector.Select(prop, tmpl, match, dctx.meta.Name)
	candidates := variantCandidates(tmpl, selection)

	if o.cfg.Offline || o.collab == nil {
		return o.fallbackBinding(prop, dctx, selection), nil
	}

	req := translator.Request{
		Proposition:       prop,
		DatasetName:       dctx.meta.Name,
		Category:          prop.Category,
		SuggestedVariant:  selection.VariantID(),
		CandidateVariants: candidateIDs(candidates, selection),
	}

	suggestion, err := o.collab.Suggest(ctx, req)
	if err != nil {
		o.log.Warn("collaborator failed, using deterministic path",
			zap.String("proposition", prop.ID),
			zap.Error(err))
		return o.fallbackBinding(prop, dctx, selection), nil
	}

	final := o.adoptSuggestion(prop, dctx, selection, candidates, suggestion)
	shape := o.deriver.Derive(final, prop)

	questions := suggestion.TapasQuestions
	if len(questions) == 0 {
		questions = engine.GenerateQuestions(prop, final)
	} else if len(questions) > 4 {
		questions = questions[:4]
	}

	title := suggestion.ChartTitle
	if title == "" {
		title = translator.FallbackTitle(dctx.meta.Name, prop.GeographicLevel)
	}
	description := suggestion.ChartDescription
	if description == "" {
		description = translator.FallbackDescription(final.VariantID(), prop.GeographicLevel)
	}
	reasoning := suggestion.Reasoning
	if reasoning == "" {
		reasoning = translator.FallbackReasoning(final.VariantID(), prop.GeographicLevel, prop.Category)
	}

	return &Binding{
		PropositionID:    prop.ID,
		DatasetID:        prop.DatasetID,
		Status:           StatusSucceeded,
		RewordedText:     suggestion.RewordedProposition,
		ChartTitle:       title,
		ChartDescription: description,
		Reasoning:        reasoning,
		TapasQuestions:   questions,
		ChartVariant:     final,
		VariantID:        final.VariantID(),
		QueryShape:       shape,
	}, nil
}

// adoptSuggestion folds the collaborator's variant choice into the
// deterministic selection when it names a known candidate and passes
// validation; otherwise the deterministic selection stands.
func (o *Orchestrator) adoptSuggestion(prop engine.Proposition, dctx *datasetContext, det engine.ChartVariantSelection, candidates map[string]engine.ChartVariantSelection, s *translator.Suggestion) engine.ChartVariantSelection {
	chosen, ok := candidates[s.ChartType]
	if !ok {
		if s.ChartType != det.VariantID() {
			o.log.Debug("collaborator picked an unknown variant, keeping deterministic selection",
				zap.String("proposition", prop.ID),
				zap.String("chartType", s.ChartType))
		}
		return det
	}

	if chosen.Dimensionality == engine.ThreeD && s.ThirdDimension != "" && eligibleDimension(prop, chosen, s.ThirdDimension) {
		chosen.ThirdDimension = s.ThirdDimension
	}

	if err := chosen.Validate(dctx.cardinality); err != nil {
		o.log.Warn("collaborator variant failed validation, keeping deterministic selection",
			zap.String("proposition", prop.ID),
			zap.Error(err))
		return det
	}
	return chosen
}

func eligibleDimension(prop engine.Proposition, s engine.ChartVariantSelection, dim string) bool {
	if dim == s.PrimaryCategory || dim == s.PrimaryMetric {
		return false
	}
	for _, v := range prop.VariablesNeeded {
		if v == dim {
			return true
		}
	}
	return false
}

// fallbackBinding assembles a binding entirely from the deterministic path.
func (o *Orchestrator) fallbackBinding(prop engine.Proposition, dctx *datasetContext, selection engine.ChartVariantSelection) *Binding {
	variantID := selection.VariantID()
	return &Binding{
		PropositionID:    prop.ID,
		DatasetID:        prop.DatasetID,
		Status:           StatusFallback,
		RewordedText:     translator.FallbackReword(prop.Text),
		ChartTitle:       translator.FallbackTitle(dctx.meta.Name, prop.GeographicLevel),
		ChartDescription: translator.FallbackDescription(variantID, prop.GeographicLevel),
		Reasoning:        translator.FallbackReasoning(variantID, prop.GeographicLevel, prop.Category),
		TapasQuestions:   engine.GenerateQuestions(prop, selection),
		ChartVariant:     selection,
		VariantID:        variantID,
		QueryShape:       o.deriver.Derive(selection, prop),
	}
}

// chooseTemplate picks the accepted match aligned with the proposition's
// category, falling back to the first accepted match.
func chooseTemplate(catalogue template.CatalogueResult, category string) (template.ChartTemplate, template.Match, bool) {
	for _, m := range catalogue.Accepted {
		t, _ := template.ByID(m.TemplateID)
		for _, c := range t.PropositionCategories {
			if c == category {
				return t, m, true
			}
		}
	}
	if len(catalogue.Accepted) > 0 {
		t, _ := template.ByID(catalogue.Accepted[0].TemplateID)
		return t, catalogue.Accepted[0], true
	}
	return template.ChartTemplate{}, template.Match{}, false
}

// variantCandidates enumerates the selections the collaborator may pick for
// a template. 3D shows up only when the deterministic pass already found a
// third dimension.
func variantCandidates(tmpl template.ChartTemplate, det engine.ChartVariantSelection) map[string]engine.ChartVariantSelection {
	caps := template.FamilyCapabilities(tmpl.Family)

	base := det
	base.Dimensionality = engine.TwoD
	base.Overlay = engine.OverlayNone
	base.ThirdDimension = ""

	candidates := map[string]engine.ChartVariantSelection{
		base.VariantID(): base,
	}

	add := func(overlay engine.Overlay) {
		c := base
		c.Overlay = overlay
		candidates[c.VariantID()] = c
	}
	if caps.MeanOverlay {
		add(engine.OverlayMean)
	}
	if caps.ThresholdOverlay {
		add(engine.OverlayThreshold)
	}
	if caps.MeanOverlay && caps.ThresholdOverlay {
		add(engine.OverlayMeanAndThreshold)
	}

	if det.Dimensionality == engine.ThreeD {
		candidates[det.VariantID()] = det
	}

	return candidates
}

func candidateIDs(candidates map[string]engine.ChartVariantSelection, det engine.ChartVariantSelection) []string {
	ids := make([]string, 0, len(candidates))
	ids = append(ids, det.VariantID())
	var rest []string
	for id := range candidates {
		if id != det.VariantID() {
			rest = append(rest, id)
		}
	}
	// Engine pick leads; the rest sorted so prompts are reproducible.
	sort.Strings(rest)
	return append(ids, rest...)
}
