package template

// ============================================================================
// TEMPLATE CATALOG — Canonical chart templates with slot requirements
// ============================================================================
// The catalog is a fixed, process-wide constant. Every template names its
// required and optional slots, numeric quality heuristics, the proposition
// categories it suits, and the chart family that decides which variants
// (overlays, third dimension) exist for it. Never mutated at runtime.
// ============================================================================

// Slot is an abstract placeholder a template needs filled by a classified
// column.
type Slot string

const (
	SlotTime          Slot = "time"
	SlotGeo           Slot = "geo"
	SlotMetric        Slot = "metric"
	SlotMetricX       Slot = "metric_x"
	SlotMetricY       Slot = "metric_y"
	SlotCategory      Slot = "category"
	SlotCategoryX     Slot = "category_x"
	SlotCategoryY     Slot = "category_y"
	SlotCategoryOrGeo Slot = "category_or_geo"
	SlotGroup         Slot = "group"
	SlotSize          Slot = "size"
)

// Family groups templates that share a variant space.
type Family string

const (
	FamilyLine       Family = "line"
	FamilyBar        Family = "bar"
	FamilyChoropleth Family = "choropleth"
	FamilyScatter    Family = "scatter"
	FamilyHeatmap    Family = "heatmap"
	FamilyHistogram  Family = "histogram"
	FamilyArea       Family = "area"
	FamilyDonut      Family = "donut"
)

// Capabilities flags which variants a family supports.
type Capabilities struct {
	MeanOverlay      bool
	ThresholdOverlay bool
	ThreeD           bool
}

// FamilyCapabilities returns the variant capabilities of a family.
// Only the bar family carries overlays and a third-dimension variant.
func FamilyCapabilities(f Family) Capabilities {
	if f == FamilyBar {
		return Capabilities{MeanOverlay: true, ThresholdOverlay: true, ThreeD: true}
	}
	return Capabilities{}
}

// Heuristic rule names used in template heuristics maps.
const (
	HeuristicMinTimePoints  = "min_time_points"
	HeuristicMaxTimeSeries  = "max_time_series"
	HeuristicMinCategories  = "min_categories"
	HeuristicMaxCategories  = "max_categories"
	HeuristicMinGeoCoverage = "min_geo_coverage"
	HeuristicMaxGeoAreas    = "max_geo_areas"
	HeuristicMinDataPoints  = "min_data_points"
	HeuristicMaxDataPoints  = "max_data_points"
	HeuristicMaxCategoriesX = "max_categories_x"
	HeuristicMaxCategoriesY = "max_categories_y"
	HeuristicMinCategoriesX = "min_categories_x"
	HeuristicMinCategoriesY = "min_categories_y"
	HeuristicMinUniqueVals  = "min_unique_values"
	HeuristicMaxUniqueVals  = "max_unique_values"
	HeuristicMaxGroups      = "max_groups"
)

// Proposition categories templates can align with.
const (
	PropTemporalTrends      = "temporal_trends"
	PropGeographicPatterns  = "geographic_patterns"
	PropCategoricalAnalysis = "categorical_analysis"
	PropCrossDimensional    = "cross_dimensional"
	PropStatisticalPatterns = "statistical_patterns"
)

// ChartTemplate declares one canonical chart shape.
type ChartTemplate struct {
	ID                    string
	Name                  string
	Family                Family
	RequiredSlots         []Slot
	OptionalSlots         []Slot
	Heuristics            map[string]int
	Description           string
	PropositionCategories []string
}

// Catalog is the static template registry.
var Catalog = []ChartTemplate{
	{
		ID:            "line_chart",
		Name:          "Line Chart",
		Family:        FamilyLine,
		RequiredSlots: []Slot{SlotTime, SlotMetric},
		OptionalSlots: []Slot{SlotGroup},
		Heuristics: map[string]int{
			HeuristicMinTimePoints: 3,
			HeuristicMaxTimeSeries: 10,
		},
		Description:           "Shows trends over time",
		PropositionCategories: []string{PropTemporalTrends, PropCrossDimensional},
	},
	{
		ID:            "bar_chart",
		Name:          "Bar Chart",
		Family:        FamilyBar,
		RequiredSlots: []Slot{SlotCategoryOrGeo, SlotMetric},
		OptionalSlots: []Slot{SlotGroup},
		Heuristics: map[string]int{
			HeuristicMaxCategories: 50,
			HeuristicMinCategories: 2,
		},
		Description:           "Compares categories or geographic areas",
		PropositionCategories: []string{PropGeographicPatterns, PropCategoricalAnalysis},
	},
	{
		ID:            "choropleth_map",
		Name:          "Choropleth Map",
		Family:        FamilyChoropleth,
		RequiredSlots: []Slot{SlotGeo, SlotMetric},
		Heuristics: map[string]int{
			HeuristicMinGeoCoverage: 3,
			HeuristicMaxGeoAreas:    100,
		},
		Description:           "Shows geographic distribution of metrics",
		PropositionCategories: []string{PropGeographicPatterns, PropCrossDimensional},
	},
	{
		ID:            "scatter_plot",
		Name:          "Scatter Plot",
		Family:        FamilyScatter,
		RequiredSlots: []Slot{SlotMetricX, SlotMetricY},
		OptionalSlots: []Slot{SlotGroup, SlotSize},
		Heuristics: map[string]int{
			HeuristicMinDataPoints: 10,
			HeuristicMaxDataPoints: 5000,
		},
		Description:           "Shows correlation between two metrics",
		PropositionCategories: []string{PropStatisticalPatterns, PropCrossDimensional},
	},
	{
		ID:            "heatmap",
		Name:          "Heatmap",
		Family:        FamilyHeatmap,
		RequiredSlots: []Slot{SlotCategoryX, SlotCategoryY, SlotMetric},
		Heuristics: map[string]int{
			HeuristicMaxCategoriesX: 20,
			HeuristicMaxCategoriesY: 20,
			HeuristicMinCategoriesX: 2,
			HeuristicMinCategoriesY: 2,
		},
		Description:           "Shows relationships between two categorical dimensions",
		PropositionCategories: []string{PropCrossDimensional, PropCategoricalAnalysis},
	},
	{
		ID:            "histogram",
		Name:          "Histogram",
		Family:        FamilyHistogram,
		RequiredSlots: []Slot{SlotMetric},
		OptionalSlots: []Slot{SlotGroup},
		Heuristics: map[string]int{
			HeuristicMinUniqueVals: 5,
			HeuristicMaxUniqueVals: 1000,
		},
		Description:           "Shows distribution of numeric values",
		PropositionCategories: []string{PropStatisticalPatterns},
	},
	{
		ID:            "grouped_bar",
		Name:          "Grouped Bar Chart",
		Family:        FamilyBar,
		RequiredSlots: []Slot{SlotCategory, SlotMetric, SlotGroup},
		Heuristics: map[string]int{
			HeuristicMaxCategories: 20,
			HeuristicMaxGroups:     10,
		},
		Description:           "Compares multiple groups across categories",
		PropositionCategories: []string{PropCrossDimensional, PropCategoricalAnalysis},
	},
	{
		ID:            "area_chart",
		Name:          "Area Chart",
		Family:        FamilyArea,
		RequiredSlots: []Slot{SlotTime, SlotMetric},
		OptionalSlots: []Slot{SlotGroup},
		Heuristics: map[string]int{
			HeuristicMinTimePoints: 5,
		},
		Description:           "Shows cumulative trends over time",
		PropositionCategories: []string{PropTemporalTrends},
	},
	{
		ID:            "donut_chart",
		Name:          "Donut Chart",
		Family:        FamilyDonut,
		RequiredSlots: []Slot{SlotCategory, SlotMetric},
		Heuristics: map[string]int{
			HeuristicMinCategories: 2,
			HeuristicMaxCategories: 10,
		},
		Description:           "Shows proportional composition across categories",
		PropositionCategories: []string{PropCategoricalAnalysis},
	},
}

// ByID returns the catalog template with the given id.
func ByID(id string) (ChartTemplate, bool) {
	for _, t := range Catalog {
		if t.ID == id {
			return t, true
		}
	}
	return ChartTemplate{}, false
}
