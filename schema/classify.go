package schema

import (
	"regexp"
	"strings"
)

// ============================================================================
// FIELD ROLE CLASSIFIER — Column name + type + samples → semantic roles
// ============================================================================
// Each column gets at least one role. Detection runs name keywords first,
// then declared type, then sample-value patterns. A column may carry several
// roles (a "year" column is both time and metric material); a column that
// matches nothing falls back to category so downstream slot matching always
// has something to work with.
// ============================================================================

var (
	// "2023", "2022-01", "2022-01-15"
	isoDatePattern = regexp.MustCompile(`^\d{4}(-\d{2})?(-\d{2})?$`)

	// ONS small-area codes like "E09000002002"
	onsAreaPattern = regexp.MustCompile(`^E\d{8}\d+$`)

	// UK postcodes like "SW1A 1AA", "N1 9GU"
	ukPostcodePattern = regexp.MustCompile(`(?i)^[A-Z]{1,2}\d[A-Z\d]?\s?\d[A-Z]{2}$`)
)

var timeNameHints = []string{
	"year", "date", "time", "month", "day", "period",
	"quarter", "season", "timestamp", "created_at", "updated_at",
}

var geoNameHints = []string{
	"borough", "area", "region", "district", "ward", "postcode",
	"zip", "city", "town", "county", "state", "country",
	"lsoa", "msoa", "oa", "constituency", "local_authority",
}

var metricNameHints = []string{
	"count", "total", "sum", "average", "mean", "median",
	"price", "cost", "value", "amount", "income", "salary",
	"population", "density", "rate", "percentage", "ratio",
	"score", "index", "level", "quantity", "number",
	"size", "area", "volume", "weight", "distance",
}

var categoryNameHints = []string{
	"type", "category", "class", "group", "status", "level",
	"grade", "rank", "ethnicity", "gender", "occupation",
	"sector", "industry", "phase", "key_stage",
}

// Classify determines the semantic roles for a single column.
// The returned slice is never empty.
func Classify(name string, declaredType DeclaredType, samples []string) []Role {
	lower := strings.ToLower(name)
	var roles []Role

	if isTimeField(lower, declaredType, samples) {
		roles = append(roles, RoleTime)
	}

	if isGeoField(lower, samples) {
		// Geographic fields double as categories for grouping and faceting.
		roles = append(roles, RoleGeo, RoleCategory)
	}

	if isMetricField(lower, declaredType, samples) {
		roles = append(roles, RoleMetric)
	}

	if isCategoryField(lower, declaredType) && !containsRole(roles, RoleCategory) {
		roles = append(roles, RoleCategory)
	}

	if len(roles) == 0 {
		roles = append(roles, RoleCategory)
	}
	return roles
}

// ClassifyDataset classifies every column of a dataset, keeping at most
// three sample values per field.
func ClassifyDataset(meta DatasetMeta) []FieldDescriptor {
	fields := make([]FieldDescriptor, 0, len(meta.Columns))
	for _, col := range meta.Columns {
		dt := ParseDeclaredType(col.Type)
		samples := col.SampleValues
		if len(samples) > 3 {
			samples = samples[:3]
		}
		card := col.DistinctCount
		if card == 0 {
			card = len(col.SampleValues)
		}
		fields = append(fields, FieldDescriptor{
			Name:         col.Name,
			DeclaredType: dt,
			SampleValues: samples,
			Roles:        Classify(col.Name, dt, col.SampleValues),
			Cardinality:  card,
		})
	}
	return fields
}

func isTimeField(lowerName string, declaredType DeclaredType, samples []string) bool {
	if declaredType == TypeDatetime {
		return true
	}
	for _, hint := range timeNameHints {
		if strings.Contains(lowerName, hint) {
			return true
		}
	}
	if len(samples) > 0 && isoDatePattern.MatchString(samples[0]) {
		return true
	}
	return false
}

func isGeoField(lowerName string, samples []string) bool {
	for _, hint := range geoNameHints {
		if strings.Contains(lowerName, hint) {
			return true
		}
	}
	if len(samples) > 0 {
		first := samples[0]
		if onsAreaPattern.MatchString(first) || ukPostcodePattern.MatchString(first) {
			return true
		}
		// Compound place names ("Hammersmith and Fulham", "Barking & Dagenham")
		if strings.Contains(first, " and ") || strings.Contains(first, " & ") {
			return true
		}
	}
	return false
}

func isMetricField(lowerName string, declaredType DeclaredType, samples []string) bool {
	if declaredType != TypeNumeric {
		return false
	}
	for _, hint := range metricNameHints {
		if strings.Contains(lowerName, hint) {
			return true
		}
	}
	// Numeric columns that are neither temporal nor geographic count as metrics.
	return !isTimeField(lowerName, declaredType, samples) && !isGeoField(lowerName, samples)
}

func isCategoryField(lowerName string, declaredType DeclaredType) bool {
	switch declaredType {
	case TypeCategorical, TypeString:
		return true
	}
	for _, hint := range categoryNameHints {
		if strings.Contains(lowerName, hint) {
			return true
		}
	}
	return false
}

func containsRole(roles []Role, r Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}
