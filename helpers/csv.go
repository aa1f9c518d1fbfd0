package helpers

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/vizrule-org/vizrule/schema"
)

// ============================================================================
// CSV HELPER — Builds dataset metadata from raw CSV bytes
// ============================================================================
// The engine consumes dataset metadata (column names, declared types, sample
// values, distinct counts), not raw rows. When no metadata document exists,
// this helper derives one by sampling the CSV. Consumers read the CSV from
// wherever it lives (file, S3, Sheets) and hand over the bytes.
// ============================================================================

// DiscoverOptions controls metadata discovery.
type DiscoverOptions struct {
	SampleSize int // Max rows to inspect (0 = default 1000)
}

const defaultSampleSize = 1000

// DatasetFromCSV derives DatasetMeta by inspecting CSV data. Column types
// follow majority vote over the sampled non-null values; a type wins when at
// least 80% of values match it.
func DatasetFromCSV(id, name, category string, data []byte, opts ...DiscoverOptions) (schema.DatasetMeta, error) {
	opt := DiscoverOptions{SampleSize: defaultSampleSize}
	if len(opts) > 0 && opts[0].SampleSize > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return schema.DatasetMeta{}, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) == 0 {
		return schema.DatasetMeta{}, fmt.Errorf("CSV has no columns")
	}

	var rows [][]string
	for i := 0; i < opt.SampleSize; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return schema.DatasetMeta{}, fmt.Errorf("CSV has no data rows")
	}

	meta := schema.DatasetMeta{
		ID:       id,
		Name:     name,
		Category: category,
		Columns:  make([]schema.ColumnMeta, 0, len(headers)),
	}
	for i, header := range headers {
		meta.Columns = append(meta.Columns, analyzeColumn(header, i, rows))
	}
	return meta, nil
}

// analyzeColumn inspects all sampled values of one column.
func analyzeColumn(header string, index int, rows [][]string) schema.ColumnMeta {
	uniqueSet := make(map[string]bool)
	var values []string

	for _, row := range rows {
		if index >= len(row) {
			continue
		}
		val := strings.TrimSpace(row[index])
		if val == "" || val == "null" || val == "NULL" || val == "N/A" || val == "n/a" {
			continue
		}
		values = append(values, val)
		uniqueSet[val] = true
	}

	return schema.ColumnMeta{
		Name:          toSnakeCase(header),
		Type:          string(detectType(values, len(uniqueSet))),
		SampleValues:  collectSamples(uniqueSet, 3),
		DistinctCount: len(uniqueSet),
	}
}

// detectType requires 80%+ of non-null values to match for numeric/datetime.
// Low-cardinality text is categorical, the rest plain string.
func detectType(values []string, uniqueCount int) schema.DeclaredType {
	if len(values) == 0 {
		return schema.TypeUnknown
	}

	numCount := 0
	dateCount := 0
	for _, v := range values {
		if isNumeric(v) {
			numCount++
		}
		if isDate(v) {
			dateCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)
	if dateCount >= threshold {
		return schema.TypeDatetime
	}
	if numCount >= threshold {
		return schema.TypeNumeric
	}

	// Repeated text values group; near-unique text does not.
	uniqueRatio := float64(uniqueCount) / float64(len(values))
	if uniqueCount <= 50 || uniqueRatio < 0.5 {
		return schema.TypeCategorical
	}
	return schema.TypeString
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "") // handle "1,234.56"
	s = strings.TrimPrefix(s, "£")
	s = strings.TrimPrefix(s, "-")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01",
	"01/02/2006",
	"02/01/2006",
	"Jan-2006",
	"January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func isDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "__", "_")
	s = strings.Trim(s, "_")
	return s
}

// collectSamples picks up to maxSamples values, sorted for determinism.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
