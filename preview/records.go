package preview

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/vizrule-org/vizrule/schema"
)

// ============================================================================
// PREVIEW RECORDS — Parses CSV rows against dataset metadata
// ============================================================================
// Preview execution needs actual rows. The consumer reads the CSV from
// wherever it lives and hands over the bytes together with the dataset's
// metadata; numeric columns become measures, everything else dimensions.
// ============================================================================

// Record is one data row split into string dimensions and numeric measures.
type Record struct {
	Dimensions map[string]string
	Measures   map[string]float64
}

// RecordsFromCSV parses CSV bytes into Records using the dataset metadata
// for column typing. Headers are matched to metadata columns after
// snake_case normalization; unmatched columns are skipped.
func RecordsFromCSV(data []byte, meta schema.DatasetMeta) ([]Record, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	types := make(map[string]schema.DeclaredType, len(meta.Columns))
	for _, c := range meta.Columns {
		types[c.Name] = schema.ParseDeclaredType(c.Type)
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		key := normalizeHeader(h)
		if _, known := types[key]; known {
			keys[i] = key
		}
		// Unmatched columns stay empty and are skipped per row.
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}

		rec := Record{
			Dimensions: make(map[string]string),
			Measures:   make(map[string]float64),
		}
		for i, val := range row {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}
			if types[keys[i]] == schema.TypeNumeric {
				if f, err := strconv.ParseFloat(strings.ReplaceAll(val, ",", ""), 64); err == nil {
					rec.Measures[keys[i]] = f
				}
				continue
			}
			rec.Dimensions[keys[i]] = val
		}
		records = append(records, rec)
	}
	return records, nil
}

// normalizeHeader converts "Column Name" or "columnName" → "column_name".
func normalizeHeader(s string) string {
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
	return strings.Trim(s, "_")
}
