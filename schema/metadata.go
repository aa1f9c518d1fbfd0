package schema

import (
	"encoding/json"
	"fmt"
	"os"
)

// ============================================================================
// METADATA LOADING — External dataset metadata document → DatasetMeta
// ============================================================================
// The metadata document groups datasets under named categories; each file
// entry carries a summary with column names, a name→type map, and a
// name→examples map. LoadMetadata flattens that into DatasetMeta values,
// preserving column order.
// ============================================================================

type metadataDocument struct {
	Categories []metadataCategory `json:"categories"`
}

type metadataCategory struct {
	Name  string         `json:"name"`
	Files []metadataFile `json:"files"`
}

type metadataFile struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Path        string       `json:"path"`
	FileSummary *fileSummary `json:"file_summary"`
}

type fileSummary struct {
	ColumnNames    []string            `json:"column_names"`
	ColumnTypes    map[string]string   `json:"column_types"`
	ValueExamples  map[string][]string `json:"value_examples"`
	DistinctCounts map[string]int      `json:"distinct_counts"`
}

// LoadMetadata reads a metadata document from disk and flattens it into one
// DatasetMeta per file entry. Files without a column summary are skipped.
func LoadMetadata(path string) ([]DatasetMeta, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata document: %w", err)
	}
	return ParseMetadata(raw)
}

// ParseMetadata parses raw metadata document JSON.
func ParseMetadata(raw []byte) ([]DatasetMeta, error) {
	var doc metadataDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing metadata document: %w", err)
	}

	var datasets []DatasetMeta
	for _, cat := range doc.Categories {
		for _, file := range cat.Files {
			if file.FileSummary == nil || len(file.FileSummary.ColumnNames) == 0 {
				continue
			}
			ds := DatasetMeta{
				ID:          file.ID,
				Name:        file.Name,
				Category:    cat.Name,
				Description: file.Description,
				FilePath:    file.Path,
			}
			for _, colName := range file.FileSummary.ColumnNames {
				colType := file.FileSummary.ColumnTypes[colName]
				if colType == "" {
					colType = "unknown"
				}
				ds.Columns = append(ds.Columns, ColumnMeta{
					Name:          colName,
					Type:          colType,
					SampleValues:  file.FileSummary.ValueExamples[colName],
					DistinctCount: file.FileSummary.DistinctCounts[colName],
				})
			}
			datasets = append(datasets, ds)
		}
	}
	return datasets, nil
}

// IndexByID builds an id → dataset lookup map.
func IndexByID(datasets []DatasetMeta) map[string]DatasetMeta {
	index := make(map[string]DatasetMeta, len(datasets))
	for _, ds := range datasets {
		index[ds.ID] = ds
	}
	return index
}
