package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vizrule-org/vizrule/schema"
	"github.com/vizrule-org/vizrule/template"
)

var matchDatasetID string

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Show which chart templates each dataset supports",
	Long: `match classifies every column of the datasets in the metadata
document and prints the template catalogue per dataset: which chart templates
the data can fill and why the rest were rejected.`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVarP(&matchDatasetID, "dataset", "d", "", "Limit output to one dataset id")
}

func runMatch(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	datasets, err := schema.LoadMetadata(metadataPath)
	if err != nil {
		return err
	}

	var results []template.CatalogueResult
	for _, ds := range datasets {
		if matchDatasetID != "" && ds.ID != matchDatasetID {
			continue
		}
		fields := schema.ClassifyDataset(ds)
		results = append(results, template.BuildCatalogue(ds.ID, fields, nil))
	}
	if matchDatasetID != "" && len(results) == 0 {
		return fmt.Errorf("dataset %q not found in %s", matchDatasetID, metadataPath)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
