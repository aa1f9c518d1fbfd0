package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	metadataPath string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "vizrule",
	Short: "Bind dataset propositions to chart specifications",
	Long: `vizrule classifies dataset columns into chart roles, matches chart
templates against them, and binds natural-language propositions to concrete
chart variants with their data retrieval contracts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&metadataPath, "metadata", "m", "metadata.json", "Path to the dataset metadata document")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(bindCmd)
}

// newLogger builds the process logger. Output goes to stderr so stdout stays
// clean for JSON results.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
