package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vizrule-org/vizrule/orchestrator"
	"github.com/vizrule-org/vizrule/schema"
	"github.com/vizrule-org/vizrule/translator"
)

var (
	propositionsPath string
	configPath       string
	outputPath       string
	offline          bool
)

var bindCmd = &cobra.Command{
	Use:   "bind",
	Short: "Bind propositions to chart variants",
	Long: `bind runs the full pipeline: classify dataset columns, match chart
templates, select a variant per proposition, and reword each proposition
through the generative collaborator. Without an API key (or with --offline)
every proposition takes the deterministic fallback path.`,
	RunE: runBind,
}

func init() {
	bindCmd.Flags().StringVarP(&propositionsPath, "propositions", "p", "propositions.json", "Path to the proposition file")
	bindCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a yaml config file")
	bindCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	bindCmd.Flags().BoolVar(&offline, "offline", false, "Skip the collaborator and use the deterministic path")
}

func runBind(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := orchestrator.DefaultConfig()
	if configPath != "" {
		cfg, err = orchestrator.LoadConfig(configPath)
		if err != nil {
			return err
		}
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
	if offline {
		cfg.Offline = true
	}

	datasets, err := schema.LoadMetadata(metadataPath)
	if err != nil {
		return err
	}
	props, err := orchestrator.LoadPropositions(propositionsPath)
	if err != nil {
		return err
	}

	var collab translator.Collaborator
	switch {
	case cfg.Offline:
	case cfg.Gemini.APIKey == "":
		log.Warn("no API key configured, running offline")
		cfg.Offline = true
	default:
		collab = translator.NewGemini(translator.Config{
			APIKey:   cfg.Gemini.APIKey,
			Model:    cfg.Gemini.Model,
			Endpoint: cfg.Gemini.Endpoint,
		}, log)
	}

	o := orchestrator.New(cfg, datasets, collab, log)
	report, err := o.Run(cmd.Context(), props)
	if err != nil {
		return err
	}

	log.Info("run complete",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("fallback", report.Fallback),
		zap.Int("excluded", report.Excluded))

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
