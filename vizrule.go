// Package vizrule binds natural-language propositions about tabular
// datasets to concrete chart specifications.
//
// Usage:
//
//	import "github.com/vizrule-org/vizrule/orchestrator"
//
//	orc := orchestrator.New(orchestrator.DefaultConfig(), datasets, collab, logger)
//	report, err := orc.Run(ctx, propositions)
//
// The pipeline classifies each dataset column into semantic roles, matches
// chart templates against the classified fields, filters out degenerate
// matches, selects a chart variant per proposition (2D/3D, mean/threshold
// overlay), and derives the query shape a retrieval step must satisfy.
//
// The generative-text collaborator is handled by the translator package.
// Everything else is local and deterministic. When the collaborator fails
// or returns malformed output, the engine's own rules take over per item.
package vizrule
