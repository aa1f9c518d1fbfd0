package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vizrule-org/vizrule/engine"
)

// propositionDocument is the wrapped form: propositions grouped per dataset.
type propositionDocument struct {
	Datasets []struct {
		DatasetID    string               `json:"datasetId"`
		Propositions []engine.Proposition `json:"propositions"`
	} `json:"datasets"`
}

// LoadPropositions reads a proposition file. Both a bare JSON array and the
// per-dataset wrapped document are accepted; wrapped entries inherit their
// group's dataset id when their own is empty.
func LoadPropositions(path string) ([]engine.Proposition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading propositions: %w", err)
	}
	return ParsePropositions(raw)
}

// ParsePropositions parses raw proposition JSON.
func ParsePropositions(raw []byte) ([]engine.Proposition, error) {
	var flat []engine.Proposition
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var doc propositionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing propositions: %w", err)
	}

	var props []engine.Proposition
	for _, group := range doc.Datasets {
		for _, p := range group.Propositions {
			if p.DatasetID == "" {
				p.DatasetID = group.DatasetID
			}
			props = append(props, p)
		}
	}
	return props, nil
}
