package orchestrator

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// CONFIG — Batch run configuration
// ============================================================================

// Defaults sized for the external rate limits of the generative service.
const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = time.Second
)

// GeminiConfig configures the generative collaborator.
type GeminiConfig struct {
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
}

// Config controls a batch run.
type Config struct {
	// BatchSize is the number of propositions processed concurrently.
	BatchSize int `yaml:"batch_size"`
	// BatchDelay is the pause between batches.
	BatchDelay time.Duration `yaml:"batch_delay"`
	// Offline skips the collaborator entirely and binds every proposition
	// through the deterministic path.
	Offline bool `yaml:"offline"`

	Gemini GeminiConfig `yaml:"gemini"`
}

// UnmarshalYAML decodes batch_delay from duration strings ("750ms", "2s").
// An absent batch_delay keeps whatever the Config already holds.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type alias struct {
		BatchSize  int          `yaml:"batch_size"`
		BatchDelay string       `yaml:"batch_delay"`
		Offline    bool         `yaml:"offline"`
		Gemini     GeminiConfig `yaml:"gemini"`
	}
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	if a.BatchSize != 0 {
		c.BatchSize = a.BatchSize
	}
	c.Offline = a.Offline
	c.Gemini = a.Gemini
	if a.BatchDelay != "" {
		d, err := time.ParseDuration(a.BatchDelay)
		if err != nil {
			return fmt.Errorf("batch_delay: %w", err)
		}
		c.BatchDelay = d
	}
	return nil
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() Config {
	return Config{
		BatchSize:  DefaultBatchSize,
		BatchDelay: DefaultBatchDelay,
	}
}

// LoadConfig reads a yaml config file, applies defaults, and lets the
// GEMINI_API_KEY environment variable override the file's key.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = DefaultBatchDelay
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
}
