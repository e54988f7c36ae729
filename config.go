package diligence

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dataroomhq/diligence/policy"
	"github.com/dataroomhq/diligence/service/agent"
	"github.com/dataroomhq/diligence/service/ingestion"
	oraclechain "github.com/dataroomhq/diligence/service/oracle/langchain"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from YAML, JSON or environment-driven loaders. The zero-value
// is useful – all nested fields inherit their package defaults.
type Config struct {
	// DataURL is the persistence root for documents, sessions and scratch
	// files. Empty keeps everything in memory.
	DataURL string `json:"dataURL" yaml:"dataURL"`

	// StoreURL is the object-store root for original files and page images.
	StoreURL string `json:"storeURL" yaml:"storeURL"`

	// PendingTTL auto-rejects approvals left undecided for this duration.
	// Zero disables expiry; deployments relying on zero must monitor paused
	// sessions themselves.
	PendingTTL time.Duration `json:"pendingTTL" yaml:"pendingTTL"`

	Ingestion ingestion.Config   `json:"ingestion" yaml:"ingestion"`
	Oracle    oraclechain.Config `json:"oracle" yaml:"oracle"`
	Agent     agent.Config       `json:"agent" yaml:"agent"`
	Policy    *policy.Config     `json:"policy,omitempty" yaml:"policy,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		StoreURL:  "mem://localhost/diligence",
		Ingestion: ingestion.DefaultConfig(),
		Oracle:    oraclechain.DefaultConfig(),
		Agent:     agent.DefaultConfig(),
	}
}

// Validate returns an aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.StoreURL == "" {
		return fmt.Errorf("storeURL must not be empty")
	}
	if c.PendingTTL < 0 {
		return fmt.Errorf("pendingTTL must not be negative")
	}
	if err := c.Agent.Validate(); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads a YAML configuration file, filling unset fields with
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %v: %w", path, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", path, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}
