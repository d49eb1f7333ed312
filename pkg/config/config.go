// Package config provides engine configuration loading and hot reload.
//
// Configuration is read from a YAML file via viper, unmarshalled into the
// aggregate Config, and validated section by section. The Watcher notifies
// subscribers when the file changes on disk.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/lontok/kala-rag/pkg/options"
	embeddingopts "github.com/lontok/kala-rag/pkg/options/embedding"
	indexopts "github.com/lontok/kala-rag/pkg/options/index"
	ingestopts "github.com/lontok/kala-rag/pkg/options/ingest"
	logopts "github.com/lontok/kala-rag/pkg/options/logger"
	milvusopts "github.com/lontok/kala-rag/pkg/options/milvus"
	retrievalopts "github.com/lontok/kala-rag/pkg/options/retrieval"
)

// Config aggregates all engine configuration sections.
type Config struct {
	Log       *logopts.Options       `json:"log" mapstructure:"log"`
	Milvus    *milvusopts.Options    `json:"milvus" mapstructure:"milvus"`
	Embedding *embeddingopts.Options `json:"embedding" mapstructure:"embedding"`
	Index     *indexopts.Options     `json:"index" mapstructure:"index"`
	Ingest    *ingestopts.Options    `json:"ingest" mapstructure:"ingest"`
	Retrieval *retrievalopts.Options `json:"retrieval" mapstructure:"retrieval"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Log:       logopts.NewOptions(),
		Milvus:    milvusopts.NewOptions(),
		Embedding: embeddingopts.NewOptions(),
		Index:     indexopts.NewOptions(),
		Ingest:    ingestopts.NewOptions(),
		Retrieval: retrievalopts.NewOptions(),
	}
}

// Validate validates every configuration section.
func (c *Config) Validate() []error {
	var errs []error
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, opt := range []options.IOptions{c.Milvus, c.Embedding, c.Index, c.Ingest, c.Retrieval} {
		errs = append(errs, opt.Validate()...)
	}

	// The index collection stores vectors produced by the embedding model;
	// their dimensions must agree.
	if c.Embedding.Dimension != c.Index.Dimension {
		errs = append(errs, fmt.Errorf(
			"embedding.dimension (%d) must match index.dimension (%d)",
			c.Embedding.Dimension, c.Index.Dimension))
	}
	return errs
}

// Load reads the configuration file at path, applies it over defaults and
// validates the result. Environment variables prefixed with KALA_RAG
// override file values (dots and dashes map to underscores).
func Load(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("KALA_RAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("invalid configuration: %v", errs)
	}

	return cfg, v, nil
}
