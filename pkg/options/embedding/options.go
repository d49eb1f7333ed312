// Package embeddingopts provides options for embedding provider configuration.
package embeddingopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/lontok/kala-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains embedding provider configuration.
type Options struct {
	// Provider is the embedding provider name (ollama, ...).
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL is the provider API base URL.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// Model is the embedding model name.
	Model string `json:"model" mapstructure:"model"`

	// Dimension is the expected embedding vector dimension.
	Dimension int `json:"dimension" mapstructure:"dimension"`

	// BatchSize is the maximum number of texts per embedding call.
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`

	// Timeout is the per-call timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the maximum transport-level retries inside the provider.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewOptions creates new Options with defaults.
// nomic-embed-text is the original deployment's embedding model (768 dims).
func NewOptions() *Options {
	return &Options{
		Provider:   "ollama",
		BaseURL:    "http://localhost:11434",
		Model:      "nomic-embed-text",
		Dimension:  768,
		BatchSize:  32,
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.StringVar(&o.Provider, join+"embedding.provider", o.Provider, "Embedding provider name.")
	fs.StringVar(&o.BaseURL, join+"embedding.base-url", o.BaseURL, "Embedding API base URL.")
	fs.StringVar(&o.Model, join+"embedding.model", o.Model, "Embedding model name.")
	fs.IntVar(&o.Dimension, join+"embedding.dimension", o.Dimension, "Embedding vector dimension.")
	fs.IntVar(&o.BatchSize, join+"embedding.batch-size", o.BatchSize, "Maximum texts per embedding call.")
	fs.DurationVar(&o.Timeout, join+"embedding.timeout", o.Timeout, "Embedding request timeout.")
	fs.IntVar(&o.MaxRetries, join+"embedding.max-retries", o.MaxRetries, "Embedding transport retries.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("embedding.provider is required"))
	}
	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("embedding.base-url is required"))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("embedding.model is required"))
	}
	if o.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimension must be positive"))
	}
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embedding.batch-size must be positive"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("embedding.timeout must be positive"))
	}
	return errs
}

// ToConfigMap converts the options into a provider factory config map.
func (o *Options) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":    o.BaseURL,
		"embed_model": o.Model,
		"timeout":     o.Timeout,
		"max_retries": o.MaxRetries,
	}
}
