// Package retrievalopts provides options for the retrieval path.
package retrievalopts

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/lontok/kala-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains retrieval configuration.
type Options struct {
	// TopK is the number of candidates requested from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// SimilarityThreshold is the minimum cosine similarity for a result
	// to be considered relevant.
	SimilarityThreshold float64 `json:"similarity-threshold" mapstructure:"similarity-threshold"`

	// MaxContextTokens bounds the assembled context string.
	MaxContextTokens int `json:"max-context-tokens" mapstructure:"max-context-tokens"`

	// Rerank enables the cosine re-scoring pass over search candidates.
	Rerank bool `json:"rerank" mapstructure:"rerank"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		TopK:                5,
		SimilarityThreshold: 0.7,
		MaxContextTokens:    3000,
		Rerank:              false,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.IntVar(&o.TopK, join+"retrieval.top-k", o.TopK, "Number of candidates from similarity search.")
	fs.Float64Var(&o.SimilarityThreshold, join+"retrieval.similarity-threshold", o.SimilarityThreshold, "Minimum cosine similarity for relevance.")
	fs.IntVar(&o.MaxContextTokens, join+"retrieval.max-context-tokens", o.MaxContextTokens, "Token budget for assembled context.")
	fs.BoolVar(&o.Rerank, join+"retrieval.rerank", o.Rerank, "Enable candidate re-scoring.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.top-k must be positive"))
	}
	if o.SimilarityThreshold < -1 || o.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("retrieval.similarity-threshold must be within [-1, 1]"))
	}
	if o.MaxContextTokens <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.max-context-tokens must be positive"))
	}
	return errs
}
