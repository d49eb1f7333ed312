// Package ingestopts provides options for the ingestion pipeline.
package ingestopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/lontok/kala-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains ingestion pipeline configuration.
type Options struct {
	// ChunkSize is the chunk window size in tokens.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the overlap between consecutive chunks in tokens.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// Workers is the number of concurrent document workers for batch ingestion.
	Workers int `json:"workers" mapstructure:"workers"`

	// MaxFileSize is the maximum accepted source file size in bytes.
	MaxFileSize int64 `json:"max-file-size" mapstructure:"max-file-size"`

	// MaxRetries bounds embedding/index retry attempts per document.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// RetryInitialInterval is the initial backoff interval between retries.
	RetryInitialInterval time.Duration `json:"retry-initial-interval" mapstructure:"retry-initial-interval"`
}

// NewOptions creates new Options with defaults.
// Chunk defaults match the original deployment (1000-token windows, 200 overlap).
func NewOptions() *Options {
	return &Options{
		ChunkSize:            1000,
		ChunkOverlap:         200,
		Workers:              4,
		MaxFileSize:          50 * 1024 * 1024,
		MaxRetries:           3,
		RetryInitialInterval: 500 * time.Millisecond,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.IntVar(&o.ChunkSize, join+"ingest.chunk-size", o.ChunkSize, "Chunk window size in tokens.")
	fs.IntVar(&o.ChunkOverlap, join+"ingest.chunk-overlap", o.ChunkOverlap, "Overlap between chunks in tokens.")
	fs.IntVar(&o.Workers, join+"ingest.workers", o.Workers, "Concurrent document workers for batch ingestion.")
	fs.Int64Var(&o.MaxFileSize, join+"ingest.max-file-size", o.MaxFileSize, "Maximum source file size in bytes.")
	fs.IntVar(&o.MaxRetries, join+"ingest.max-retries", o.MaxRetries, "Retry attempts for embedding/index failures.")
	fs.DurationVar(&o.RetryInitialInterval, join+"ingest.retry-initial-interval", o.RetryInitialInterval, "Initial retry backoff interval.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.chunk-size must be positive"))
	}
	if o.ChunkOverlap <= 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest.chunk-overlap must satisfy 0 < overlap < chunk-size"))
	}
	if o.Workers <= 0 {
		errs = append(errs, fmt.Errorf("ingest.workers must be positive"))
	}
	if o.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.max-file-size must be positive"))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("ingest.max-retries must be non-negative"))
	}
	return errs
}
