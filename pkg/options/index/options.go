// Package indexopts provides options for the vector index.
package indexopts

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/lontok/kala-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains vector index configuration.
type Options struct {
	// Collection is the vector collection name.
	Collection string `json:"collection" mapstructure:"collection"`

	// Dimension is the vector dimension the collection is created with.
	Dimension int `json:"dimension" mapstructure:"dimension"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Collection: "rag_documents",
		Dimension:  768,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.StringVar(&o.Collection, join+"index.collection", o.Collection, "Vector collection name.")
	fs.IntVar(&o.Dimension, join+"index.dimension", o.Dimension, "Vector dimension of the collection.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("index.collection is required"))
	}
	if o.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("index.dimension must be positive"))
	}
	return errs
}
