package tablemap

import (
	"go.uber.org/zap"

	"github.com/tsawler/tablemap/merge"
	"github.com/tsawler/tablemap/tables"
)

// pipelineOptions holds the configuration accumulated by the fluent
// methods on Pipeline.
type pipelineOptions struct {
	// pages to process (1-indexed); empty means all pages
	pages []int

	// detectors to run, in chain order
	detectors []string

	config      tables.Config
	mergeConfig merge.Config
	merging     bool

	// workers bounds page-level detection concurrency
	workers int

	logger *zap.Logger
}

func defaultOptions() pipelineOptions {
	return pipelineOptions{
		detectors:   []string{"bordered", "spatial", "alignment"},
		config:      tables.DefaultConfig(),
		mergeConfig: merge.DefaultConfig(),
		merging:     true,
		workers:     4,
		logger:      zap.NewNop(),
	}
}

// clone creates a deep copy of the options.
func (o pipelineOptions) clone() pipelineOptions {
	copied := o
	copied.pages = append([]int(nil), o.pages...)
	copied.detectors = append([]string(nil), o.detectors...)
	return copied
}

func (o pipelineOptions) withoutDetector(name string) pipelineOptions {
	kept := make([]string, 0, len(o.detectors))
	for _, d := range o.detectors {
		if d != name {
			kept = append(kept, d)
		}
	}
	o.detectors = kept
	return o
}
