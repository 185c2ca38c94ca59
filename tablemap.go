// Package tablemap recovers table structure from document structure maps:
// JSON descriptions of positioned text runs, ruling lines, and rectangles
// produced by a layout analysis pass over a paginated document.
//
// The entry points return a Pipeline with a fluent configuration
// interface:
//
//	result, warnings, err := tablemap.Load("report.json").
//	    Pages(1, 2, 3).
//	    WithoutAlignmentOnly().
//	    Tables()
//
// Detection runs three strategies per page, in order of evidence
// strength: ruled grids, whitespace columns, recurring alignment. Tables
// that continue across page breaks are joined when the layout evidence
// supports it; see the merge package for the acceptance rules.
package tablemap

import (
	"fmt"

	"github.com/tsawler/tablemap/model"
	"github.com/tsawler/tablemap/structmap"
)

// Load reads a structure map file and returns a Pipeline for it. Errors
// are deferred to the terminal operation, allowing call chaining.
//
// Example:
//
//	tables, warnings, err := tablemap.Load("report.json").Tables()
func Load(path string) *Pipeline {
	m, err := structmap.Load(path)
	if err != nil {
		return &Pipeline{options: defaultOptions(), err: fmt.Errorf("loading structure map: %w", err)}
	}
	return FromMap(m)
}

// FromMap returns a Pipeline over an already parsed structure map. Pages
// that fail validation are skipped and reported as warnings by the
// terminal operation.
func FromMap(m *structmap.Map) *Pipeline {
	if m == nil {
		return &Pipeline{options: defaultOptions(), err: fmt.Errorf("nil structure map")}
	}
	pages, errs := m.BuildPages()
	return &Pipeline{
		pages:    pages,
		options:  defaultOptions(),
		warnings: loadWarnings(errs),
	}
}

// FromPages returns a Pipeline over pages built by other means, useful
// for callers that construct model pages directly.
func FromPages(pages []*model.Page) *Pipeline {
	return &Pipeline{pages: pages, options: defaultOptions()}
}
