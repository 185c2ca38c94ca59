package tablemap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tsawler/tablemap/merge"
	"github.com/tsawler/tablemap/model"
	"github.com/tsawler/tablemap/structmap"
	"github.com/tsawler/tablemap/tables"
)

// Warning describes a non-fatal problem encountered while processing.
// Processing continues past warnings; the affected page or table may be
// missing or incomplete in the result.
type Warning struct {
	Page    int
	Stage   string
	Message string
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("%s (page %d): %s", w.Stage, w.Page, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// FormatWarnings renders warnings one per line for logging.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// Pipeline provides a fluent interface for detecting tables in a
// structure map. Each configuration method returns a new Pipeline
// instance, making a configured pipeline safe to reuse concurrently.
type Pipeline struct {
	pages []*model.Page

	options pipelineOptions

	// Accumulated error (fail-fast)
	err error

	// Warnings accumulated before the terminal operation runs
	warnings []Warning
}

// clone creates a shallow copy of the Pipeline with a deep copy of
// options. Each chain method returns a new instance.
func (p *Pipeline) clone() *Pipeline {
	return &Pipeline{
		pages:    p.pages,
		options:  p.options.clone(),
		err:      p.err,
		warnings: append([]Warning(nil), p.warnings...),
	}
}

// Pages restricts processing to the given pages (1-indexed). Multiple
// calls are cumulative.
//
// Example:
//
//	tables, _, err := tablemap.Load("report.json").Pages(1, 3, 5).Tables()
func (p *Pipeline) Pages(pages ...int) *Pipeline {
	np := p.clone()
	np.options.pages = append(np.options.pages, pages...)
	return np
}

// PageRange restricts processing to a page range (1-indexed, inclusive).
func (p *Pipeline) PageRange(start, end int) *Pipeline {
	np := p.clone()
	for i := start; i <= end; i++ {
		np.options.pages = append(np.options.pages, i)
	}
	return np
}

// WithoutBordered disables ruled-grid detection. Cross-page merging is
// defined only for bordered tables, so disabling this also means nothing
// merges.
func (p *Pipeline) WithoutBordered() *Pipeline {
	np := p.clone()
	np.options = np.options.withoutDetector("bordered")
	return np
}

// WithoutSpatial disables whitespace-gap detection, keeping only ruled
// grids and alignment fallback.
func (p *Pipeline) WithoutSpatial() *Pipeline {
	np := p.clone()
	np.options = np.options.withoutDetector("spatial")
	return np
}

// WithoutAlignmentOnly disables the alignment fallback detector, the
// strategy most prone to false positives on prose-heavy pages.
//
// Example:
//
//	tables, _, err := tablemap.FromMap(sm).WithoutAlignmentOnly().Tables()
func (p *Pipeline) WithoutAlignmentOnly() *Pipeline {
	np := p.clone()
	np.options = np.options.withoutDetector("alignment")
	return np
}

// WithoutMerge disables cross-page merging; every detected table stays a
// single-page table.
func (p *Pipeline) WithoutMerge() *Pipeline {
	np := p.clone()
	np.options.merging = false
	return np
}

// WithConfig replaces the detection configuration.
func (p *Pipeline) WithConfig(config tables.Config) *Pipeline {
	np := p.clone()
	np.options.config = config
	return np
}

// WithMergeConfig replaces the cross-page merge thresholds.
func (p *Pipeline) WithMergeConfig(config merge.Config) *Pipeline {
	np := p.clone()
	np.options.mergeConfig = config
	return np
}

// WithWorkers sets the number of pages detected concurrently.
func (p *Pipeline) WithWorkers(n int) *Pipeline {
	np := p.clone()
	if n < 1 {
		n = 1
	}
	np.options.workers = n
	return np
}

// WithLogger attaches a logger for detection and merge diagnostics.
func (p *Pipeline) WithLogger(log *zap.Logger) *Pipeline {
	np := p.clone()
	if log == nil {
		log = zap.NewNop()
	}
	np.options.logger = log
	return np
}

// PageCount returns the number of pages loaded into the pipeline.
func (p *Pipeline) PageCount() (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	return len(p.pages), nil
}

// Tables runs detection and merging and returns the logical tables in
// document order. This is a terminal operation.
//
// Returns the tables, any warnings encountered during processing, and an
// error if the pipeline could not run at all. Warnings indicate non-fatal
// issues, such as a malformed page that was skipped.
//
// Example:
//
//	result, warnings, err := tablemap.Load("report.json").Pages(1, 2, 3).Tables()
//	if len(warnings) > 0 {
//	    log.Println(tablemap.FormatWarnings(warnings))
//	}
func (p *Pipeline) Tables() ([]model.LogicalTable, []Warning, error) {
	if p.err != nil {
		return nil, nil, p.err
	}
	warnings := append([]Warning(nil), p.warnings...)

	pages, err := p.resolvePages()
	if err != nil {
		return nil, warnings, err
	}

	detected, detectWarnings := p.detectAll(pages)
	warnings = append(warnings, detectWarnings...)

	if p.options.merging {
		return p.mergeAll(detected), warnings, nil
	}

	var out []model.LogicalTable
	for _, pt := range detected {
		for _, t := range pt.Tables {
			out = append(out, t)
		}
	}
	return out, warnings, nil
}

// resolvePages applies the page selection. Requested pages missing from
// the structure map are an error, matching the behavior of asking for a
// page a document does not have.
func (p *Pipeline) resolvePages() ([]*model.Page, error) {
	if len(p.options.pages) == 0 {
		return p.pages, nil
	}
	byNumber := make(map[int]*model.Page, len(p.pages))
	for _, page := range p.pages {
		byNumber[page.Number] = page
	}
	seen := make(map[int]bool)
	var selected []*model.Page
	for _, n := range p.options.pages {
		if seen[n] {
			continue
		}
		seen[n] = true
		page, ok := byNumber[n]
		if !ok {
			return nil, fmt.Errorf("page %d not present in structure map", n)
		}
		selected = append(selected, page)
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Number < selected[j].Number
	})
	return selected, nil
}

// pageResult carries one page's detection output back from a worker.
type pageResult struct {
	tables   merge.PageTables
	warnings []Warning
}

// detectAll runs the detector chain over the pages, fanning out across a
// bounded worker pool. Results come back in page order regardless of
// completion order.
func (p *Pipeline) detectAll(pages []*model.Page) ([]merge.PageTables, []Warning) {
	results := make([]pageResult, len(pages))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := p.options.workers
	if workers > len(pages) {
		workers = len(pages)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chain, err := p.buildChain()
			if err != nil {
				for i := range jobs {
					results[i] = pageResult{
						tables:   merge.PageTables{Page: pages[i]},
						warnings: []Warning{{Page: pages[i].Number, Stage: "detect", Message: err.Error()}},
					}
				}
				return
			}
			for i := range jobs {
				results[i] = p.detectPage(chain, pages[i])
			}
		}()
	}
	for i := range pages {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := make([]merge.PageTables, 0, len(pages))
	var warnings []Warning
	for _, r := range results {
		out = append(out, r.tables)
		warnings = append(warnings, r.warnings...)
	}
	return out, warnings
}

// buildChain constructs the configured detector chain and corrector.
// Detectors are per-worker; they hold configuration but chain state lives
// in the per-page claim set.
func (p *Pipeline) buildChain() ([]tables.Detector, error) {
	chain := make([]tables.Detector, 0, len(p.options.detectors))
	for _, name := range p.options.detectors {
		d, err := tables.NewDetector(name, p.options.config)
		if err != nil {
			return nil, err
		}
		chain = append(chain, d)
	}
	return chain, nil
}

// detectPage runs the chain over one page. Detectors run in order with a
// shared claim set, so later strategies never re-claim a region an
// earlier one consumed.
func (p *Pipeline) detectPage(chain []tables.Detector, page *model.Page) pageResult {
	result := pageResult{tables: merge.PageTables{Page: page}}

	corrector := tables.NewCorrector()
	if err := corrector.Configure(p.options.config); err != nil {
		result.warnings = append(result.warnings, Warning{Page: page.Number, Stage: "detect", Message: err.Error()})
		return result
	}

	claimed := tables.NewClaimSet()
	for _, d := range chain {
		found, err := d.Detect(page, claimed)
		if err != nil {
			result.warnings = append(result.warnings, Warning{
				Page:    page.Number,
				Stage:   d.Name(),
				Message: err.Error(),
			})
			continue
		}
		for _, t := range found {
			result.tables.Tables = append(result.tables.Tables, corrector.Apply(t))
		}
		p.options.logger.Debug("detector finished",
			zap.Int("page", page.Number),
			zap.String("detector", d.Name()),
			zap.Int("tables", len(found)))
	}
	sort.Slice(result.tables.Tables, func(i, j int) bool {
		return result.tables.Tables[i].BBox.Top < result.tables.Tables[j].BBox.Top
	})
	return result
}

func (p *Pipeline) mergeAll(detected []merge.PageTables) []model.LogicalTable {
	merger := merge.New(p.options.mergeConfig, p.options.logger)
	return merger.Merge(detected)
}

// loadWarnings converts per-page build failures into warnings. Malformed
// pages are skipped; anything else would have failed Parse outright.
func loadWarnings(errs []error) []Warning {
	var warnings []Warning
	for _, err := range errs {
		var malformed *structmap.MalformedInputError
		if errors.As(err, &malformed) {
			warnings = append(warnings, Warning{
				Page:    malformed.Page,
				Stage:   "load",
				Message: malformed.Detail,
			})
			continue
		}
		warnings = append(warnings, Warning{Stage: "load", Message: err.Error()})
	}
	return warnings
}
