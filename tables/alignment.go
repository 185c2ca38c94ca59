package tables

import (
	"math"
	"sort"

	"github.com/tsawler/tablemap/model"
)

func init() {
	RegisterDetector("alignment", func() Detector { return NewAlignmentDetector() })
}

// AlignmentDetector is the last-resort strategy for tables with neither
// rulings nor reliable whitespace gaps. It looks for x positions where
// runs start across a recurring share of rows and treats those starts as
// column boundaries. Region hints that carry explicit separator positions
// bypass the voting and use the separators directly.
type AlignmentDetector struct {
	config Config
}

// NewAlignmentDetector returns an alignment detector with default settings.
func NewAlignmentDetector() *AlignmentDetector {
	return &AlignmentDetector{config: DefaultConfig()}
}

// Name returns the detector name.
func (d *AlignmentDetector) Name() string {
	return "alignment"
}

// Configure applies configuration options.
func (d *AlignmentDetector) Configure(config Config) error {
	if err := validateConfig(config); err != nil {
		return err
	}
	d.config = config
	return nil
}

// Detect implements Detector.
func (d *AlignmentDetector) Detect(page *model.Page, claimed *ClaimSet) ([]*model.Table, error) {
	var tables []*model.Table
	for _, h := range page.Hints {
		if h.Strategy != model.KindAlignmentOnly || len(h.Separators) == 0 {
			continue
		}
		if claimed.Claimed(h.BBox) {
			continue
		}
		t := d.fromSeparators(page, h, claimed)
		if t == nil {
			continue
		}
		claimed.Claim(t.BBox)
		tables = append(tables, t)
	}

	t := d.detectRegion(page, model.NewBBox(0, 0, page.Width, page.Height), claimed)
	if t != nil {
		claimed.Claim(t.BBox)
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].BBox.Top < tables[j].BBox.Top
	})
	return tables, nil
}

// fromSeparators builds a table bounded by a hint region using the hint's
// pre-computed column separators.
func (d *AlignmentDetector) fromSeparators(page *model.Page, h model.RegionHint, claimed *ClaimSet) *model.Table {
	runs := claimed.FilterRuns(page.RunsIn(h.BBox, d.config.BandTolerance))
	rows := clusterRows(runs, d.config.RowTolerance)
	if len(rows) < d.config.MinRows {
		return nil
	}

	seps := make([]float64, 0, len(h.Separators))
	for _, s := range h.Separators {
		if s > h.BBox.X0+d.config.BandTolerance && s < h.BBox.X1-d.config.BandTolerance {
			seps = append(seps, s)
		}
	}
	sort.Float64s(seps)
	colBounds := append([]float64{h.BBox.X0}, seps...)
	colBounds = append(colBounds, h.BBox.X1)
	if len(colBounds) < d.config.MinCols+1 {
		return nil
	}

	t, err := model.NewTable(page.Number, page.Orientation(), model.KindAlignmentOnly,
		model.BandsFromBoundaries(rowBoundaries(rows)), model.BandsFromBoundaries(colBounds))
	if err != nil {
		return nil
	}
	assignRuns(t, runs)
	return t
}

// detectRegion votes on recurring run start positions. A start position
// seen in at least AlignVoteFraction of the rows becomes a column
// boundary; anything less stays prose.
func (d *AlignmentDetector) detectRegion(page *model.Page, region model.BBox, claimed *ClaimSet) *model.Table {
	runs := claimed.FilterRuns(page.RunsIn(region, d.config.BandTolerance))
	rows := clusterRows(runs, d.config.RowTolerance)
	if len(rows) < d.config.MinAlignRows {
		return nil
	}

	// Each row votes once per distinct start position.
	var starts []float64
	multiRun := 0
	for _, row := range rows {
		if len(row.runs) > 1 {
			multiRun++
		}
		seen := map[float64]bool{}
		for _, run := range row.runs {
			key := math.Round(run.BBox.X0)
			if !seen[key] {
				seen[key] = true
				starts = append(starts, run.BBox.X0)
			}
		}
	}
	// Rows of single prose lines never outline columns.
	if multiRun*2 < len(rows) {
		return nil
	}

	needed := int(math.Ceil(d.config.AlignVoteFraction * float64(len(rows))))
	var colStarts []float64
	for _, c := range clusterValues(starts, d.config.BandTolerance*2) {
		if c.support >= needed {
			colStarts = append(colStarts, c.center)
		}
	}
	if len(colStarts) < d.config.MinCols {
		return nil
	}
	sort.Float64s(colStarts)

	_, maxX := runExtent(runs)
	colBounds := append(colStarts, maxX)

	t, err := model.NewTable(page.Number, page.Orientation(), model.KindAlignmentOnly,
		model.BandsFromBoundaries(rowBoundaries(rows)), model.BandsFromBoundaries(colBounds))
	if err != nil {
		return nil
	}
	assignRuns(t, runs)
	return t
}
