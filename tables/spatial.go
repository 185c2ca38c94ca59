package tables

import (
	"math"
	"sort"

	"github.com/tsawler/tablemap/model"
)

func init() {
	RegisterDetector("spatial", func() Detector { return NewSpatialDetector() })
}

// SpatialDetector finds borderless tables from the whitespace between
// runs. Runs are clustered into visual rows, each row votes for the
// horizontal gaps it exhibits, and gap positions supported by enough rows
// become column boundaries. Pages whose gap votes never agree on a
// consistent set of boundaries yield no table rather than a bad one.
type SpatialDetector struct {
	config Config
}

// NewSpatialDetector returns a spatial detector with default settings.
func NewSpatialDetector() *SpatialDetector {
	return &SpatialDetector{config: DefaultConfig()}
}

// Name returns the detector name.
func (d *SpatialDetector) Name() string {
	return "spatial"
}

// Configure applies configuration options.
func (d *SpatialDetector) Configure(config Config) error {
	if err := validateConfig(config); err != nil {
		return err
	}
	d.config = config
	return nil
}

// Detect implements Detector. Region hints tagged for spatial extraction
// are tried first, then the rest of the page is scanned for untagged
// tables. Runs inside claimed regions are excluded rather than skipping
// whole candidate regions, so a borderless table below a ruled one is
// still found.
func (d *SpatialDetector) Detect(page *model.Page, claimed *ClaimSet) ([]*model.Table, error) {
	var tables []*model.Table
	for _, region := range hintRegions(page, model.KindSpatial) {
		if claimed.Claimed(region) {
			continue
		}
		t := d.detectRegion(page, region, claimed)
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

func hintRegions(page *model.Page, kind model.Kind) []model.BBox {
	var regions []model.BBox
	for _, h := range page.Hints {
		if h.Strategy == kind {
			regions = append(regions, h.BBox)
		}
	}
	return regions
}

func (d *SpatialDetector) detectRegion(page *model.Page, region model.BBox, claimed *ClaimSet) *model.Table {
	runs := claimed.FilterRuns(page.RunsIn(region, d.config.BandTolerance))
	rows := clusterRows(runs, d.config.RowTolerance)
	if len(rows) < d.config.MinRows {
		return nil
	}

	boundaries, ok := d.voteBoundaries(rows)
	if !ok || len(boundaries) < d.config.MinCols-1 {
		return nil
	}

	minX, maxX := runExtent(runs)
	colBounds := append([]float64{minX}, boundaries...)
	colBounds = append(colBounds, maxX)
	rowBounds := rowBoundaries(rows)

	t, err := model.NewTable(page.Number, page.Orientation(), model.KindSpatial,
		model.BandsFromBoundaries(rowBounds), model.BandsFromBoundaries(colBounds))
	if err != nil {
		return nil
	}
	assignRuns(t, runs)
	return t
}

// voteBoundaries collects per-row gap midpoints, clusters them, and keeps
// positions supported by at least GapVoteFraction of the rows. It returns
// ok=false when the surviving boundaries are inconsistent, meaning one of
// them cuts through the text of too many rows.
func (d *SpatialDetector) voteBoundaries(rows []textRow) ([]float64, bool) {
	var candidates []float64
	for _, row := range rows {
		threshold := d.gapThreshold(row)
		for i := 1; i < len(row.runs); i++ {
			gap := row.runs[i].BBox.X0 - row.runs[i-1].BBox.X1
			if gap >= threshold {
				candidates = append(candidates, row.runs[i-1].BBox.X1+gap/2)
			}
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	needed := int(math.Ceil(d.config.GapVoteFraction * float64(len(rows))))
	if needed < 1 {
		needed = 1
	}
	var boundaries []float64
	for _, c := range clusterValues(candidates, d.config.BandTolerance*2) {
		if c.support >= needed {
			boundaries = append(boundaries, c.center)
		}
	}
	sort.Float64s(boundaries)

	// A boundary slicing through runs in many rows means the gap votes
	// came from ragged prose, not columns.
	allowedCuts := len(rows) - needed
	for _, b := range boundaries {
		cuts := 0
		for _, row := range rows {
			for _, run := range row.runs {
				if run.BBox.X0 < b && b < run.BBox.X1 {
					cuts++
					break
				}
			}
		}
		if cuts > allowedCuts {
			return nil, false
		}
	}
	return boundaries, true
}

// gapThreshold derives a row's minimum column gap from its median
// character width, floored at MinGapWidth.
func (d *SpatialDetector) gapThreshold(row textRow) float64 {
	widths := make([]float64, 0, len(row.runs))
	for _, run := range row.runs {
		if w := run.CharWidth(); w > 0 {
			widths = append(widths, w)
		}
	}
	threshold := d.config.GapWidthRatio * median(widths)
	return math.Max(threshold, d.config.MinGapWidth)
}

func runExtent(runs []model.TextRun) (minX, maxX float64) {
	minX, maxX = math.Inf(1), math.Inf(-1)
	for _, run := range runs {
		minX = math.Min(minX, run.BBox.X0)
		maxX = math.Max(maxX, run.BBox.X1)
	}
	return minX, maxX
}
