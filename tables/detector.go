package tables

import (
	"fmt"
	"math"
	"sort"

	"github.com/tsawler/tablemap/model"
)

// Detector is the interface implemented by all table detection strategies.
type Detector interface {
	// Detect analyzes a page and returns any tables found. The claimed set
	// records regions already consumed by earlier detectors in the chain;
	// Detect must ignore runs inside claimed regions and must claim the
	// footprint of every table it returns. Finding no tables is not an
	// error: Detect returns (nil, nil).
	Detect(page *model.Page, claimed *ClaimSet) ([]*model.Table, error)

	// Name returns the detector's registry name.
	Name() string

	// Configure applies configuration options to the detector.
	Configure(config Config) error
}

// Config holds tuning parameters shared by the detectors and the corrector.
type Config struct {
	// BandTolerance is the distance in points within which coordinate
	// values are clustered into a single band boundary.
	BandTolerance float64

	// MinRows and MinCols are the smallest grid accepted as a table.
	MinRows int
	MinCols int

	// MinRulingLength filters out decorative strokes before bordered
	// detection. Rulings shorter than this are ignored.
	MinRulingLength float64

	// GapWidthRatio scales the median character width of a row to obtain
	// that row's column-gap threshold. MinGapWidth is the floor applied to
	// the result.
	GapWidthRatio float64
	MinGapWidth   float64

	// GapVoteFraction is the fraction of rows that must exhibit a gap at
	// a candidate position before it becomes a column boundary.
	GapVoteFraction float64

	// RowTolerance is the vertical distance within which runs are grouped
	// into one text row.
	RowTolerance float64

	// MinAlignRows is the minimum number of rows required before
	// alignment-only detection will propose a table.
	MinAlignRows int

	// AlignVoteFraction is the fraction of rows that must start a run at
	// a candidate x position before it becomes a column start.
	AlignVoteFraction float64

	// FixCenteredText enables merging of adjacent column pairs produced
	// by centered headers. CenteredFixFraction is the fraction of rows
	// that must populate exactly one column of the pair, and
	// MaxMergedWidthRatio caps the combined width of a merged pair as a
	// fraction of the table width.
	FixCenteredText     bool
	CenteredFixFraction float64
	MaxMergedWidthRatio float64

	// MergeWrappedRows enables folding of continuation lines into the row
	// above. WrapColumnFraction is the largest fraction of columns a
	// continuation line may populate.
	MergeWrappedRows   bool
	WrapColumnFraction float64

	// DetectSpans enables merged-cell detection. SpanCoverageFraction is
	// how far into a neighboring band a cell's content must reach before
	// the cell is considered to span it.
	DetectSpans          bool
	SpanCoverageFraction float64

	// ClaimOverlapRatio is the overlap fraction above which a region
	// counts as already claimed by an earlier detector.
	ClaimOverlapRatio float64
}

// DefaultConfig returns a Config with sensible defaults for PDF-derived
// structure maps, where one point is 1/72 inch.
func DefaultConfig() Config {
	return Config{
		BandTolerance:        2.0,
		MinRows:              2,
		MinCols:              2,
		MinRulingLength:      8.0,
		GapWidthRatio:        1.0,
		MinGapWidth:          3.0,
		GapVoteFraction:      0.5,
		RowTolerance:         2.0,
		MinAlignRows:         3,
		AlignVoteFraction:    0.6,
		FixCenteredText:      true,
		CenteredFixFraction:  0.5,
		MaxMergedWidthRatio:  0.5,
		MergeWrappedRows:     true,
		WrapColumnFraction:   0.5,
		DetectSpans:          true,
		SpanCoverageFraction: 0.5,
		ClaimOverlapRatio:    0.25,
	}
}

func validateConfig(config Config) error {
	if config.BandTolerance <= 0 {
		return fmt.Errorf("band tolerance must be positive, got %v", config.BandTolerance)
	}
	if config.MinRows < 2 || config.MinCols < 2 {
		return fmt.Errorf("minimum grid is 2x2, got %dx%d", config.MinRows, config.MinCols)
	}
	if config.GapVoteFraction <= 0 || config.GapVoteFraction > 1 {
		return fmt.Errorf("gap vote fraction must be in (0, 1], got %v", config.GapVoteFraction)
	}
	if config.AlignVoteFraction <= 0 || config.AlignVoteFraction > 1 {
		return fmt.Errorf("alignment vote fraction must be in (0, 1], got %v", config.AlignVoteFraction)
	}
	return nil
}

// ClaimSet tracks page regions consumed by earlier detectors in a chain.
// The zero value is not usable; call NewClaimSet.
type ClaimSet struct {
	regions []model.BBox
	overlap float64
}

// NewClaimSet returns an empty claim set using the default overlap ratio.
func NewClaimSet() *ClaimSet {
	return &ClaimSet{overlap: DefaultConfig().ClaimOverlapRatio}
}

// Claim records a region as consumed.
func (s *ClaimSet) Claim(b model.BBox) {
	s.regions = append(s.regions, b)
}

// Claimed reports whether b overlaps a claimed region by more than the
// configured ratio of the smaller area.
func (s *ClaimSet) Claimed(b model.BBox) bool {
	for _, r := range s.regions {
		if r.OverlapRatio(b) > s.overlap {
			return true
		}
	}
	return false
}

// FilterRuns returns the runs whose centers fall outside every claimed
// region.
func (s *ClaimSet) FilterRuns(runs []model.TextRun) []model.TextRun {
	if len(s.regions) == 0 {
		return runs
	}
	out := make([]model.TextRun, 0, len(runs))
	for _, run := range runs {
		c := run.BBox.Center()
		inside := false
		for _, r := range s.regions {
			if r.Contains(c) {
				inside = true
				break
			}
		}
		if !inside {
			out = append(out, run)
		}
	}
	return out
}

// Regions returns a copy of the claimed regions.
func (s *ClaimSet) Regions() []model.BBox {
	out := make([]model.BBox, len(s.regions))
	copy(out, s.regions)
	return out
}

// DetectorRegistry maps detector names to constructors so pipelines can be
// assembled by name.
var DetectorRegistry = map[string]func() Detector{}

// RegisterDetector adds a detector constructor to the registry.
func RegisterDetector(name string, factory func() Detector) {
	DetectorRegistry[name] = factory
}

// NewDetector returns a configured detector by registry name.
func NewDetector(name string, config Config) (Detector, error) {
	factory, ok := DetectorRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown detector: %s", name)
	}
	d := factory()
	if err := d.Configure(config); err != nil {
		return nil, fmt.Errorf("configuring %s: %w", name, err)
	}
	return d, nil
}

// cluster is a group of nearby coordinate values.
type cluster struct {
	center  float64
	values  []float64
	support int
}

// clusterValues groups sorted or unsorted values whose neighbors lie within
// tolerance and returns one cluster per group, centered on the group mean.
func clusterValues(values []float64, tolerance float64) []cluster {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var clusters []cluster
	current := cluster{values: []float64{sorted[0]}}
	for _, v := range sorted[1:] {
		last := current.values[len(current.values)-1]
		if v-last <= tolerance {
			current.values = append(current.values, v)
		} else {
			clusters = append(clusters, finishCluster(current))
			current = cluster{values: []float64{v}}
		}
	}
	clusters = append(clusters, finishCluster(current))
	return clusters
}

func finishCluster(c cluster) cluster {
	c.center = mean(c.values)
	c.support = len(c.values)
	return c
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// textRow is a horizontal cluster of runs belonging to one visual line.
type textRow struct {
	runs        []model.TextRun
	top, bottom float64
}

// clusterRows groups runs into visual rows by vertical proximity of their
// top edges, then sorts each row left to right.
func clusterRows(runs []model.TextRun, tolerance float64) []textRow {
	if len(runs) == 0 {
		return nil
	}
	sorted := make([]model.TextRun, len(runs))
	copy(sorted, runs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BBox.Top < sorted[j].BBox.Top
	})

	var rows []textRow
	current := textRow{
		runs:   []model.TextRun{sorted[0]},
		top:    sorted[0].BBox.Top,
		bottom: sorted[0].BBox.Bottom,
	}
	for _, run := range sorted[1:] {
		if run.BBox.Top-current.top <= tolerance {
			current.runs = append(current.runs, run)
			current.bottom = math.Max(current.bottom, run.BBox.Bottom)
		} else {
			rows = append(rows, current)
			current = textRow{runs: []model.TextRun{run}, top: run.BBox.Top, bottom: run.BBox.Bottom}
		}
	}
	rows = append(rows, current)

	for i := range rows {
		row := rows[i]
		sort.Slice(row.runs, func(a, b int) bool {
			return row.runs[a].BBox.X0 < row.runs[b].BBox.X0
		})
	}
	return rows
}

// rowBoundaries derives non-overlapping row band edges from clustered rows.
// Between consecutive rows the boundary sits midway through the gap.
func rowBoundaries(rows []textRow) []float64 {
	bounds := make([]float64, 0, len(rows)+1)
	bounds = append(bounds, rows[0].top)
	for i := 1; i < len(rows); i++ {
		prev, next := rows[i-1].bottom, rows[i].top
		if next < prev {
			next = prev
		}
		bounds = append(bounds, (prev+next)/2)
	}
	bounds = append(bounds, rows[len(rows)-1].bottom)
	return bounds
}

// assignRuns places runs into a table's cells by centroid. Runs whose
// centroid falls outside the band grid go to the band with the greatest
// extent overlap.
func assignRuns(t *model.Table, runs []model.TextRun) {
	for _, run := range runs {
		ri := findBand(t.RowBands, run.BBox.Center().Y, run.BBox.Top, run.BBox.Bottom)
		ci := findBand(t.ColBands, run.BBox.Center().X, run.BBox.X0, run.BBox.X1)
		if ri < 0 || ci < 0 {
			continue
		}
		t.AddRun(ri, ci, run)
	}
}

// findBand returns the band containing center, or failing that the band
// with the greatest overlap against [lo, hi]. Returns -1 when the extent
// misses every band.
func findBand(bands []model.Band, center, lo, hi float64) int {
	for i, b := range bands {
		if b.Contains(center) {
			return i
		}
	}
	best, bestOverlap := -1, 0.0
	for i, b := range bands {
		overlap := math.Min(hi, b.Max) - math.Max(lo, b.Min)
		if overlap > bestOverlap {
			best, bestOverlap = i, overlap
		}
	}
	return best
}
