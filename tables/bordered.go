package tables

import (
	"math"
	"sort"

	"github.com/tsawler/tablemap/model"
)

func init() {
	RegisterDetector("bordered", func() Detector { return NewBorderedDetector() })
}

// BorderedDetector finds tables delimited by drawn ruling lines. It groups
// collinear ruling fragments, intersects the horizontal and vertical
// groups, and keeps only grid cells closed on at least three sides, so a
// page-width divider or a boxed heading does not become a table.
type BorderedDetector struct {
	config Config
}

// NewBorderedDetector returns a bordered detector with default settings.
func NewBorderedDetector() *BorderedDetector {
	return &BorderedDetector{config: DefaultConfig()}
}

// Name returns the detector name.
func (d *BorderedDetector) Name() string {
	return "bordered"
}

// Configure applies configuration options.
func (d *BorderedDetector) Configure(config Config) error {
	if err := validateConfig(config); err != nil {
		return err
	}
	d.config = config
	return nil
}

// rulingGroup is a set of collinear ruling fragments merged into one
// logical line: a position on the perpendicular axis and the covered
// extent along the parallel axis.
type rulingGroup struct {
	pos      float64
	min, max float64
}

// covers reports whether the group spans [lo, hi] within tolerance.
func (g rulingGroup) covers(lo, hi, tol float64) bool {
	return g.min <= lo+tol && g.max >= hi-tol
}

// Detect implements Detector.
func (d *BorderedDetector) Detect(page *model.Page, claimed *ClaimSet) ([]*model.Table, error) {
	tol := d.config.BandTolerance
	var horiz, vert []model.Ruling
	for _, r := range page.Rulings {
		if r.Length() < d.config.MinRulingLength {
			continue
		}
		if r.IsHorizontal() {
			horiz = append(horiz, r)
		} else {
			vert = append(vert, r)
		}
	}
	hGroups := groupRulings(horiz, tol)
	vGroups := groupRulings(vert, tol)
	if len(hGroups) < 2 || len(vGroups) < 2 {
		return nil, nil
	}

	cells := closedCells(hGroups, vGroups, tol)
	if len(cells) == 0 {
		return nil, nil
	}

	var tables []*model.Table
	for _, component := range groupCells(cells, tol) {
		t, err := d.buildTable(page, component, claimed)
		if err != nil || t == nil {
			continue
		}
		claimed.Claim(t.BBox)
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].BBox.Top < tables[j].BBox.Top
	})
	return tables, nil
}

// groupRulings merges collinear fragments whose positions cluster within
// tolerance. Extents of merged fragments are unioned, so a line drawn as
// several dashes still covers its full span.
func groupRulings(rulings []model.Ruling, tolerance float64) []rulingGroup {
	if len(rulings) == 0 {
		return nil
	}
	sorted := make([]model.Ruling, len(rulings))
	copy(sorted, rulings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Position() < sorted[j].Position()
	})

	var groups []rulingGroup
	lo, hi := sorted[0].Extent()
	current := rulingGroup{pos: sorted[0].Position(), min: lo, max: hi}
	positions := []float64{sorted[0].Position()}
	for _, r := range sorted[1:] {
		if r.Position()-positions[len(positions)-1] <= tolerance {
			lo, hi = r.Extent()
			current.min = math.Min(current.min, lo)
			current.max = math.Max(current.max, hi)
			positions = append(positions, r.Position())
		} else {
			current.pos = mean(positions)
			groups = append(groups, current)
			lo, hi = r.Extent()
			current = rulingGroup{pos: r.Position(), min: lo, max: hi}
			positions = []float64{r.Position()}
		}
	}
	current.pos = mean(positions)
	groups = append(groups, current)
	return groups
}

// gridCell is a candidate cell bounded by adjacent ruling positions.
type gridCell struct {
	x0, top, x1, bottom float64
}

// closedCells enumerates the rectangles between adjacent ruling positions
// and keeps those with at least three drawn edges.
func closedCells(hGroups, vGroups []rulingGroup, tol float64) []gridCell {
	xs := make([]float64, len(vGroups))
	for i, g := range vGroups {
		xs[i] = g.pos
	}
	ys := make([]float64, len(hGroups))
	for i, g := range hGroups {
		ys[i] = g.pos
	}
	sort.Float64s(xs)
	sort.Float64s(ys)

	var cells []gridCell
	for yi := 0; yi+1 < len(ys); yi++ {
		for xi := 0; xi+1 < len(xs); xi++ {
			c := gridCell{x0: xs[xi], top: ys[yi], x1: xs[xi+1], bottom: ys[yi+1]}
			edges := 0
			if hasEdge(hGroups, c.top, c.x0, c.x1, tol) {
				edges++
			}
			if hasEdge(hGroups, c.bottom, c.x0, c.x1, tol) {
				edges++
			}
			if hasEdge(vGroups, c.x0, c.top, c.bottom, tol) {
				edges++
			}
			if hasEdge(vGroups, c.x1, c.top, c.bottom, tol) {
				edges++
			}
			if edges >= 3 {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// hasEdge reports whether some group sits at pos and covers [lo, hi].
func hasEdge(groups []rulingGroup, pos, lo, hi, tol float64) bool {
	for _, g := range groups {
		if math.Abs(g.pos-pos) <= tol && g.covers(lo, hi, tol) {
			return true
		}
	}
	return false
}

// groupCells partitions cells into connected components. Two cells connect
// when they share an edge or corner within tolerance, so one page holding
// two separate bordered tables yields two components.
func groupCells(cells []gridCell, tol float64) [][]gridCell {
	parent := make([]int, len(cells))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		parent[find(a)] = find(b)
	}

	for i := 0; i < len(cells); i++ {
		for j := i + 1; j < len(cells); j++ {
			if cellsTouch(cells[i], cells[j], tol) {
				union(i, j)
			}
		}
	}

	byRoot := map[int][]gridCell{}
	for i, c := range cells {
		root := find(i)
		byRoot[root] = append(byRoot[root], c)
	}
	components := make([][]gridCell, 0, len(byRoot))
	for _, group := range byRoot {
		components = append(components, group)
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i][0].top < components[j][0].top
	})
	return components
}

func cellsTouch(a, b gridCell, tol float64) bool {
	if a.x0 > b.x1+tol || b.x0 > a.x1+tol {
		return false
	}
	if a.top > b.bottom+tol || b.top > a.bottom+tol {
		return false
	}
	return true
}

// buildTable converts one connected cell component into a table, assigning
// the page's runs by centroid. Components smaller than the configured
// minimum grid, or overlapping an already claimed region, yield nil.
func (d *BorderedDetector) buildTable(page *model.Page, component []gridCell, claimed *ClaimSet) (*model.Table, error) {
	tol := d.config.BandTolerance

	var xVals, yVals []float64
	for _, c := range component {
		xVals = append(xVals, c.x0, c.x1)
		yVals = append(yVals, c.top, c.bottom)
	}
	colBounds := clusterCenters(xVals, tol)
	rowBounds := clusterCenters(yVals, tol)
	if len(rowBounds) < d.config.MinRows+1 || len(colBounds) < d.config.MinCols+1 {
		return nil, nil
	}

	rowBands := model.BandsFromBoundaries(rowBounds)
	colBands := model.BandsFromBoundaries(colBounds)
	t, err := model.NewTable(page.Number, page.Orientation(), model.KindBordered, rowBands, colBands)
	if err != nil {
		return nil, err
	}
	if claimed.Claimed(t.BBox) {
		return nil, nil
	}
	assignRuns(t, claimed.FilterRuns(page.RunsIn(t.BBox, tol)))
	return t, nil
}

func clusterCenters(values []float64, tolerance float64) []float64 {
	clusters := clusterValues(values, tolerance)
	centers := make([]float64, len(clusters))
	for i, c := range clusters {
		centers[i] = c.center
	}
	return centers
}
