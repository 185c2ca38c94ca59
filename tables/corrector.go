package tables

import (
	"github.com/tsawler/tablemap/model"
)

// Corrector repairs structural artifacts in a detected grid. All three
// passes are driven by cell occupancy, never by text content, so the
// corrections behave the same for any language or numbering scheme.
type Corrector struct {
	config Config
}

// NewCorrector returns a corrector with default settings.
func NewCorrector() *Corrector {
	return &Corrector{config: DefaultConfig()}
}

// Configure applies configuration options.
func (c *Corrector) Configure(config Config) error {
	if err := validateConfig(config); err != nil {
		return err
	}
	c.config = config
	return nil
}

// Apply runs the enabled corrections in place and returns the table.
// Applying twice changes nothing the second time.
func (c *Corrector) Apply(t *model.Table) *model.Table {
	if t == nil {
		return nil
	}
	if c.config.FixCenteredText {
		c.fixCenteredColumns(t)
	}
	if c.config.MergeWrappedRows {
		c.mergeWrappedRows(t)
	}
	if c.config.DetectSpans {
		c.detectSpans(t)
	}
	return t
}

// fixCenteredColumns merges adjacent column pairs that alternate: centered
// headers over narrow columns can split one logical column into two, with
// each row populating only one of the pair. Merging repeats until no pair
// qualifies, so a column split three ways collapses fully.
func (c *Corrector) fixCenteredColumns(t *model.Table) {
	for {
		ci := c.findCenteredPair(t)
		if ci < 0 {
			return
		}
		t.RemoveColBand(ci)
	}
}

func (c *Corrector) findCenteredPair(t *model.Table) int {
	rows, cols := t.RowCount(), t.ColCount()
	if cols <= c.config.MinCols {
		return -1
	}
	tableWidth := t.BBox.Width()
	for ci := 0; ci+1 < cols; ci++ {
		pairWidth := t.ColBands[ci].Width() + t.ColBands[ci+1].Width()
		if pairWidth > c.config.MaxMergedWidthRatio*tableWidth {
			continue
		}
		exclusive, both := 0, 0
		for ri := 0; ri < rows; ri++ {
			left := t.Cell(ri, ci) != nil
			right := t.Cell(ri, ci+1) != nil
			switch {
			case left && right:
				both++
			case left || right:
				exclusive++
			}
		}
		if both == 0 && float64(exclusive) > c.config.CenteredFixFraction*float64(rows) {
			return ci
		}
	}
	return -1
}

// mergeWrappedRows folds continuation lines back into the row above. A row
// is a continuation when it populates only columns already populated
// above, fills under WrapColumnFraction of the columns, and sits within
// one median row height of the row above.
func (c *Corrector) mergeWrappedRows(t *model.Table) {
	ri := 1
	for ri < t.RowCount() {
		if t.RowCount() <= c.config.MinRows {
			return
		}
		if c.isWrappedRow(t, ri) {
			t.RemoveRowBand(ri - 1)
		} else {
			ri++
		}
	}
}

func (c *Corrector) isWrappedRow(t *model.Table, ri int) bool {
	cols := t.ColCount()
	populated := 0
	for ci := 0; ci < cols; ci++ {
		if t.Cell(ri, ci) == nil {
			continue
		}
		populated++
		if t.Cell(ri-1, ci) == nil {
			return false
		}
	}
	if populated == 0 || float64(populated) >= c.config.WrapColumnFraction*float64(cols) {
		return false
	}
	gap := t.RowBands[ri].Min - t.RowBands[ri-1].Max
	return gap < medianRowHeight(t)
}

func medianRowHeight(t *model.Table) float64 {
	heights := make([]float64, len(t.RowBands))
	for i, b := range t.RowBands {
		heights[i] = b.Width()
	}
	return median(heights)
}

// detectSpans records merged cells. A cell whose content reaches past a
// band boundary by more than SpanCoverageFraction of the neighboring
// band's width, with that neighbor empty, is extended to cover it.
func (c *Corrector) detectSpans(t *model.Table) {
	for _, idx := range t.Cells() {
		cell := t.Cell(idx.Row, idx.Col)
		if cell == nil || cell.RowSpan > 1 || cell.ColSpan > 1 {
			continue
		}
		box := cell.BBox()
		colSpan := c.spanExtent(box.X1, t.ColBands, idx.Col, func(k int) bool {
			return t.Cell(idx.Row, k) == nil && !c.covered(t, idx.Row, k)
		})
		rowSpan := c.spanExtent(box.Bottom, t.RowBands, idx.Row, func(k int) bool {
			return t.Cell(k, idx.Col) == nil && !c.covered(t, k, idx.Col)
		})
		if rowSpan > 1 || colSpan > 1 {
			// Ignore conflicts with spans recorded earlier in the scan.
			_ = t.SetSpan(idx.Row, idx.Col, rowSpan, colSpan)
		}
	}
}

// spanExtent walks bands after index start while the content edge reaches
// far enough into each and the candidate cell is free.
func (c *Corrector) spanExtent(edge float64, bands []model.Band, start int, free func(int) bool) int {
	span := 1
	for k := start + 1; k < len(bands); k++ {
		reach := bands[k].Min + c.config.SpanCoverageFraction*bands[k].Width()
		if edge < reach || !free(k) {
			break
		}
		span++
	}
	return span
}

func (c *Corrector) covered(t *model.Table, ri, ci int) bool {
	_, ok := t.CoveredBy(ri, ci)
	return ok
}
