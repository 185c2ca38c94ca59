package model

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Kind identifies the detection strategy that produced a table.
type Kind int

const (
	KindBordered Kind = iota
	KindSpatial
	KindAlignmentOnly
)

func (k Kind) String() string {
	switch k {
	case KindBordered:
		return "bordered"
	case KindSpatial:
		return "spatial"
	case KindAlignmentOnly:
		return "alignment-only"
	default:
		return "unknown"
	}
}

// Band is an interval on one axis representing a single row or column of a
// table grid. Bands within a table are strictly ordered and non-overlapping.
type Band struct {
	Min, Max float64
}

// Width returns the band's extent.
func (b Band) Width() float64 {
	return b.Max - b.Min
}

// Center returns the band's midpoint.
func (b Band) Center() float64 {
	return (b.Min + b.Max) / 2
}

// Contains reports whether a coordinate falls inside the band.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// BandsFromBoundaries converts n+1 sorted boundary coordinates into n bands.
func BandsFromBoundaries(bounds []float64) []Band {
	if len(bounds) < 2 {
		return nil
	}
	bands := make([]Band, 0, len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		bands = append(bands, Band{Min: bounds[i], Max: bounds[i+1]})
	}
	return bands
}

// CellIndex addresses one grid intersection.
type CellIndex struct {
	Row, Col int
}

// Cell holds the text runs assigned to one grid intersection, plus its span
// when the cell covers multiple intersections. A spanning cell is stored at
// its top-left intersection only.
type Cell struct {
	Runs    []TextRun
	RowSpan int
	ColSpan int
}

// Text concatenates the cell's runs in reading order, separated by spaces.
func (c *Cell) Text() string {
	if c == nil || len(c.Runs) == 0 {
		return ""
	}
	runs := make([]TextRun, len(c.Runs))
	copy(runs, c.Runs)
	sort.SliceStable(runs, func(i, j int) bool {
		if math.Abs(runs[i].BBox.Top-runs[j].BBox.Top) > 2 {
			return runs[i].BBox.Top < runs[j].BBox.Top
		}
		return runs[i].BBox.X0 < runs[j].BBox.X0
	})
	parts := make([]string, 0, len(runs))
	for _, r := range runs {
		if r.Text != "" {
			parts = append(parts, r.Text)
		}
	}
	return strings.Join(parts, " ")
}

// BBox returns the union of the cell's run boxes, or a zero box for an
// empty cell.
func (c *Cell) BBox() BBox {
	if c == nil || len(c.Runs) == 0 {
		return BBox{}
	}
	box := c.Runs[0].BBox
	for _, r := range c.Runs[1:] {
		box = box.Union(r.BBox)
	}
	return box
}

// CellData is the exported view of one grid intersection: concatenated text
// and span, with Covered set on intersections occupied by a spanning
// neighbor.
type CellData struct {
	Text    string
	RowSpan int
	ColSpan int
	Covered bool
}

// LogicalTable is the common output surface of a single-page Table and a
// cross-page MergedTable: row-major cell content plus provenance.
type LogicalTable interface {
	Grid() [][]CellData
	PageRange() (first, last int)
	Extraction() Kind
	Bounds() BBox
}

// Table is a detected table on a single page: ordered row bands, ordered
// column bands, and a sparse mapping from grid intersections to cells.
type Table struct {
	ID          uuid.UUID
	Page        int
	Orientation Orientation
	Kind        Kind
	BBox        BBox
	RowBands    []Band // strictly increasing in y (top to bottom)
	ColBands    []Band // strictly increasing in x

	cells   map[CellIndex]*Cell
	covered map[CellIndex]CellIndex // spanning-cell anchor per covered intersection
}

// NewTable creates a table with the given bands. Bands must already be
// sorted; NewTable returns an error if any band is empty or out of order.
func NewTable(page int, orientation Orientation, kind Kind, rowBands, colBands []Band) (*Table, error) {
	if err := validateBands(rowBands, "row"); err != nil {
		return nil, err
	}
	if err := validateBands(colBands, "column"); err != nil {
		return nil, err
	}
	t := &Table{
		ID:          uuid.New(),
		Page:        page,
		Orientation: orientation,
		Kind:        kind,
		RowBands:    rowBands,
		ColBands:    colBands,
		cells:       make(map[CellIndex]*Cell),
		covered:     make(map[CellIndex]CellIndex),
	}
	t.BBox = BBox{
		X0:     colBands[0].Min,
		Top:    rowBands[0].Min,
		X1:     colBands[len(colBands)-1].Max,
		Bottom: rowBands[len(rowBands)-1].Max,
	}
	return t, nil
}

func validateBands(bands []Band, axis string) error {
	if len(bands) == 0 {
		return fmt.Errorf("no %s bands", axis)
	}
	for i, b := range bands {
		if b.Width() <= 0 {
			return fmt.Errorf("%s band %d has zero width", axis, i)
		}
		if i > 0 && b.Min < bands[i-1].Max {
			return fmt.Errorf("%s band %d overlaps its predecessor", axis, i)
		}
	}
	return nil
}

// RowCount returns the number of row bands.
func (t *Table) RowCount() int { return len(t.RowBands) }

// ColCount returns the number of column bands.
func (t *Table) ColCount() int { return len(t.ColBands) }

// InBounds reports whether the index addresses a valid grid intersection.
func (t *Table) InBounds(idx CellIndex) bool {
	return idx.Row >= 0 && idx.Row < t.RowCount() &&
		idx.Col >= 0 && idx.Col < t.ColCount()
}

// Cell returns the cell at the given intersection, or nil when the
// intersection is empty, covered, or out of range.
func (t *Table) Cell(row, col int) *Cell {
	return t.cells[CellIndex{Row: row, Col: col}]
}

// AddRun assigns a text run to the cell at the given intersection, creating
// the cell if needed. Runs aimed at a covered intersection are redirected to
// the spanning anchor.
func (t *Table) AddRun(row, col int, run TextRun) error {
	idx := CellIndex{Row: row, Col: col}
	if !t.InBounds(idx) {
		return fmt.Errorf("cell (%d,%d) out of bounds for %dx%d table", row, col, t.RowCount(), t.ColCount())
	}
	if anchor, ok := t.covered[idx]; ok {
		idx = anchor
	}
	cell := t.cells[idx]
	if cell == nil {
		cell = &Cell{RowSpan: 1, ColSpan: 1}
		t.cells[idx] = cell
	}
	cell.Runs = append(cell.Runs, run)
	return nil
}

// SetSpan marks the cell at (row, col) as spanning the given number of row
// and column bands. The covered intersections must form a rectangle inside
// the grid and must not overlap another spanning cell.
func (t *Table) SetSpan(row, col, rowSpan, colSpan int) error {
	if rowSpan < 1 || colSpan < 1 {
		return fmt.Errorf("invalid span %dx%d", rowSpan, colSpan)
	}
	anchor := CellIndex{Row: row, Col: col}
	if !t.InBounds(anchor) {
		return fmt.Errorf("span anchor (%d,%d) out of bounds", row, col)
	}
	if !t.InBounds(CellIndex{Row: row + rowSpan - 1, Col: col + colSpan - 1}) {
		return fmt.Errorf("span %dx%d at (%d,%d) exceeds grid", rowSpan, colSpan, row, col)
	}
	if _, ok := t.covered[anchor]; ok {
		return fmt.Errorf("span anchor (%d,%d) is covered by another span", row, col)
	}

	// Every covered intersection must be free of content and other spans.
	for r := row; r < row+rowSpan; r++ {
		for c := col; c < col+colSpan; c++ {
			idx := CellIndex{Row: r, Col: c}
			if idx == anchor {
				continue
			}
			if _, ok := t.covered[idx]; ok {
				return fmt.Errorf("span at (%d,%d) overlaps an existing span at (%d,%d)", row, col, r, c)
			}
			if existing := t.cells[idx]; existing != nil && (existing.RowSpan > 1 || existing.ColSpan > 1) {
				return fmt.Errorf("span at (%d,%d) overlaps spanning cell at (%d,%d)", row, col, r, c)
			}
		}
	}

	cell := t.cells[anchor]
	if cell == nil {
		cell = &Cell{}
		t.cells[anchor] = cell
	}
	cell.RowSpan = rowSpan
	cell.ColSpan = colSpan

	for r := row; r < row+rowSpan; r++ {
		for c := col; c < col+colSpan; c++ {
			idx := CellIndex{Row: r, Col: c}
			if idx == anchor {
				continue
			}
			// Fold any stray content on a covered intersection into the anchor.
			if existing := t.cells[idx]; existing != nil {
				cell.Runs = append(cell.Runs, existing.Runs...)
				delete(t.cells, idx)
			}
			t.covered[idx] = anchor
		}
	}
	return nil
}

// CoveredBy returns the anchor of the spanning cell occupying the given
// intersection, if any.
func (t *Table) CoveredBy(row, col int) (CellIndex, bool) {
	anchor, ok := t.covered[CellIndex{Row: row, Col: col}]
	return anchor, ok
}

// Cells returns the populated intersections in row-major order.
func (t *Table) Cells() []CellIndex {
	out := make([]CellIndex, 0, len(t.cells))
	for idx := range t.cells {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// RemoveColBand merges column band ci+1 into ci: contents of column ci+1
// move into column ci and all later columns shift left. Used by the
// structural corrector.
func (t *Table) RemoveColBand(ci int) error {
	if ci < 0 || ci+1 >= t.ColCount() {
		return fmt.Errorf("cannot merge column band %d of %d", ci, t.ColCount())
	}
	merged := Band{Min: t.ColBands[ci].Min, Max: t.ColBands[ci+1].Max}
	bands := append([]Band{}, t.ColBands[:ci]...)
	bands = append(bands, merged)
	bands = append(bands, t.ColBands[ci+2:]...)
	t.ColBands = bands

	remap := func(idx CellIndex) CellIndex {
		if idx.Col > ci {
			idx.Col--
		}
		return idx
	}
	cells := make(map[CellIndex]*Cell, len(t.cells))
	for idx, cell := range t.cells {
		// A span covering both merged columns shrinks by one.
		if cell.ColSpan > 1 && idx.Col <= ci && ci+1 <= idx.Col+cell.ColSpan-1 {
			cell.ColSpan--
		}
		nIdx := remap(idx)
		if existing := cells[nIdx]; existing != nil {
			existing.Runs = append(existing.Runs, cell.Runs...)
		} else {
			cells[nIdx] = cell
		}
	}
	covered := make(map[CellIndex]CellIndex, len(t.covered))
	for idx, anchor := range t.covered {
		nIdx, nAnchor := remap(idx), remap(anchor)
		if nIdx != nAnchor {
			covered[nIdx] = nAnchor
		}
	}
	t.cells = cells
	t.covered = covered
	return nil
}

// RemoveRowBand merges row band ri+1 into ri, the vertical counterpart of
// RemoveColBand. Used when folding wrapped lines back into their row.
func (t *Table) RemoveRowBand(ri int) error {
	if ri < 0 || ri+1 >= t.RowCount() {
		return fmt.Errorf("cannot merge row band %d of %d", ri, t.RowCount())
	}
	merged := Band{Min: t.RowBands[ri].Min, Max: t.RowBands[ri+1].Max}
	bands := append([]Band{}, t.RowBands[:ri]...)
	bands = append(bands, merged)
	bands = append(bands, t.RowBands[ri+2:]...)
	t.RowBands = bands

	remap := func(idx CellIndex) CellIndex {
		if idx.Row > ri {
			idx.Row--
		}
		return idx
	}
	cells := make(map[CellIndex]*Cell, len(t.cells))
	for idx, cell := range t.cells {
		// A span covering both merged rows shrinks by one.
		if cell.RowSpan > 1 && idx.Row <= ri && ri+1 <= idx.Row+cell.RowSpan-1 {
			cell.RowSpan--
		}
		nIdx := remap(idx)
		if existing := cells[nIdx]; existing != nil {
			existing.Runs = append(existing.Runs, cell.Runs...)
		} else {
			cells[nIdx] = cell
		}
	}
	covered := make(map[CellIndex]CellIndex, len(t.covered))
	for idx, anchor := range t.covered {
		nIdx, nAnchor := remap(idx), remap(anchor)
		if nIdx != nAnchor {
			covered[nIdx] = nAnchor
		}
	}
	t.cells = cells
	t.covered = covered
	return nil
}

// Signature returns the table's column-boundary signature: the ordered
// x coordinates of its column boundaries.
func (t *Table) Signature() ColumnSignature {
	sig := make(ColumnSignature, 0, t.ColCount()+1)
	for _, b := range t.ColBands {
		sig = append(sig, b.Min)
	}
	sig = append(sig, t.ColBands[t.ColCount()-1].Max)
	return sig
}

// Grid returns the row-major exported view of the table.
func (t *Table) Grid() [][]CellData {
	grid := make([][]CellData, t.RowCount())
	for r := range grid {
		grid[r] = make([]CellData, t.ColCount())
		for c := range grid[r] {
			idx := CellIndex{Row: r, Col: c}
			if _, ok := t.covered[idx]; ok {
				grid[r][c] = CellData{Covered: true}
				continue
			}
			if cell := t.cells[idx]; cell != nil {
				rowSpan, colSpan := cell.RowSpan, cell.ColSpan
				if rowSpan < 1 {
					rowSpan = 1
				}
				if colSpan < 1 {
					colSpan = 1
				}
				grid[r][c] = CellData{Text: cell.Text(), RowSpan: rowSpan, ColSpan: colSpan}
			} else {
				grid[r][c] = CellData{RowSpan: 1, ColSpan: 1}
			}
		}
	}
	return grid
}

// PageRange returns the table's single-page range.
func (t *Table) PageRange() (int, int) { return t.Page, t.Page }

// Extraction returns the detection strategy that produced the table.
func (t *Table) Extraction() Kind { return t.Kind }

// Bounds returns the table's bounding box.
func (t *Table) Bounds() BBox { return t.BBox }

// ColumnSignature is the ordered sequence of a table's column boundary
// x coordinates, used for cross-page merge matching.
type ColumnSignature []float64

// Matches reports whether two signatures agree in boundary count and in
// relative spacing. Absolute positions may shift between pages, so
// boundaries are compared as offsets normalized by total width; tol is the
// maximum allowed normalized deviation per boundary.
func (s ColumnSignature) Matches(other ColumnSignature, tol float64) bool {
	if len(s) != len(other) {
		return false
	}
	if len(s) < 2 {
		return len(s) == len(other)
	}
	widthA := s[len(s)-1] - s[0]
	widthB := other[len(other)-1] - other[0]
	if widthA <= 0 || widthB <= 0 {
		return false
	}
	for i := range s {
		offA := (s[i] - s[0]) / widthA
		offB := (other[i] - other[0]) / widthB
		if math.Abs(offA-offB) > tol {
			return false
		}
	}
	return true
}

// MergedTable is the logical table formed by concatenating the row
// sequences of bordered tables detected as continuations across consecutive
// pages. Column structure comes from the first constituent; later
// constituents are row-aligned against it, with duplicated header rows
// trimmed.
type MergedTable struct {
	ID    uuid.UUID
	parts []mergedPart
}

type mergedPart struct {
	table    *Table
	skipRows int // leading rows dropped as repeated headers
}

// NewMergedTable starts a merged table from its first constituent.
func NewMergedTable(first *Table) *MergedTable {
	return &MergedTable{
		ID:    uuid.New(),
		parts: []mergedPart{{table: first}},
	}
}

// Append adds a continuation table, dropping skipRows leading rows.
func (m *MergedTable) Append(t *Table, skipRows int) {
	m.parts = append(m.parts, mergedPart{table: t, skipRows: skipRows})
}

// First returns the first constituent table.
func (m *MergedTable) First() *Table {
	return m.parts[0].table
}

// Last returns the most recently appended constituent.
func (m *MergedTable) Last() *Table {
	return m.parts[len(m.parts)-1].table
}

// Constituents returns the constituent tables in page order.
func (m *MergedTable) Constituents() []*Table {
	out := make([]*Table, len(m.parts))
	for i, p := range m.parts {
		out[i] = p.table
	}
	return out
}

// Signature returns the column signature of the first constituent, which
// defines the merged table's column structure.
func (m *MergedTable) Signature() ColumnSignature {
	return m.First().Signature()
}

// PageRange returns the first and last page the merged table spans.
func (m *MergedTable) PageRange() (int, int) {
	return m.First().Page, m.Last().Page
}

// Pages returns every page the merged table spans, in order.
func (m *MergedTable) Pages() []int {
	first, last := m.PageRange()
	pages := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Extraction returns the detection kind (always bordered for merges).
func (m *MergedTable) Extraction() Kind {
	return m.First().Kind
}

// Bounds returns the bounding box of the first constituent; a cross-page
// table has no single-page box, so the on-page anchor is the first part.
func (m *MergedTable) Bounds() BBox {
	return m.First().BBox
}

// Grid returns the concatenated row-major view. Rows from later
// constituents are aligned to the first constituent's column count:
// narrower rows are padded with empty cells, wider rows fold their
// overflow into the last column.
func (m *MergedTable) Grid() [][]CellData {
	cols := m.First().ColCount()
	var grid [][]CellData
	for _, part := range m.parts {
		rows := part.table.Grid()
		if part.skipRows > 0 && part.skipRows <= len(rows) {
			rows = rows[part.skipRows:]
		}
		for _, row := range rows {
			grid = append(grid, alignRow(row, cols))
		}
	}
	return grid
}

func alignRow(row []CellData, cols int) []CellData {
	if len(row) == cols {
		return row
	}
	aligned := make([]CellData, cols)
	for i := range aligned {
		aligned[i] = CellData{RowSpan: 1, ColSpan: 1}
	}
	for i, cell := range row {
		if i < cols {
			aligned[i] = cell
			continue
		}
		// Overflow folds into the last column.
		if cell.Text != "" {
			if aligned[cols-1].Text != "" {
				aligned[cols-1].Text += " " + cell.Text
			} else {
				aligned[cols-1].Text = cell.Text
			}
		}
	}
	return aligned
}
