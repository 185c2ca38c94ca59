package model

import (
	"math"
	"testing"
)

func TestBBoxBasics(t *testing.T) {
	b := NewBBox(10, 20, 110, 40)

	if b.Width() != 100 {
		t.Errorf("Width() = %f, want 100", b.Width())
	}
	if b.Height() != 20 {
		t.Errorf("Height() = %f, want 20", b.Height())
	}
	c := b.Center()
	if c.X != 60 || c.Y != 30 {
		t.Errorf("Center() = %+v, want (60,30)", c)
	}
	if !b.Contains(Point{X: 50, Y: 30}) {
		t.Error("Contains() should include interior point")
	}
	if b.Contains(Point{X: 50, Y: 50}) {
		t.Error("Contains() should exclude point below box")
	}
}

func TestNewBBoxNormalizesFlippedCoordinates(t *testing.T) {
	b := NewBBox(110, 40, 10, 20)
	if b.X0 != 10 || b.Top != 20 || b.X1 != 110 || b.Bottom != 40 {
		t.Errorf("NewBBox did not normalize: %+v", b)
	}
}

func TestBBoxIntersection(t *testing.T) {
	a := NewBBox(0, 0, 100, 100)
	b := NewBBox(50, 50, 150, 150)

	if !a.Intersects(b) {
		t.Fatal("boxes should intersect")
	}
	inter := a.Intersection(b)
	if inter.X0 != 50 || inter.Top != 50 || inter.X1 != 100 || inter.Bottom != 100 {
		t.Errorf("Intersection() = %+v", inter)
	}
	if got := a.OverlapRatio(b); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("OverlapRatio() = %f, want 0.25", got)
	}

	far := NewBBox(200, 200, 300, 300)
	if a.Intersects(far) {
		t.Error("disjoint boxes should not intersect")
	}
	if a.OverlapRatio(far) != 0 {
		t.Error("OverlapRatio() of disjoint boxes should be 0")
	}
}

func TestRulingOrientation(t *testing.T) {
	h := Ruling{X0: 10, Y0: 50, X1: 210, Y1: 50}
	if !h.IsHorizontal() || h.IsVertical() {
		t.Error("flat segment should be horizontal")
	}
	if h.Position() != 50 {
		t.Errorf("Position() = %f, want 50", h.Position())
	}
	min, max := h.Extent()
	if min != 10 || max != 210 {
		t.Errorf("Extent() = (%f,%f), want (10,210)", min, max)
	}

	v := Ruling{X0: 30, Y0: 10, X1: 30, Y1: 300}
	if !v.IsVertical() {
		t.Error("upright segment should be vertical")
	}
	if v.Position() != 30 {
		t.Errorf("Position() = %f, want 30", v.Position())
	}

	// Slightly skewed segments classify by the longer axis.
	skewed := Ruling{X0: 10, Y0: 50, X1: 210, Y1: 51}
	if !skewed.IsHorizontal() {
		t.Error("near-flat segment should be horizontal")
	}
}

func TestPageOrientation(t *testing.T) {
	portrait := &Page{Width: 612, Height: 792}
	if portrait.Orientation() != Portrait {
		t.Error("612x792 should be portrait")
	}
	landscape := &Page{Width: 792, Height: 612}
	if landscape.Orientation() != Landscape {
		t.Error("792x612 should be landscape")
	}
}

func TestPageRunsIn(t *testing.T) {
	page := &Page{
		Width:  612,
		Height: 792,
		Runs: []TextRun{
			{Text: "in", BBox: NewBBox(100, 100, 150, 115)},
			{Text: "out", BBox: NewBBox(400, 400, 450, 415)},
		},
	}
	got := page.RunsIn(NewBBox(90, 90, 200, 200), 5)
	if len(got) != 1 || got[0].Text != "in" {
		t.Errorf("RunsIn() = %v, want only the inner run", got)
	}
}

func mustTable(t *testing.T, rows, cols []Band) *Table {
	t.Helper()
	tbl, err := NewTable(1, Portrait, KindBordered, rows, cols)
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}
	return tbl
}

func bands(bounds ...float64) []Band {
	return BandsFromBoundaries(bounds)
}

func TestNewTableValidatesBands(t *testing.T) {
	_, err := NewTable(1, Portrait, KindBordered, bands(0, 10, 20), []Band{{Min: 0, Max: 0}})
	if err == nil {
		t.Error("zero-width band should be rejected")
	}

	_, err = NewTable(1, Portrait, KindBordered, []Band{{Min: 0, Max: 10}, {Min: 5, Max: 20}}, bands(0, 10))
	if err == nil {
		t.Error("overlapping bands should be rejected")
	}
}

func TestTableAddRunAndCellText(t *testing.T) {
	tbl := mustTable(t, bands(0, 20, 40), bands(0, 100, 200))

	if err := tbl.AddRun(0, 1, TextRun{Text: "world", BBox: NewBBox(150, 2, 180, 18)}); err != nil {
		t.Fatalf("AddRun() failed: %v", err)
	}
	if err := tbl.AddRun(0, 1, TextRun{Text: "hello", BBox: NewBBox(110, 2, 140, 18)}); err != nil {
		t.Fatalf("AddRun() failed: %v", err)
	}

	cell := tbl.Cell(0, 1)
	if cell == nil {
		t.Fatal("Cell(0,1) should not be nil")
	}
	if got := cell.Text(); got != "hello world" {
		t.Errorf("Text() = %q, want %q (reading order)", got, "hello world")
	}

	if err := tbl.AddRun(5, 0, TextRun{Text: "x"}); err == nil {
		t.Error("AddRun() out of bounds should fail")
	}
}

func TestTableSetSpan(t *testing.T) {
	tbl := mustTable(t, bands(0, 20, 40, 60), bands(0, 100, 200, 300))

	if err := tbl.AddRun(0, 0, TextRun{Text: "wide", BBox: NewBBox(10, 2, 190, 18)}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.SetSpan(0, 0, 1, 2); err != nil {
		t.Fatalf("SetSpan() failed: %v", err)
	}

	anchor, ok := tbl.CoveredBy(0, 1)
	if !ok {
		t.Fatal("(0,1) should be covered")
	}
	if anchor != (CellIndex{Row: 0, Col: 0}) {
		t.Errorf("covered anchor = %+v", anchor)
	}

	// Runs aimed at a covered intersection land on the anchor.
	if err := tbl.AddRun(0, 1, TextRun{Text: "more"}); err != nil {
		t.Fatal(err)
	}
	if tbl.Cell(0, 1) != nil {
		t.Error("covered intersection should hold no independent cell")
	}
	if got := tbl.Cell(0, 0).Text(); got != "wide more" {
		t.Errorf("anchor text = %q", got)
	}

	// Overlapping spans are rejected.
	if err := tbl.SetSpan(0, 1, 2, 1); err == nil {
		t.Error("span anchored on a covered intersection should be rejected")
	}
	if err := tbl.SetSpan(1, 0, 1, 3); err != nil {
		t.Errorf("non-overlapping span rejected: %v", err)
	}
}

func TestTableSetSpanRejectsOutOfGrid(t *testing.T) {
	tbl := mustTable(t, bands(0, 20, 40), bands(0, 100, 200))
	if err := tbl.SetSpan(0, 1, 1, 2); err == nil {
		t.Error("span exceeding the grid should be rejected")
	}
	if err := tbl.SetSpan(0, 0, 0, 1); err == nil {
		t.Error("zero span should be rejected")
	}
}

func TestTableGrid(t *testing.T) {
	tbl := mustTable(t, bands(0, 20, 40), bands(0, 100, 200))
	_ = tbl.AddRun(0, 0, TextRun{Text: "a"})
	_ = tbl.AddRun(1, 1, TextRun{Text: "b"})
	_ = tbl.SetSpan(0, 0, 1, 2)

	grid := tbl.Grid()
	if len(grid) != 2 || len(grid[0]) != 2 {
		t.Fatalf("Grid() dimensions = %dx%d", len(grid), len(grid[0]))
	}
	if grid[0][0].Text != "a" || grid[0][0].ColSpan != 2 {
		t.Errorf("grid[0][0] = %+v", grid[0][0])
	}
	if !grid[0][1].Covered {
		t.Error("grid[0][1] should be covered")
	}
	if grid[1][1].Text != "b" {
		t.Errorf("grid[1][1] = %+v", grid[1][1])
	}
	if grid[1][0].Text != "" || grid[1][0].RowSpan != 1 {
		t.Errorf("empty cell = %+v", grid[1][0])
	}
}

func TestTableRemoveColBand(t *testing.T) {
	tbl := mustTable(t, bands(0, 20, 40), bands(0, 100, 200, 300))
	_ = tbl.AddRun(0, 1, TextRun{Text: "moved"})
	_ = tbl.AddRun(0, 2, TextRun{Text: "kept"})

	if err := tbl.RemoveColBand(0); err != nil {
		t.Fatalf("RemoveColBand() failed: %v", err)
	}
	if tbl.ColCount() != 2 {
		t.Fatalf("ColCount() = %d, want 2", tbl.ColCount())
	}
	if tbl.ColBands[0].Min != 0 || tbl.ColBands[0].Max != 200 {
		t.Errorf("merged band = %+v", tbl.ColBands[0])
	}
	if got := tbl.Cell(0, 0).Text(); got != "moved" {
		t.Errorf("cell (0,0) = %q, want %q", got, "moved")
	}
	if got := tbl.Cell(0, 1).Text(); got != "kept" {
		t.Errorf("cell (0,1) = %q, want %q", got, "kept")
	}
}

func TestTableRemoveBandClampsSpans(t *testing.T) {
	// A span straddling the merged boundary loses one band.
	tbl := mustTable(t, bands(0, 20, 40), bands(0, 100, 200, 300, 400))
	_ = tbl.AddRun(0, 0, TextRun{Text: "wide"})
	if err := tbl.SetSpan(0, 0, 1, 3); err != nil {
		t.Fatal(err)
	}
	if err := tbl.RemoveColBand(1); err != nil {
		t.Fatalf("RemoveColBand() failed: %v", err)
	}
	grid := tbl.Grid()
	if got := grid[0][0].ColSpan; got != 2 {
		t.Errorf("ColSpan = %d, want 2", got)
	}
	if !grid[0][1].Covered {
		t.Error("grid[0][1] should stay covered")
	}
	if grid[0][2].Covered {
		t.Error("grid[0][2] should be free after the merge")
	}

	tbl = mustTable(t, bands(0, 20, 40, 60, 80), bands(0, 100, 200))
	_ = tbl.AddRun(0, 0, TextRun{Text: "tall"})
	if err := tbl.SetSpan(0, 0, 3, 1); err != nil {
		t.Fatal(err)
	}
	if err := tbl.RemoveRowBand(1); err != nil {
		t.Fatalf("RemoveRowBand() failed: %v", err)
	}
	if got := tbl.Cell(0, 0).RowSpan; got != 2 {
		t.Errorf("RowSpan = %d, want 2", got)
	}
	if _, ok := tbl.CoveredBy(2, 0); ok {
		t.Error("(2,0) should be free after the merge")
	}

	// A span entirely past the merged boundary shifts without shrinking.
	tbl = mustTable(t, bands(0, 20, 40), bands(0, 100, 200, 300, 400))
	if err := tbl.SetSpan(0, 2, 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := tbl.RemoveColBand(0); err != nil {
		t.Fatalf("RemoveColBand() failed: %v", err)
	}
	if got := tbl.Cell(0, 1).ColSpan; got != 2 {
		t.Errorf("shifted ColSpan = %d, want 2", got)
	}
	if _, ok := tbl.CoveredBy(0, 2); !ok {
		t.Error("(0,2) should be covered by the shifted span")
	}
}

func TestTableSignature(t *testing.T) {
	tbl := mustTable(t, bands(0, 20, 40), bands(50, 150, 250, 400))
	sig := tbl.Signature()
	want := ColumnSignature{50, 150, 250, 400}
	if len(sig) != len(want) {
		t.Fatalf("Signature() length = %d, want %d", len(sig), len(want))
	}
	for i := range want {
		if sig[i] != want[i] {
			t.Errorf("Signature()[%d] = %f, want %f", i, sig[i], want[i])
		}
	}
}

func TestColumnSignatureMatches(t *testing.T) {
	a := ColumnSignature{0, 100, 200, 300}

	// Same relative spacing, shifted absolute positions.
	shifted := ColumnSignature{20, 120, 220, 320}
	if !a.Matches(shifted, 0.02) {
		t.Error("shifted signature with identical spacing should match")
	}

	// Different boundary count never matches.
	fewer := ColumnSignature{0, 150, 300}
	if a.Matches(fewer, 0.5) {
		t.Error("different band count must not match regardless of tolerance")
	}

	// Spacing off by more than tolerance.
	skewed := ColumnSignature{0, 130, 200, 300}
	if a.Matches(skewed, 0.02) {
		t.Error("skewed spacing should not match at tight tolerance")
	}
	if !a.Matches(skewed, 0.2) {
		t.Error("skewed spacing should match at loose tolerance")
	}
}

func TestMergedTableGrid(t *testing.T) {
	first := mustTable(t, bands(700, 720, 740), bands(0, 100, 200))
	_ = first.AddRun(0, 0, TextRun{Text: "h1"})
	_ = first.AddRun(0, 1, TextRun{Text: "h2"})
	_ = first.AddRun(1, 0, TextRun{Text: "a"})

	second := mustTable(t, bands(50, 70, 90), bands(0, 100, 200))
	second.Page = 2
	_ = second.AddRun(0, 0, TextRun{Text: "h1"})
	_ = second.AddRun(1, 1, TextRun{Text: "b"})

	m := NewMergedTable(first)
	m.Append(second, 1) // drop second table's repeated header

	firstPage, lastPage := m.PageRange()
	if firstPage != 1 || lastPage != 2 {
		t.Errorf("PageRange() = (%d,%d), want (1,2)", firstPage, lastPage)
	}

	grid := m.Grid()
	if len(grid) != 3 {
		t.Fatalf("Grid() rows = %d, want 3", len(grid))
	}
	if grid[0][0].Text != "h1" || grid[1][0].Text != "a" || grid[2][1].Text != "b" {
		t.Errorf("unexpected merged grid: %+v", grid)
	}
}

func TestMergedTableAlignsNarrowRows(t *testing.T) {
	first := mustTable(t, bands(0, 20), bands(0, 100, 200, 300))
	_ = first.AddRun(0, 0, TextRun{Text: "a"})

	second := mustTable(t, bands(0, 20), bands(0, 150, 300))
	second.Page = 2
	_ = second.AddRun(0, 1, TextRun{Text: "b"})

	m := NewMergedTable(first)
	m.Append(second, 0)

	grid := m.Grid()
	if len(grid[1]) != 3 {
		t.Fatalf("aligned row width = %d, want 3", len(grid[1]))
	}
	if grid[1][1].Text != "b" || grid[1][2].Text != "" {
		t.Errorf("aligned row = %+v", grid[1])
	}
}
