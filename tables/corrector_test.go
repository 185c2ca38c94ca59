package tables

import (
	"reflect"
	"testing"

	"github.com/tsawler/tablemap/model"
)

func mustTable(t *testing.T, rowBounds, colBounds []float64) *model.Table {
	t.Helper()
	table, err := model.NewTable(1, model.Portrait, model.KindSpatial,
		model.BandsFromBoundaries(rowBounds), model.BandsFromBoundaries(colBounds))
	if err != nil {
		t.Fatal(err)
	}
	return table
}

// fill places a run snugly inside the cell at (ri, ci).
func fill(t *testing.T, table *model.Table, ri, ci int, text string) {
	t.Helper()
	row, col := table.RowBands[ri], table.ColBands[ci]
	r := run(text, col.Min+2, row.Min+2, col.Max-2, row.Max-2)
	if err := table.AddRun(ri, ci, r); err != nil {
		t.Fatal(err)
	}
}

func TestCorrectorMergesCenteredColumnPairs(t *testing.T) {
	// Centered headers split two logical columns, giving six columns
	// where rows alternate between the halves of each split pair.
	rowBounds := []float64{100, 115, 130, 145, 160, 175, 190}
	colBounds := []float64{50, 150, 180, 210, 240, 270, 370}
	table := mustTable(t, rowBounds, colBounds)
	for ri := 0; ri < 6; ri++ {
		fill(t, table, ri, 0, "label")
		fill(t, table, ri, 5, "total")
		if ri%2 == 0 {
			fill(t, table, ri, 1, "a")
			fill(t, table, ri, 3, "b")
		} else {
			fill(t, table, ri, 2, "a")
			fill(t, table, ri, 4, "b")
		}
	}

	c := NewCorrector()
	c.Apply(table)

	if table.ColCount() != 4 {
		t.Fatalf("cols = %d, want 4", table.ColCount())
	}
	for ri := 0; ri < 6; ri++ {
		if got := cellText(t, table, ri, 1); got != "a" {
			t.Errorf("row %d merged col 1 = %q, want %q", ri, got, "a")
		}
		if got := cellText(t, table, ri, 2); got != "b" {
			t.Errorf("row %d merged col 2 = %q, want %q", ri, got, "b")
		}
	}

	// A second pass finds no more pairs to merge.
	c.Apply(table)
	if table.ColCount() != 4 {
		t.Errorf("repeat application merged again: %d cols", table.ColCount())
	}
}

func TestCorrectorLeavesWidePairsAlone(t *testing.T) {
	// Alternating occupancy but the pair spans most of the table, so it
	// is sparse data, not a centered-header artifact.
	table := mustTable(t, []float64{100, 115, 130, 145, 160}, []float64{50, 230, 410, 450})
	for ri := 0; ri < 4; ri++ {
		fill(t, table, ri, 2, "x")
		fill(t, table, ri, ri%2, "y")
	}

	c := NewCorrector()
	c.Apply(table)
	if table.ColCount() != 3 {
		t.Errorf("cols = %d, want 3", table.ColCount())
	}
}

func TestCorrectorFoldsWrappedRow(t *testing.T) {
	table := mustTable(t, []float64{100, 115, 130, 145, 160}, []float64{50, 200, 350, 500})
	texts := [][]string{
		{"Item", "Count", "Notes"},
		{"First item with a", "4", "ok"},
		{"long wrapped name", "", ""},
		{"Second item", "7", "ok"},
	}
	for ri, row := range texts {
		for ci, text := range row {
			if text != "" {
				fill(t, table, ri, ci, text)
			}
		}
	}

	c := NewCorrector()
	c.Apply(table)

	if table.RowCount() != 3 {
		t.Fatalf("rows = %d, want 3", table.RowCount())
	}
	want := "First item with a long wrapped name"
	if got := cellText(t, table, 1, 0); got != want {
		t.Errorf("folded cell = %q, want %q", got, want)
	}
	if got := cellText(t, table, 2, 0); got != "Second item" {
		t.Errorf("cell (2,0) = %q", got)
	}
}

func TestCorrectorKeepsNewEntryRows(t *testing.T) {
	// A short row populating a column empty in the row above starts a
	// new entry and must not be folded.
	table := mustTable(t, []float64{100, 115, 130, 145}, []float64{50, 200, 350, 500})
	fill(t, table, 0, 0, "alpha")
	fill(t, table, 0, 1, "1")
	fill(t, table, 1, 2, "stray note")
	fill(t, table, 2, 0, "gamma")
	fill(t, table, 2, 1, "2")

	c := NewCorrector()
	c.Apply(table)
	if table.RowCount() != 3 {
		t.Errorf("rows = %d, want 3", table.RowCount())
	}
}

func TestCorrectorDetectsColumnSpan(t *testing.T) {
	table := mustTable(t, []float64{100, 120, 140}, []float64{50, 200, 350, 500})
	// The title reaches deep into the second column band.
	if err := table.AddRun(0, 0, run("Quarterly totals", 52, 102, 320, 118)); err != nil {
		t.Fatal(err)
	}
	fill(t, table, 0, 2, "2026")
	fill(t, table, 1, 0, "Revenue")
	fill(t, table, 1, 1, "1.2M")
	fill(t, table, 1, 2, "1.4M")

	c := NewCorrector()
	c.Apply(table)

	cell := table.Cell(0, 0)
	if cell == nil || cell.ColSpan != 2 {
		t.Fatalf("cell (0,0) span = %+v, want ColSpan 2", cell)
	}
	anchor, ok := table.CoveredBy(0, 1)
	if !ok || anchor != (model.CellIndex{Row: 0, Col: 0}) {
		t.Errorf("cell (0,1) covered by %v, %v", anchor, ok)
	}

	grid := table.Grid()
	if !grid[0][1].Covered {
		t.Error("grid entry (0,1) not marked covered")
	}
	if grid[0][0].ColSpan != 2 {
		t.Errorf("grid entry (0,0) ColSpan = %d", grid[0][0].ColSpan)
	}
}

func TestCorrectorSpanNeedsEmptyNeighbor(t *testing.T) {
	table := mustTable(t, []float64{100, 120, 140}, []float64{50, 200, 350, 500})
	if err := table.AddRun(0, 0, run("Wide title", 52, 102, 320, 118)); err != nil {
		t.Fatal(err)
	}
	fill(t, table, 0, 1, "occupied")
	fill(t, table, 1, 0, "a")
	fill(t, table, 1, 1, "b")
	fill(t, table, 1, 2, "c")

	c := NewCorrector()
	c.Apply(table)
	if cell := table.Cell(0, 0); cell.ColSpan != 1 {
		t.Errorf("span recorded over occupied neighbor: %d", cell.ColSpan)
	}
}

func TestCorrectorIdempotent(t *testing.T) {
	table := mustTable(t, []float64{100, 115, 130, 145, 160}, []float64{50, 200, 350, 500})
	texts := [][]string{
		{"Item", "Count", "Notes"},
		{"First item with a", "4", "ok"},
		{"long wrapped name", "", ""},
		{"Second item", "7", "ok"},
	}
	for ri, row := range texts {
		for ci, text := range row {
			if text != "" {
				fill(t, table, ri, ci, text)
			}
		}
	}

	c := NewCorrector()
	c.Apply(table)
	first := table.Grid()
	c.Apply(table)
	second := table.Grid()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second application changed the grid:\n%v\n%v", first, second)
	}
}
