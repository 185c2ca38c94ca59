// Package export writes logical tables to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tsawler/tablemap/model"
)

// FileName builds the stem used for a table's output file: the page or
// page range, the table's index on the page, the extraction kind, and the
// rounded bounding box, so reruns over the same document produce stable
// names that identify the source region.
func FileName(t model.LogicalTable, index int) string {
	lo, hi := t.PageRange()
	pages := fmt.Sprintf("%d", lo)
	suffix := ""
	if hi != lo {
		pages = fmt.Sprintf("%d-%d", lo, hi)
		suffix = "_merge"
	}
	b := t.Bounds()
	return fmt.Sprintf("page_%s_table_%d_%s_%d_%d_%d_%d%s",
		pages, index, t.Extraction(),
		int(b.X0), int(b.Top), int(b.X1), int(b.Bottom), suffix)
}

// WriteCSV writes the table's grid to w. Intersections covered by a
// spanning cell come out empty; the spanning text sits at its anchor.
func WriteCSV(w io.Writer, t model.LogicalTable) error {
	cw := csv.NewWriter(w)
	for _, row := range t.Grid() {
		record := make([]string, len(row))
		for i, cell := range row {
			if cell.Covered {
				continue
			}
			record[i] = cell.Text
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFiles writes one CSV file per table into dir and returns the
// paths written. Tables are numbered in input order.
func WriteCSVFiles(dir string, logical []model.LogicalTable) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	var paths []string
	for i, t := range logical {
		path := filepath.Join(dir, FileName(t, i+1)+".csv")
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("creating %s: %w", path, err)
		}
		err = WriteCSV(f, t)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
