package export

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/tsawler/tablemap/model"
)

// BuildXLSX returns an XLSX workbook with one sheet per logical table.
// Spanning cells become merged ranges. The caller owns closing the file.
func BuildXLSX(logical []model.LogicalTable) (*excelize.File, error) {
	f := excelize.NewFile()
	for i, t := range logical {
		sheet := sheetName(t, i+1)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, fmt.Errorf("naming sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("adding sheet %s: %w", sheet, err)
			}
		}
		if err := writeSheet(f, sheet, t); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteXLSXFile writes all tables to one workbook at path.
func WriteXLSXFile(path string, logical []model.LogicalTable) error {
	f, err := BuildXLSX(logical)
	if err != nil {
		return err
	}
	defer f.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	err = f.Write(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func sheetName(t model.LogicalTable, index int) string {
	lo, hi := t.PageRange()
	if lo != hi {
		return fmt.Sprintf("Table %d (p%d-%d)", index, lo, hi)
	}
	return fmt.Sprintf("Table %d (p%d)", index, lo)
}

func writeSheet(f *excelize.File, sheet string, t model.LogicalTable) error {
	for ri, row := range t.Grid() {
		for ci, cell := range row {
			if cell.Covered || cell.Text == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, name, cell.Text); err != nil {
				return err
			}
			if cell.RowSpan > 1 || cell.ColSpan > 1 {
				end, err := excelize.CoordinatesToCellName(ci+cell.ColSpan, ri+cell.RowSpan)
				if err != nil {
					return err
				}
				if err := f.MergeCell(sheet, name, end); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
