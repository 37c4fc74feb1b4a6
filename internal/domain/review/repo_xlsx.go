package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	ReviewSheet    = "CKD Review"
	ExclusionSheet = "Excluded"
)

// -- Excel implementation --

type snapshotRepoXLSX struct {
	dir string
}

// NewSnapshotRepoXLSX writes the review and exclusion tables as two sheets
// of one workbook in dir.
func NewSnapshotRepoXLSX(dir string) SnapshotRepository {
	return &snapshotRepoXLSX{dir: dir}
}

func (r *snapshotRepoXLSX) Save(_ context.Context, res *Result) error {
	f, err := BuildWorkbook(res)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(r.dir, ReviewFileName(res.AsOf, ".xlsx"))
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// BuildWorkbook lays out the review and exclusion sheets.
func BuildWorkbook(res *Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), ReviewSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ExclusionSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	rows := make([][]string, len(res.Records))
	for i, rec := range res.Records {
		rows[i] = rec.Row()
	}
	if err := writeSheet(f, ReviewSheet, Columns, rows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	excluded := res.ExcludedRecords()
	rows = make([][]string, len(excluded))
	for i, rec := range excluded {
		rows[i] = rec.ExclusionRow()
	}
	if err := writeSheet(f, ExclusionSheet, ExclusionColumns, rows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	write := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(values))
		for i, v := range values {
			vals[i] = v
		}
		return f.SetSheetRow(sheet, cell, &vals)
	}

	if err := write(1, header); err != nil {
		return fmt.Errorf("%s: write header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("%s: header range: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("%s: style header: %w", sheet, err)
	}
	for i, row := range rows {
		if err := write(i+2, row); err != nil {
			return fmt.Errorf("%s: write row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
