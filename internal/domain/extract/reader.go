package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrMissingColumn is returned when an extract lacks the HC Number column.
	ErrMissingColumn = errors.New("extract: required column missing")
	// ErrUnsupportedFormat is returned by Load for extensions other than
	// .csv and .xlsx.
	ErrUnsupportedFormat = errors.New("extract: unsupported file format")
)

// Load reads an extract file, choosing the decoder by file extension.
func Load(path string, source Source) (*Extract, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open extract %s: %w", path, err)
	}
	defer f.Close()

	var ex *Extract
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		ex, err = ReadCSV(f, source)
	case ".xlsx", ".xlsm":
		ex, err = ReadXLSX(f, source)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read extract %s: %w", path, err)
	}
	ex.Path = path
	return ex, nil
}

// ReadCSV decodes a CSV extract. The first record is the header.
func ReadCSV(r io.Reader, source Source) (*Extract, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	return fromRecords(records, source)
}

// ReadXLSX decodes the first sheet of an Excel workbook extract. Cells are
// read unformatted so that date-typed cells arrive as serial numbers, which
// are converted before the shared parsing.
func ReadXLSX(r io.Reader, source Source) (*Extract, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) > 0 {
		convertSerialDates(rows)
	}
	return fromRecords(rows, source)
}

// convertSerialDates rewrites numeric cells of every Date column as
// YYYY-MM-DD. Text dates are left for ParseDate.
func convertSerialDates(rows [][]string) {
	var dateCols []int
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == ColDate || strings.HasPrefix(h, ColDate+".") {
			dateCols = append(dateCols, i)
		}
	}
	for _, rec := range rows[1:] {
		for _, i := range dateCols {
			if i >= len(rec) {
				continue
			}
			serial, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				continue
			}
			rec[i] = t.Format("2006-01-02")
		}
	}
}

func fromRecords(records [][]string, source Source) (*Extract, error) {
	ex := &Extract{Source: source}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s (empty file)", ErrMissingColumn, ColHCNumber)
	}

	cols := headerIndex(records[0])
	hcCol, ok := cols[ColHCNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColHCNumber)
	}

	cell := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	lastHC := ""
	for n, rec := range records[1:] {
		if emptyRecord(rec) {
			continue
		}
		hc := ""
		if hcCol < len(rec) {
			hc = text(rec[hcCol])
		}
		if hc == "" {
			hc = lastHC
		}
		if hc == "" {
			ex.Orphaned++
			continue
		}
		lastHC = hc

		row := Row{
			Line:           n + 2,
			Source:         source,
			HCNumber:       hc,
			Age:            parseNumberPtr(cell(rec, ColAge)),
			Gender:         NormalizeGender(cell(rec, ColGender)),
			Medications:    text(cell(rec, ColMedications)),
			CodeTerm:       text(cell(rec, ColCodeTerm)),
			TransplantCode: text(cell(rec, ColCodeTerm+".1")),
			DialysisCode:   text(cell(rec, ColCodeTerm+".2")),
		}
		for i := 0; i < NumSlots; i++ {
			rawDate := cell(rec, suffixed(ColDate, i))
			rawValue := cell(rec, suffixed(ColValue, i))
			row.Slots[i] = Slot{
				RawDate:  strings.TrimSpace(rawDate),
				RawValue: strings.TrimSpace(rawValue),
				Date:     parseDatePtr(rawDate),
				Value:    parseNumberPtr(rawValue),
			}
		}
		ex.Rows = append(ex.Rows, row)
	}
	return ex, nil
}

// headerIndex maps column names to positions. Repeated headers are
// disambiguated in order of appearance ("Date", "Date.1", "Date.2", ...), so
// raw EMIS exports and already-suffixed files resolve to the same names.
func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	seen := make(map[string]int)
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		name := h
		if n := seen[h]; n > 0 {
			name = h + "." + strconv.Itoa(n)
		}
		seen[h]++
		if _, dup := cols[name]; dup {
			continue
		}
		cols[name] = i
	}
	return cols
}

func suffixed(base string, i int) string {
	if i == 0 {
		return base
	}
	return base + "." + strconv.Itoa(i)
}

func emptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
