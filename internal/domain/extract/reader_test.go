package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestParseDate_Formats(t *testing.T) {
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	inputs := []string{"05-Mar-24", "2024-03-05", "05/03/2024", "5-Mar-2024", " 5/3/2024 ", "05-MAR-24"}
	for _, in := range inputs {
		got, ok := ParseDate(in)
		if !ok {
			t.Errorf("expected %q to parse", in)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestParseDate_Missing(t *testing.T) {
	for _, in := range []string{"", "   ", "NA", "n/a", "Null", "none", "2024/03/05", "March 5th", "31/02/2024"} {
		if _, ok := ParseDate(in); ok {
			t.Errorf("expected %q to be treated as missing", in)
		}
	}
}

func TestParseNumber(t *testing.T) {
	if v, ok := ParseNumber(" 88.5 "); !ok || v != 88.5 {
		t.Errorf("expected 88.5, got %v (ok=%v)", v, ok)
	}
	for _, in := range []string{"", "na", "N/A", "none", "nan", "<3"} {
		if _, ok := ParseNumber(in); ok {
			t.Errorf("expected %q to be missing", in)
		}
	}
}

func TestReadCSV_ForwardFillAndOrphans(t *testing.T) {
	data := strings.Join([]string{
		"HC Number,Age,Gender,Date,Value,Date.1,Value.1,Name, Dosage and Quantity,Code Term",
		",50,Male,01-Jan-24,100,,,,",
		"111,50,Male,01-Feb-24,110,01-Feb-24,2.5,Ramipril 5mg,CKD stage 3a",
		",,,,,,,Atorvastatin 20mg,",
		"222,61,Female,2024-02-10,95,,,nan,",
	}, "\n")
	// The medication header contains commas, so quote it.
	data = strings.Replace(data, "Name, Dosage and Quantity", `"Name, Dosage and Quantity"`, 1)

	ex, err := ReadCSV(strings.NewReader(data), SourceCKDCheck)
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if ex.Orphaned != 1 {
		t.Errorf("expected 1 orphaned row, got %d", ex.Orphaned)
	}
	if len(ex.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(ex.Rows))
	}
	if ex.Rows[1].HCNumber != "111" {
		t.Errorf("expected forward-filled HC Number 111, got %q", ex.Rows[1].HCNumber)
	}
	if ex.Rows[1].Medications != "Atorvastatin 20mg" {
		t.Errorf("unexpected medications: %q", ex.Rows[1].Medications)
	}
	if ex.Rows[2].Medications != "" {
		t.Errorf("expected nan medication to be empty, got %q", ex.Rows[2].Medications)
	}
	acr := ex.Rows[0].Slots[SlotACR]
	if acr.Value == nil || *acr.Value != 2.5 {
		t.Errorf("expected ACR 2.5, got %+v", acr)
	}
	if ex.Rows[0].Gender != GenderMale || ex.Rows[2].Gender != GenderFemale {
		t.Errorf("unexpected genders: %q %q", ex.Rows[0].Gender, ex.Rows[2].Gender)
	}
	if ex.Rows[0].CodeTerm != "CKD stage 3a" {
		t.Errorf("unexpected code term: %q", ex.Rows[0].CodeTerm)
	}
}

func TestReadCSV_RepeatedHeaders(t *testing.T) {
	data := "HC Number,Date,Value,Date,Value,Date,Value\n" +
		"1,01-Mar-24,120,01-Mar-24,4,01-Dec-23,110\n"
	ex, err := ReadCSV(strings.NewReader(data), SourceCreatinine)
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	hist := ex.Rows[0].Slots[SlotCreatinineHistory]
	if !hist.Valid() || *hist.Value != 110 {
		t.Errorf("expected history slot 110, got %+v", hist)
	}
	if hist.Date.Month() != time.December {
		t.Errorf("expected December history date, got %s", hist.Date)
	}
}

func TestReadCSV_MissingHCColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Patient,Age\n1,40\n"), SourceCKDCheck)
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := []interface{}{"HC Number", "Age", "Gender", "Date", "Value"}
	row := []interface{}{"333", "72", "Female", "2024-04-01", "140"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := f.SetSheetRow(sheet, "A2", &row); err != nil {
		t.Fatalf("write row: %v", err)
	}
	path := filepath.Join(t.TempDir(), "Creatinine.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	ex, err := Load(path, SourceCreatinine)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(ex.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(ex.Rows))
	}
	r := ex.Rows[0]
	if r.HCNumber != "333" || r.Age == nil || *r.Age != 72 {
		t.Errorf("unexpected row: %+v", r)
	}
	if v := r.Slots[SlotCreatinine].Value; v == nil || *v != 140 {
		t.Errorf("expected creatinine 140, got %v", v)
	}
}

func TestLoad_XLSXDateCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := []interface{}{"HC Number", "Age", "Gender", "Date", "Value", "Date", "Value"}
	row := []interface{}{
		"444", 58, "Male",
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), 120,
		"05-Jan-24", 3.1,
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := f.SetSheetRow(sheet, "A2", &row); err != nil {
		t.Fatalf("write row: %v", err)
	}
	path := filepath.Join(t.TempDir(), "CKD_check.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	ex, err := Load(path, SourceCKDCheck)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(ex.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(ex.Rows))
	}
	r := ex.Rows[0]
	want := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	if d := r.Slots[SlotCreatinine].Date; d == nil || !d.Equal(want) {
		t.Errorf("expected creatinine date %s, got %v (raw %q)", want.Format("2006-01-02"), d, r.Slots[SlotCreatinine].RawDate)
	}
	if v := r.Slots[SlotCreatinine].Value; v == nil || *v != 120 {
		t.Errorf("expected creatinine 120, got %v", v)
	}
	acr := r.Slots[SlotACR]
	if !acr.Valid() || acr.Date.Month() != time.January || *acr.Value != 3.1 {
		t.Errorf("expected text-dated ACR 3.1 in January, got %+v", acr)
	}
	if r.Age == nil || *r.Age != 58 {
		t.Errorf("expected numeric age 58, got %v", r.Age)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "absent.csv"), SourceCreatinine); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	txt := filepath.Join(dir, "extract.txt")
	if err := os.WriteFile(txt, []byte("HC Number\n1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(txt, SourceCreatinine); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestGroupByPatient(t *testing.T) {
	rows := []Row{{HCNumber: "b"}, {HCNumber: "a"}, {HCNumber: "b"}}
	groups := GroupByPatient(rows)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].HCNumber != "b" || len(groups[0].Rows) != 2 {
		t.Errorf("unexpected first group: %+v", groups[0])
	}
}
