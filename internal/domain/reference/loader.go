package reference

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Reference file names inside the reference directory.
const (
	ContraindicatedFile = "contraindicated_drugs.csv"
	DoseAdjustmentFile  = "drug_adjustment.csv"
	StatinsFile         = "statins.csv"
	DiabetesMedsFile    = "diabetes_meds.csv"
	SGLT2File           = "sglt2_inhibitors.csv"
)

var (
	// ErrMissingTable is returned when a required reference table is absent.
	ErrMissingTable = errors.New("reference: required table missing")
	// ErrMalformedTable is returned when a reference table cannot be parsed.
	ErrMalformedTable = errors.New("reference: malformed table")
)

// Load reads every reference table from dir. The contraindication and dose
// adjustment tables are required; the statin, diabetes and SGLT2 lists fall
// back to built-in or empty lists when absent.
func Load(dir string, logger zerolog.Logger) (*Tables, error) {
	t := &Tables{}
	var err error

	t.Contraindicated, err = loadThresholdTable(filepath.Join(dir, ContraindicatedFile), "contraindicated_drugs")
	if err != nil {
		return nil, err
	}
	t.DoseAdjustment, err = loadThresholdTable(filepath.Join(dir, DoseAdjustmentFile), "drug_adjustment")
	if err != nil {
		return nil, err
	}

	t.Statins, err = loadList(filepath.Join(dir, StatinsFile))
	switch {
	case errors.Is(err, ErrMissingTable):
		logger.Warn().Str("file", StatinsFile).Msg("statin list not found, using built-in list")
		t.Statins = DefaultStatins
	case err != nil:
		return nil, err
	}

	t.DiabetesMeds, err = loadNamedTable(filepath.Join(dir, DiabetesMedsFile))
	if err != nil && !errors.Is(err, ErrMissingTable) {
		return nil, err
	}
	if err != nil {
		logger.Warn().Str("file", DiabetesMedsFile).Msg("diabetes medication table not found")
	}
	t.SGLT2Inhibitors, err = loadNamedTable(filepath.Join(dir, SGLT2File))
	if err != nil && !errors.Is(err, ErrMissingTable) {
		return nil, err
	}
	if err != nil {
		logger.Warn().Str("file", SGLT2File).Msg("SGLT2 inhibitor table not found")
	}

	logger.Info().
		Int("contraindicated", len(t.Contraindicated)).
		Int("dose_adjustment", len(t.DoseAdjustment)).
		Int("statins", len(t.Statins)).
		Int("diabetes_meds", len(t.DiabetesMeds)).
		Int("sglt2_inhibitors", len(t.SGLT2Inhibitors)).
		Msg("reference tables loaded")
	return t, nil
}

func openTable(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingTable, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// readTable returns the data records of a headed CSV and a lookup from
// lower-cased header name to column index.
func readTable(r io.Reader) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, map[string]int{}, nil
	}
	header := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		header[h] = i
	}
	return records[1:], header, nil
}

func field(rec []string, header map[string]int, names ...string) string {
	for _, n := range names {
		if i, ok := header[strings.ToLower(n)]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
	}
	return ""
}

func loadThresholdTable(path, drugColumn string) ([]ThresholdDrug, error) {
	f, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, header, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedTable, path, err)
	}
	if _, ok := header["egfr"]; !ok {
		return nil, fmt.Errorf("%w: %s: missing eGFR column", ErrMalformedTable, path)
	}
	if _, ok := header[strings.ToLower(drugColumn)]; !ok {
		return nil, fmt.Errorf("%w: %s: missing %s column", ErrMalformedTable, path, drugColumn)
	}

	var out []ThresholdDrug
	for n, rec := range records {
		drug := field(rec, header, drugColumn)
		if drug == "" {
			continue
		}
		threshold, err := strconv.ParseFloat(field(rec, header, "eGFR"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: eGFR threshold: %v", ErrMalformedTable, path, n+2, err)
		}
		out = append(out, NewThresholdDrug(drug, threshold, field(rec, header, "BNF_Link", "bnf_link", "link")))
	}
	return out, nil
}

// loadList reads a one-name-per-line file, skipping blanks and a header line.
func loadList(path string) ([]string, error) {
	f, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		line := strings.Trim(strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff")), `",`)
		if line == "" {
			continue
		}
		if first {
			first = false
			switch strings.ToLower(line) {
			case "statin", "statins", "drug", "name", "medication":
				continue
			}
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedTable, path, err)
	}
	return out, nil
}

func loadNamedTable(path string) ([]NamedDrug, error) {
	f, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, header, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedTable, path, err)
	}
	var out []NamedDrug
	for _, rec := range records {
		name := field(rec, header, "medication", "name")
		brand := field(rec, header, "brand_name", "brand")
		if name == "" && brand == "" {
			continue
		}
		out = append(out, NewNamedDrug(name, brand))
	}
	return out, nil
}
