package review

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// -- CSV implementation --

type snapshotRepoCSV struct {
	dir string
}

// NewSnapshotRepoCSV writes the review table and the exclusion table as CSV
// files into dir.
func NewSnapshotRepoCSV(dir string) SnapshotRepository {
	return &snapshotRepoCSV{dir: dir}
}

func (r *snapshotRepoCSV) Save(_ context.Context, res *Result) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := writeFile(filepath.Join(r.dir, ReviewFileName(res.AsOf, ".csv")), func(w io.Writer) error {
		return WriteReviewCSV(w, res.Records)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(r.dir, ExclusionFile), func(w io.Writer) error {
		return WriteExclusionCSV(w, res.ExcludedRecords())
	})
}

// writeFile writes through a temporary file so a failed run never leaves a
// truncated snapshot behind.
func writeFile(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// WriteReviewCSV writes the review table with a header row.
func WriteReviewCSV(w io.Writer, records []*PatientRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("review csv: write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return fmt.Errorf("review csv: write row %s: %w", rec.HCNumber, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExclusionCSV writes the records excluded from risk scoring.
func WriteExclusionCSV(w io.Writer, records []*PatientRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExclusionColumns); err != nil {
		return fmt.Errorf("exclusion csv: write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.ExclusionRow()); err != nil {
			return fmt.Errorf("exclusion csv: write row %s: %w", rec.HCNumber, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
