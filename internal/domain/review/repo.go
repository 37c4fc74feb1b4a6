package review

import (
	"context"
	"fmt"
	"time"
)

// SnapshotRepository persists the result of one run.
type SnapshotRepository interface {
	Save(ctx context.Context, res *Result) error
}

// Output file naming.
const (
	ReviewFilePrefix = "eGFR_check_"
	ExclusionFile    = "missing_data_subjects.csv"
)

// ReviewFileName returns the dated review table name for the given
// extension, e.g. "eGFR_check_2024-06-01.csv".
func ReviewFileName(asOf time.Time, ext string) string {
	return fmt.Sprintf("%s%s%s", ReviewFilePrefix, asOf.Format("2006-01-02"), ext)
}

// SaveAll writes the result to every repository in order, stopping at the
// first failure.
func SaveAll(ctx context.Context, res *Result, repos ...SnapshotRepository) error {
	for _, repo := range repos {
		if err := repo.Save(ctx, res); err != nil {
			return err
		}
	}
	return nil
}
