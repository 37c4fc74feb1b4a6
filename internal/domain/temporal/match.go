// Package temporal selects prior laboratory readings and backfills missing
// current values within one patient's extract rows.
package temporal

import (
	"sort"
	"time"

	"github.com/ckdreview/ckdreview/internal/domain/extract"
)

const day = 24 * time.Hour

// Reading is one dated numeric measurement.
type Reading struct {
	Date  time.Time
	Value float64
}

// MatchOptions controls prior-reading selection.
type MatchOptions struct {
	// Offset is how far before the current date the ideal prior reading lies.
	Offset time.Duration
	// Window bounds |candidate - target|. Zero or negative disables the bound.
	Window time.Duration
	// Slots lists the extract slots holding historical readings.
	Slots []int
}

// DefaultMatchOptions targets 90 days before the current reading, accepts
// candidates within 90 days of that target and reads the creatinine history
// slot.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		Offset: 90 * day,
		Window: 90 * day,
		Slots:  []int{extract.SlotCreatinineHistory},
	}
}

// ClosestPrior returns the candidate whose date is nearest to current-Offset.
// Candidates dated on or after current and candidates outside the window are
// ignored. Ties go to the earliest-dated candidate; equal dates keep input
// order. The input slice is not modified.
func ClosestPrior(current time.Time, candidates []Reading, opts MatchOptions) (Reading, bool) {
	if current.IsZero() || len(candidates) == 0 {
		return Reading{}, false
	}
	sorted := make([]Reading, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	target := current.Add(-opts.Offset)
	var (
		best     Reading
		bestDist time.Duration
		found    bool
	)
	for _, c := range sorted {
		if c.Date.IsZero() || !c.Date.Before(current) {
			continue
		}
		dist := absDuration(c.Date.Sub(target))
		if opts.Window > 0 && dist > opts.Window {
			continue
		}
		if !found || dist < bestDist {
			best, bestDist, found = c, dist, true
		}
	}
	return best, found
}

// Candidates collects every valid (date, value) pair from the given slots of
// a patient's rows.
func Candidates(rows []extract.Row, slots []int) []Reading {
	var out []Reading
	for _, r := range rows {
		for _, i := range slots {
			if i < 0 || i >= extract.NumSlots {
				continue
			}
			s := r.Slots[i]
			if !s.Valid() {
				continue
			}
			out = append(out, Reading{Date: *s.Date, Value: *s.Value})
		}
	}
	return out
}

// PriorCreatinine resolves the 3-months-prior reading for a patient whose
// current reading is dated current.
func PriorCreatinine(rows []extract.Row, current time.Time, opts MatchOptions) (Reading, bool) {
	return ClosestPrior(current, Candidates(rows, opts.Slots), opts)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
