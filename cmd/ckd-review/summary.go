package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/ckdreview/ckdreview/internal/domain/review"
	"github.com/ckdreview/ckdreview/internal/domain/triage"
)

func printSummary(w io.Writer, res *review.Result, outputDir string) {
	excluded := len(res.ExcludedRecords())
	fmt.Fprintf(w, "Run %s (as of %s)\n", res.RunID, res.AsOf.Format("2006-01-02"))
	fmt.Fprintf(w, "  Patients:  %d\n", len(res.Records))
	if excluded > 0 {
		fmt.Fprintf(w, "  Excluded:  %s\n", color.New(color.FgYellow).Sprintf("%d (missing required values)", excluded))
	} else {
		fmt.Fprintf(w, "  Excluded:  0\n")
	}
	if res.Orphaned > 0 {
		fmt.Fprintf(w, "  Orphaned rows dropped: %s\n", color.New(color.FgYellow).Sprint(res.Orphaned))
	}

	counts := res.TriageCounts()
	fmt.Fprintln(w, "  Triage:")
	for _, c := range orderedCategories(counts) {
		n := counts[c]
		label := string(c)
		switch {
		case c == triage.AKIReview || c == triage.AdvancedStageOverdue:
			label = color.New(color.FgRed).Sprint(label)
		case c.RequiresReview():
			label = color.New(color.FgYellow).Sprint(label)
		default:
			label = color.New(color.FgGreen).Sprint(label)
		}
		fmt.Fprintf(w, "    %5d  %s\n", n, label)
	}

	fmt.Fprintf(w, "  Review table:   %s\n", filepath.Join(outputDir, review.ReviewFileName(res.AsOf, ".csv")))
	fmt.Fprintf(w, "  Exclusion list: %s\n", filepath.Join(outputDir, review.ExclusionFile))
}

// orderedCategories lists the known categories in report order followed by
// any custom fallback labels that were assigned.
func orderedCategories(counts map[triage.Category]int) []triage.Category {
	var out []triage.Category
	known := make(map[triage.Category]bool, len(triage.Categories))
	for _, c := range triage.Categories {
		known[c] = true
		if counts[c] > 0 {
			out = append(out, c)
		}
	}
	for c := range counts {
		if !known[c] {
			out = append(out, c)
		}
	}
	return out
}
