// Package review derives the CKD register review table: it merges the
// extracts into one record per patient, scores and classifies each record,
// assigns a triage category and persists the snapshot.
package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/ckdreview/ckdreview/internal/domain/extract"
	"github.com/ckdreview/ckdreview/internal/domain/reference"
	"github.com/ckdreview/ckdreview/internal/domain/scoring"
	"github.com/ckdreview/ckdreview/internal/domain/triage"
)

// PatientRecord is one patient's merged and derived review row. It is
// created at merge, filled in by each derivation step and frozen once the
// triage category is set.
type PatientRecord struct {
	RunID    uuid.UUID
	HCNumber string
	Source   extract.Source

	Age              *float64
	Gender           string
	Medications      string
	EMISCKDCode      string
	TransplantKidney string
	Dialysis         string

	SampleDate        *time.Time
	Creatinine        *float64
	Creatinine3mPrior *float64
	Date3mPrior       *time.Time

	ACR         *float64
	Systolic    *float64
	Diastolic   *float64
	Haemoglobin *float64
	HbA1c       *float64
	Potassium   *float64
	Phosphate   *float64
	Calcium     *float64
	VitaminD    *float64
	Height      *float64
	Parathyroid *float64
	Bicarbonate *float64

	// EGFR and EGFR3mPrior are rounded to whole numbers.
	EGFR        *float64
	EGFR3mPrior *float64
	EGFRTrend   string
	BaseStage   scoring.Stage
	CKDStage    scoring.Stage
	CKDStage3m  scoring.Stage
	ACRGrade    string

	// Risk is nil when the record was excluded from risk scoring.
	Risk          *scoring.Risk
	MissingFields []string

	BPClass         string
	BPTarget        string
	BPFlag          string
	Anaemia         string
	AnaemiaFlag     string
	PotassiumFlag   string
	CalciumFlag     string
	PhosphateFlag   string
	BicarbonateFlag string
	ParathyroidFlag string
	VitaminDFlag    string
	CKDMBDFlag      string
	Proteinuria     string
	HbA1cTarget     string

	Contraindicated []reference.ThresholdDrug
	DoseAdjustments []reference.ThresholdDrug
	Statin          string
	SGLT2           string
	Recommended     []string
	Lifestyle       string

	Indications    triage.Indications
	CodingCheck    string
	DaysSinceVisit *int
	Triage         triage.Category
}

// Excluded reports whether the record lacked the inputs for risk scoring.
func (r *PatientRecord) Excluded() bool {
	return r.Risk == nil
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID     uuid.UUID
	AsOf      time.Time
	StartedAt time.Time
	Sources   map[extract.Source]string
	Records   []*PatientRecord
	Orphaned  int
}

// ExcludedRecords returns the records not scored for risk.
func (res *Result) ExcludedRecords() []*PatientRecord {
	var out []*PatientRecord
	for _, r := range res.Records {
		if r.Excluded() {
			out = append(out, r)
		}
	}
	return out
}

// TriageCounts tallies records per triage category.
func (res *Result) TriageCounts() map[triage.Category]int {
	counts := make(map[triage.Category]int)
	for _, r := range res.Records {
		counts[r.Triage]++
	}
	return counts
}
