// Package triage applies stage overrides, referral indications and the
// review triage category to a scored patient.
package triage

import (
	"time"

	"github.com/ckdreview/ckdreview/internal/domain/scoring"
)

// ClassifyInput carries the values the stage overrides depend on.
type ClassifyInput struct {
	EGFR      *float64 // rounded
	PriorEGFR *float64 // rounded
	ACR       *float64
	Date      *time.Time
	PriorDate *time.Time
}

// Classification is the outcome of stage precedence.
type Classification struct {
	// Base is the stage from eGFR banding alone.
	Base scoring.Stage
	// Stage is the final stage after overrides.
	Stage scoring.Stage
	// Prior is the 3-months-prior stage after the normal-function override.
	Prior scoring.Stage
}

// Classify resolves the CKD stage. Later rules override earlier ones:
//  1. eGFR banding.
//  2. Normal Function when ACR < 3, eGFR > 60 and a visit date exists.
//  3. Acute Kidney Injury when the prior stage resolves to Normal Function
//     under rule 2.
func Classify(in ClassifyInput) Classification {
	c := Classification{
		Base:  stageOf(in.EGFR),
		Prior: stageOf(in.PriorEGFR),
	}
	c.Stage = c.Base

	if normalFunction(in.EGFR, in.ACR, in.Date) {
		c.Stage = scoring.NormalFunction
	}
	if normalFunction(in.PriorEGFR, in.ACR, in.PriorDate) {
		c.Prior = scoring.NormalFunction
	}
	if c.Prior == scoring.NormalFunction {
		c.Stage = scoring.AcuteInjury
	}
	return c
}

func stageOf(egfr *float64) scoring.Stage {
	if egfr == nil {
		return scoring.StageNoData
	}
	return scoring.StageFromEGFR(*egfr, true)
}

func normalFunction(egfr, acr *float64, date *time.Time) bool {
	return egfr != nil && acr != nil && date != nil && *acr < 3 && *egfr > 60
}

// Referral indication labels.
const (
	Indicated    = "Indicated on the basis of risk calculation"
	NotIndicated = "Not Indicated"
)

// Indications are the risk-driven referral recommendations.
type Indications struct {
	Nephrology        string
	Multidisciplinary string
	ModalityEducation string
}

// Indicate derives referral indications for stages 3A to 5: nephrology when
// the 5-year risk is at least 5%, multidisciplinary care when the 2-year risk
// exceeds 10% and modality education when it exceeds 40%.
func Indicate(stage scoring.Stage, risk *scoring.Risk) Indications {
	out := Indications{NotIndicated, NotIndicated, NotIndicated}
	if risk == nil || !stage.Advanced() {
		return out
	}
	if risk.FiveYear >= 5 {
		out.Nephrology = Indicated
	}
	if risk.TwoYear > 10 {
		out.Multidisciplinary = Indicated
	}
	if risk.TwoYear > 40 {
		out.ModalityEducation = Indicated
	}
	return out
}
