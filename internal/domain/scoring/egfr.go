// Package scoring computes kidney-function scores and clinical flags. Every
// function here is pure: results depend only on the arguments.
package scoring

import (
	"math"

	"github.com/ckdreview/ckdreview/internal/domain/extract"
)

// CreatinineMgPerDL converts µmol/L to mg/dL.
const CreatinineMgPerDL = 88.42

// EGFRInput holds the covariates for an eGFR estimate. Nil means missing.
type EGFRInput struct {
	Age        *float64
	Gender     string
	Creatinine *float64 // µmol/L
	Height     *float64 // cm, used for under-18s only
}

// EGFR estimates glomerular filtration rate in mL/min/1.73m². Patients under
// 18 use the bedside Schwartz equation and need a height; adults use the
// race-free CKD-EPI 2009 equation. Any recorded gender other than female
// takes the male coefficients. ok is false when a required input is missing
// or not positive.
func EGFR(in EGFRInput) (float64, bool) {
	if in.Age == nil || in.Gender == "" || in.Creatinine == nil || *in.Creatinine <= 0 {
		return 0, false
	}
	female := in.Gender == extract.GenderFemale
	scr := *in.Creatinine / CreatinineMgPerDL

	if *in.Age < 18 {
		if in.Height == nil || *in.Height <= 0 {
			return 0, false
		}
		return 0.413 * *in.Height / scr, true
	}

	k, alpha := 0.9, -0.302
	if female {
		k, alpha = 0.7, -0.241
	}
	s := scr / k
	egfr := 142 *
		math.Pow(math.Min(s, 1), alpha) *
		math.Pow(math.Max(s, 1), -1.200) *
		math.Pow(0.9938, *in.Age)
	if female {
		egfr *= 1.012
	}
	if math.IsNaN(egfr) || math.IsInf(egfr, 0) {
		return 0, false
	}
	return egfr, true
}

// RoundEGFR rounds an estimate to the whole number used for display and
// staging.
func RoundEGFR(v float64) float64 {
	return math.Round(v)
}
