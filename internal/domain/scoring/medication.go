package scoring

import (
	"strings"

	"github.com/ckdreview/ckdreview/internal/domain/reference"
)

// Medication review labels.
const (
	NoContraindications = "No contraindications"
	NoAdjustments       = "No adjustments needed"

	StatinOn       = "On Statin"
	StatinConsider = "Consider Statin"
	StatinNotOn    = "Not on Statin"

	SGLT2On       = "On SGLT2i"
	SGLT2Offer    = "Offer SGLT2i"
	SGLT2Consider = "Consider SGLT2i"
	SGLT2NotInd   = "Not Indicated"
)

// sglt2MinEGFR is the lowest eGFR at which SGLT2 inhibitors are started.
const sglt2MinEGFR = 20

// Contraindicated returns the prescribed drugs whose contraindication
// threshold is at or above the patient's eGFR.
func Contraindicated(t *reference.Tables, egfr *float64, medications string) []reference.ThresholdDrug {
	return prescribedAtThreshold(t.Contraindicated, egfr, medications)
}

// DoseAdjustments returns the prescribed drugs needing a dose change at the
// patient's eGFR.
func DoseAdjustments(t *reference.Tables, egfr *float64, medications string) []reference.ThresholdDrug {
	return prescribedAtThreshold(t.DoseAdjustment, egfr, medications)
}

func prescribedAtThreshold(table []reference.ThresholdDrug, egfr *float64, medications string) []reference.ThresholdDrug {
	if egfr == nil || medications == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []reference.ThresholdDrug
	for _, d := range table {
		key := strings.ToLower(d.Drug)
		if seen[key] || !d.AppliesAt(*egfr) || !d.PrescribedIn(medications) {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// DrugNames joins drug names for display, or returns none when empty.
func DrugNames(drugs []reference.ThresholdDrug, none string) string {
	if len(drugs) == 0 {
		return none
	}
	names := make([]string, len(drugs))
	for i, d := range drugs {
		names[i] = d.Drug
	}
	return strings.Join(names, ", ")
}

// StatinStatus reports statin use by substring containment against the
// statin list.
func StatinStatus(t *reference.Tables, egfr *float64, medications string) string {
	lower := strings.ToLower(medications)
	for _, s := range t.Statins {
		if s != "" && strings.Contains(lower, strings.ToLower(s)) {
			return StatinOn
		}
	}
	if (egfr != nil && *egfr < 60) || strings.TrimSpace(medications) == "" {
		return StatinConsider
	}
	return StatinNotOn
}

// SGLT2Status recommends SGLT2 inhibition for CKD with albuminuria: offered
// to people with diabetes and ACR over 30, considered for people with
// diabetes and ACR of 3 or more, or without diabetes and ACR of 22.6 or
// more. eGFR must be at least 20.
func SGLT2Status(t *reference.Tables, egfr, acr *float64, medications string) string {
	for _, d := range t.SGLT2Inhibitors {
		if d.PrescribedIn(medications) {
			return SGLT2On
		}
	}
	if egfr == nil {
		return NoData
	}
	if *egfr < sglt2MinEGFR || acr == nil {
		return SGLT2NotInd
	}
	diabetic := false
	for _, d := range t.DiabetesMeds {
		if d.PrescribedIn(medications) {
			diabetic = true
			break
		}
	}
	switch {
	case diabetic && *acr > 30:
		return SGLT2Offer
	case diabetic && *acr >= 3:
		return SGLT2Consider
	case !diabetic && *acr >= 22.6:
		return SGLT2Consider
	default:
		return SGLT2NotInd
	}
}
