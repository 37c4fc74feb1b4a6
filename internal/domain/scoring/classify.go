package scoring

import (
	"github.com/ckdreview/ckdreview/internal/domain/extract"
)

// -- Blood pressure --

// BP classification labels.
const (
	BPSevere = "Severe Hypertension"
	BPStage2 = "Stage 2 Hypertension"
	BPStage1 = "Stage 1 Hypertension"
	BPNormal = "Normal"

	BPTargetStrict   = "<130/80"
	BPTargetStandard = "<140/90"
	BPAboveTarget    = "Above Target"
	BPOnTarget       = "On Target"
)

var bpBands = []struct {
	systolic, diastolic float64
	label               string
}{
	{180, 120, BPSevere},
	{160, 100, BPStage2},
	{140, 90, BPStage1},
}

// ClassifyBP grades a reading; either component reaching a band's threshold
// places the reading in that band.
func ClassifyBP(systolic, diastolic *float64) string {
	if systolic == nil || diastolic == nil {
		return NoData
	}
	for _, b := range bpBands {
		if *systolic >= b.systolic || *diastolic >= b.diastolic {
			return b.label
		}
	}
	return BPNormal
}

// BPTarget is <130/80 for heavy proteinuria (ACR >= 70) or poorly
// controlled diabetes (HbA1c > 53), otherwise <140/90.
func BPTarget(acr, hba1c *float64) string {
	if (acr != nil && *acr >= 70) || (hba1c != nil && *hba1c > 53) {
		return BPTargetStrict
	}
	return BPTargetStandard
}

// BPFlag compares a reading with its target.
func BPFlag(systolic, diastolic *float64, target string) string {
	if systolic == nil || diastolic == nil {
		return NoData
	}
	sys, dia := 140.0, 90.0
	if target == BPTargetStrict {
		sys, dia = 130, 80
	}
	if *systolic >= sys || *diastolic >= dia {
		return BPAboveTarget
	}
	return BPOnTarget
}

// -- Anaemia --

const (
	AnaemiaESA      = "Consider ESA/Iron"
	AnaemiaNoAction = "No Action Needed"
)

var anaemiaBands = map[string]Ladder{
	extract.GenderMale: {
		Steps: []Step{{130, "Normal"}, {110, "Mild Anaemia"}, {80, "Moderate Anaemia"}},
		Else:  "Severe Anaemia",
	},
	extract.GenderFemale: {
		Steps: []Step{{120, "Normal"}, {110, "Mild Anaemia"}, {80, "Moderate Anaemia"}},
		Else:  "Severe Anaemia",
	},
}

// ClassifyAnaemia grades haemoglobin (g/L) with sex-specific bands.
func ClassifyAnaemia(haemoglobin *float64, gender string) string {
	bands, ok := anaemiaBands[gender]
	if haemoglobin == nil || !ok {
		return NoData
	}
	return bands.Classify(*haemoglobin)
}

// AnaemiaFlag suggests ESA or iron below 110 g/L.
func AnaemiaFlag(haemoglobin *float64) string {
	if haemoglobin != nil && *haemoglobin < 110 {
		return AnaemiaESA
	}
	return AnaemiaNoAction
}

// -- Electrolytes and bone --

var (
	potassiumRange   = Range{Low: 3.5, High: 5.5, LowLabel: "Hypokalemia", HighLabel: "Hyperkalemia"}
	calciumRange     = Range{Low: 2.2, High: 2.6, LowLabel: "Hypocalcemia", HighLabel: "Hypercalcemia"}
	phosphateRange   = Range{Low: 0.8, High: 1.5, LowLabel: "Hypophosphatemia", HighLabel: "Hyperphosphatemia"}
	bicarbonateRange = Range{Low: 22, High: 29, LowLabel: "Low", HighLabel: "High"}
	parathyroidRange = Range{Low: 10, High: 65, LowLabel: "Low", HighLabel: "Elevated"}

	vitaminDBands = Ladder{
		Steps: []Step{{50, "Sufficient"}, {30, "Insufficient"}},
		Else:  "Deficient",
	}
)

func ClassifyPotassium(v *float64) string   { return potassiumRange.Classify(v) }
func ClassifyCalcium(v *float64) string     { return calciumRange.Classify(v) }
func ClassifyPhosphate(v *float64) string   { return phosphateRange.Classify(v) }
func ClassifyBicarbonate(v *float64) string { return bicarbonateRange.Classify(v) }
func ClassifyParathyroid(v *float64) string { return parathyroidRange.Classify(v) }

// ClassifyVitaminD grades 25-OH vitamin D (nmol/L).
func ClassifyVitaminD(v *float64) string {
	if v == nil {
		return Missing
	}
	return vitaminDBands.Classify(*v)
}

// CKD-MBD flag labels.
const (
	MBDCheck  = "Check CKD-MBD"
	MBDNormal = "Normal"
)

// CKDMBDFlag asks for a mineral and bone disorder review when calcium,
// phosphate or parathyroid hormone is abnormal. Missing results are not
// abnormal.
func CKDMBDFlag(calcium, phosphate, parathyroid string) string {
	for _, f := range []string{calcium, phosphate, parathyroid} {
		if f != Normal && f != Missing {
			return MBDCheck
		}
	}
	return MBDNormal
}

// -- Albuminuria --

var acrGrades = Ladder{
	Steps: []Step{{30, "A3"}, {3, "A2"}},
	Else:  "A1",
}

// ACRGrade returns the albuminuria category A1-A3.
func ACRGrade(acr *float64) string {
	if acr == nil {
		return NoData
	}
	return acrGrades.Classify(*acr)
}

// Proteinuria flag labels.
const (
	ProteinuriaSevere     = "Immediate Referral - Severe Proteinuria (ACR ≥70)"
	ProteinuriaHigh       = "High Proteinuria - Urgent Referral (ACR 30-69)"
	ProteinuriaPersistent = "Persistent Proteinuria - Consider Referral (ACR 3-29)"
	ProteinuriaACRMissing = "Review Required (ACR Missing)"
	ProteinuriaNone       = "No Referral Needed"
)

var proteinuriaBands = Ladder{
	Steps: []Step{
		{70, ProteinuriaSevere},
		{30, ProteinuriaHigh},
		{3, ProteinuriaPersistent},
	},
	Else: ProteinuriaNone,
}

// ProteinuriaFlag grades ACR for referral. An absent or imputed ACR asks
// for review instead.
func ProteinuriaFlag(acr *float64, imputed bool) string {
	if acr == nil || imputed {
		return ProteinuriaACRMissing
	}
	return proteinuriaBands.Classify(*acr)
}

// -- Diabetes --

const (
	HbA1cAdjust   = "Adjust Diabetes Management"
	HbA1cOnTarget = "On Target"
)

// HbA1cTarget flags HbA1c above 53 mmol/mol.
func HbA1cTarget(hba1c *float64) string {
	switch {
	case hba1c == nil:
		return NoData
	case *hba1c > 53:
		return HbA1cAdjust
	default:
		return HbA1cOnTarget
	}
}
