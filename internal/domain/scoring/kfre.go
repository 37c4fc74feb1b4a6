package scoring

import (
	"math"

	"github.com/ckdreview/ckdreview/internal/domain/extract"
)

// Kidney Failure Risk Equation (4-variable, non-North American calibration).
const (
	kfreAgeMean   = 7.036
	kfreSexMean   = 0.5642
	kfreEGFRMean  = 7.222
	kfreACRMean   = 5.137
	kfreACRScale  = 0.113
	kfreAgeCoef   = -0.2201
	kfreSexCoef   = 0.2467
	kfreEGFRCoef  = -0.5567
	kfreACRCoef   = 0.4510
	kfreBase2Year = 0.9878
	kfreBase5Year = 0.9570

	// DefaultACRZeroSubstitute replaces an ACR of zero before the logarithm.
	DefaultACRZeroSubstitute = 0.019
)

// InsufficientData marks risk fields of records that could not be scored.
const InsufficientData = "Error: Missing required values"

// KFREOptions tunes the risk calculation.
type KFREOptions struct {
	ACRZeroSubstitute float64
}

// DefaultKFREOptions returns the standard options.
func DefaultKFREOptions() KFREOptions {
	return KFREOptions{ACRZeroSubstitute: DefaultACRZeroSubstitute}
}

// KFREInput holds the four covariates. Nil means missing.
type KFREInput struct {
	Age    *float64
	Gender string
	EGFR   *float64
	ACR    *float64 // mg/mmol
}

// Missing lists the names of absent covariates.
func (in KFREInput) Missing() []string {
	var out []string
	if in.Age == nil {
		out = append(out, "Age")
	}
	if in.Gender != extract.GenderMale && in.Gender != extract.GenderFemale {
		out = append(out, "Gender")
	}
	if in.EGFR == nil {
		out = append(out, "eGFR")
	}
	if in.ACR == nil || *in.ACR < 0 {
		out = append(out, "ACR")
	}
	return out
}

// Risk is a pair of kidney-failure probabilities in percent.
type Risk struct {
	TwoYear  float64
	FiveYear float64
	// ACRImputed is set when a recorded ACR of zero was replaced by the
	// substitute value.
	ACRImputed bool
	ACRUsed    float64
}

// KFRE returns the 2- and 5-year kidney failure risk. ok is false when any
// covariate is missing.
func KFRE(in KFREInput, opts KFREOptions) (Risk, bool) {
	if len(in.Missing()) > 0 {
		return Risk{}, false
	}
	acr := *in.ACR
	imputed := false
	if acr == 0 {
		acr = opts.ACRZeroSubstitute
		imputed = true
	}
	if acr <= 0 {
		return Risk{}, false
	}

	sex := 0.0
	if in.Gender == extract.GenderMale {
		sex = 1
	}
	l := kfreAgeCoef*(*in.Age/10-kfreAgeMean) +
		kfreSexCoef*(sex-kfreSexMean) +
		kfreEGFRCoef*(*in.EGFR/5-kfreEGFRMean) +
		kfreACRCoef*(math.Log(acr/kfreACRScale)-kfreACRMean)

	return Risk{
		TwoYear:    riskPercent(kfreBase2Year, l),
		FiveYear:   riskPercent(kfreBase5Year, l),
		ACRImputed: imputed,
		ACRUsed:    acr,
	}, true
}

func riskPercent(base, l float64) float64 {
	r := (1 - math.Pow(base, math.Exp(l))) * 100
	r = math.Max(0, math.Min(100, r))
	return math.Round(r*100) / 100
}
