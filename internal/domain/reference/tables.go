// Package reference loads the drug reference tables used for medication
// safety checks. Tables are loaded once per run and are read-only afterwards.
package reference

import (
	"regexp"
	"strings"
)

// ThresholdDrug is a drug that becomes relevant when a patient's eGFR is at
// or below Threshold.
type ThresholdDrug struct {
	Drug      string
	Threshold float64
	BNFLink   string

	pattern *regexp.Regexp
}

// NewThresholdDrug builds an entry with its whole-word matcher compiled.
func NewThresholdDrug(drug string, threshold float64, bnfLink string) ThresholdDrug {
	return ThresholdDrug{
		Drug:      drug,
		Threshold: threshold,
		BNFLink:   bnfLink,
		pattern:   WholeWord(drug),
	}
}

// AppliesAt reports whether the drug's threshold covers the given eGFR.
func (d ThresholdDrug) AppliesAt(egfr float64) bool {
	return d.Threshold >= egfr
}

// PrescribedIn reports whether the drug name occurs as a whole word in the
// medication text, ignoring case.
func (d ThresholdDrug) PrescribedIn(medications string) bool {
	if d.pattern == nil {
		return WholeWord(d.Drug).MatchString(medications)
	}
	return d.pattern.MatchString(medications)
}

// NamedDrug is a generic name with its brand name.
type NamedDrug struct {
	Name  string
	Brand string

	patterns []*regexp.Regexp
}

// NewNamedDrug builds an entry matching either the generic or brand name.
func NewNamedDrug(name, brand string) NamedDrug {
	d := NamedDrug{Name: name, Brand: brand}
	for _, s := range []string{name, brand} {
		if strings.TrimSpace(s) != "" {
			d.patterns = append(d.patterns, WholeWord(s))
		}
	}
	return d
}

// PrescribedIn reports whether the generic or brand name occurs as a whole
// word in the medication text, ignoring case.
func (d NamedDrug) PrescribedIn(medications string) bool {
	for _, p := range d.patterns {
		if p.MatchString(medications) {
			return true
		}
	}
	return false
}

// Tables holds every reference table for one run.
type Tables struct {
	Contraindicated []ThresholdDrug
	DoseAdjustment  []ThresholdDrug
	Statins         []string
	DiabetesMeds    []NamedDrug
	SGLT2Inhibitors []NamedDrug
}

// DefaultStatins is used when no statin list is supplied.
var DefaultStatins = []string{
	"Atorvastatin",
	"Fluvastatin",
	"Pravastatin",
	"Rosuvastatin",
	"Simvastatin",
	"Pitavastatin",
	"Lovastatin",
}

// WholeWord compiles a case-insensitive whole-word matcher for a literal term.
func WholeWord(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.TrimSpace(term)) + `\b`)
}
