package triage

import (
	"regexp"
	"strings"

	"github.com/ckdreview/ckdreview/internal/domain/scoring"
)

// NoEMISEntry is the coding state given to patients absent from the CKD
// register extract.
const NoEMISEntry = "No EMIS CKD entry"

// EMIS coding check labels.
const (
	CodingConsistent    = "Consistent"
	CodingMismatch      = "Staging Mismatch"
	CodingUncoded       = "Uncoded CKD"
	CodingNotApplicable = "Not Applicable"
)

var codedStage = regexp.MustCompile(`(?i)stage\s*([1-5])\s*([ab])?\b`)

// CodedStage extracts the stage from an EMIS code term such as
// "Chronic kidney disease stage 3A". Stage 3 without a suffix yields
// "Stage 3".
func CodedStage(codeTerm string) (string, bool) {
	m := codedStage.FindStringSubmatch(codeTerm)
	if m == nil {
		return "", false
	}
	return "Stage " + m[1] + strings.ToUpper(m[2]), true
}

// CodingCheck compares the coded register stage with the computed one.
func CodingCheck(codeTerm string, stage scoring.Stage) string {
	if stage != scoring.Stage1 && stage != scoring.Stage2 && !stage.Advanced() {
		return CodingNotApplicable
	}
	term := strings.TrimSpace(codeTerm)
	if term == "" || strings.EqualFold(term, NoEMISEntry) {
		return CodingUncoded
	}
	coded, ok := CodedStage(term)
	if !ok {
		return CodingNotApplicable
	}
	if coded == string(stage) || (coded == "Stage 3" && (stage == scoring.Stage3A || stage == scoring.Stage3B)) {
		return CodingConsistent
	}
	return CodingMismatch
}
