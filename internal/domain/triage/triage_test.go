package triage

import (
	"testing"
	"time"

	"github.com/ckdreview/ckdreview/internal/domain/scoring"
)

func f(v float64) *float64 { return &v }

func at(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestClassify_BaseStage(t *testing.T) {
	c := Classify(ClassifyInput{EGFR: f(23), ACR: f(45), Date: at(2024, 5, 1)})
	if c.Base != scoring.Stage4 || c.Stage != scoring.Stage4 {
		t.Errorf("expected Stage 4, got base=%q final=%q", c.Base, c.Stage)
	}
	if c.Prior != scoring.StageNoData {
		t.Errorf("expected No Data prior stage, got %q", c.Prior)
	}
}

func TestClassify_NormalFunction(t *testing.T) {
	c := Classify(ClassifyInput{EGFR: f(94), ACR: f(1), Date: at(2024, 5, 1)})
	if c.Base != scoring.Stage1 {
		t.Errorf("expected base Stage 1, got %q", c.Base)
	}
	if c.Stage != scoring.NormalFunction {
		t.Errorf("expected Normal Function, got %q", c.Stage)
	}

	// Without a visit date the override does not apply.
	c = Classify(ClassifyInput{EGFR: f(94), ACR: f(1)})
	if c.Stage != scoring.Stage1 {
		t.Errorf("expected Stage 1 without a date, got %q", c.Stage)
	}
	// eGFR of exactly 60 is not above 60.
	c = Classify(ClassifyInput{EGFR: f(60), ACR: f(1), Date: at(2024, 5, 1)})
	if c.Stage != scoring.Stage2 {
		t.Errorf("expected Stage 2 at eGFR 60, got %q", c.Stage)
	}
}

func TestClassify_AKIHasHighestPrecedence(t *testing.T) {
	c := Classify(ClassifyInput{
		EGFR:      f(35),
		PriorEGFR: f(75),
		ACR:       f(2),
		Date:      at(2024, 5, 1),
		PriorDate: at(2024, 2, 1),
	})
	if c.Base != scoring.Stage3B {
		t.Errorf("expected base Stage 3B, got %q", c.Base)
	}
	if c.Prior != scoring.NormalFunction {
		t.Errorf("expected prior Normal Function, got %q", c.Prior)
	}
	if c.Stage != scoring.AcuteInjury {
		t.Errorf("expected Acute Kidney Injury, got %q", c.Stage)
	}
}

func TestIndicate(t *testing.T) {
	risk := &scoring.Risk{TwoYear: 12, FiveYear: 30}
	got := Indicate(scoring.Stage4, risk)
	if got.Nephrology != Indicated || got.Multidisciplinary != Indicated || got.ModalityEducation != NotIndicated {
		t.Errorf("unexpected indications: %+v", got)
	}
	got = Indicate(scoring.Stage2, risk)
	if got.Nephrology != NotIndicated {
		t.Errorf("expected no indication outside stages 3A-5, got %+v", got)
	}
	got = Indicate(scoring.Stage3A, &scoring.Risk{TwoYear: 1, FiveYear: 5})
	if got.Nephrology != Indicated {
		t.Errorf("expected nephrology at exactly 5%%, got %+v", got)
	}
	got = Indicate(scoring.Stage5, nil)
	if got.Nephrology != NotIndicated {
		t.Errorf("expected no indication without risk, got %+v", got)
	}
}

func TestAssign(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := at(2024, 5, 1)
	cases := []struct {
		name   string
		in     Input
		policy Policy
		want   Category
	}{
		{"no date", Input{Stage: scoring.Stage4}, DefaultPolicy(), DateUnavailable},
		{"stage 1 fine", Input{Stage: scoring.Stage1, VisitDate: recent, ACR: f(1)}, DefaultPolicy(), NoImmediateReview},
		{"normal function fine", Input{Stage: scoring.NormalFunction, VisitDate: recent, ACR: f(1)}, DefaultPolicy(), NoImmediateReview},
		{"stage 2 old", Input{Stage: scoring.Stage2, VisitDate: at(2023, 1, 1)}, DefaultPolicy(), EarlyStageReview},
		{"stage 2 acr", Input{Stage: scoring.Stage2, VisitDate: recent, ACR: f(4)}, DefaultPolicy(), EarlyStageReview},
		{"stage 2 acr exactly 3", Input{Stage: scoring.Stage2, VisitDate: recent, ACR: f(3)}, DefaultPolicy(), NoImmediateReview},
		{"stage 2 acr exactly 3 inclusive", Input{Stage: scoring.Stage2, VisitDate: recent, ACR: f(3)}, Policy{EarlyACRInclusive: true}, EarlyStageReview},
		{"stage 2 bp", Input{Stage: scoring.Stage2, VisitDate: recent, BPAboveTarget: true}, DefaultPolicy(), EarlyStageReview},
		{"stage 4 risk", Input{Stage: scoring.Stage4, VisitDate: recent, ACR: f(10), FiveYearRisk: f(26)}, DefaultPolicy(), AdvancedStageReview},
		{"stage 3a acr 30", Input{Stage: scoring.Stage3A, VisitDate: recent, ACR: f(30), FiveYearRisk: f(1)}, DefaultPolicy(), AdvancedStageReview},
		{"stage 3a overdue", Input{Stage: scoring.Stage3A, VisitDate: at(2024, 2, 1), ACR: f(5), FiveYearRisk: f(1)}, DefaultPolicy(), AdvancedStageOverdue},
		{"stage 3a fine", Input{Stage: scoring.Stage3A, VisitDate: recent, ACR: f(5), FiveYearRisk: f(1)}, DefaultPolicy(), NoImmediateReview},
		{"aki", Input{Stage: scoring.AcuteInjury, VisitDate: recent}, DefaultPolicy(), AKIReview},
		{"no data", Input{Stage: scoring.StageNoData, VisitDate: recent}, DefaultPolicy(), UnknownStage},
		{"custom fallback", Input{Stage: scoring.StageNoData, VisitDate: recent}, Policy{Fallback: DateUnavailable}, DateUnavailable},
	}
	for _, c := range cases {
		c.in.AsOf = asOf
		if got := Assign(c.in, c.policy); got != c.want {
			t.Errorf("%s: expected %q, got %q", c.name, c.want, got)
		}
	}
}

func TestAssign_AlwaysOneOfCategories(t *testing.T) {
	known := make(map[Category]bool)
	for _, c := range Categories {
		known[c] = true
	}
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	stages := []scoring.Stage{
		scoring.Stage1, scoring.Stage2, scoring.Stage3A, scoring.Stage3B, scoring.Stage4, scoring.Stage5,
		scoring.StageNoData, scoring.NormalFunction, scoring.AcuteInjury, "Stage 9",
	}
	for _, s := range stages {
		for _, d := range []*time.Time{nil, at(2024, 5, 30), at(2022, 1, 1)} {
			got := Assign(Input{Stage: s, VisitDate: d, AsOf: asOf, ACR: f(10)}, DefaultPolicy())
			if !known[got] {
				t.Errorf("stage %q: unexpected category %q", s, got)
			}
		}
	}
}

func TestCodingCheck(t *testing.T) {
	cases := []struct {
		term  string
		stage scoring.Stage
		want  string
	}{
		{"Chronic kidney disease stage 3A", scoring.Stage3A, CodingConsistent},
		{"CKD stage 3 with proteinuria", scoring.Stage3B, CodingConsistent},
		{"Chronic kidney disease stage 4", scoring.Stage3B, CodingMismatch},
		{NoEMISEntry, scoring.Stage4, CodingUncoded},
		{"", scoring.Stage2, CodingUncoded},
		{"Chronic kidney disease", scoring.Stage4, CodingNotApplicable},
		{"Chronic kidney disease stage 2", scoring.NormalFunction, CodingNotApplicable},
	}
	for _, c := range cases {
		if got := CodingCheck(c.term, c.stage); got != c.want {
			t.Errorf("CodingCheck(%q, %q): expected %q, got %q", c.term, c.stage, c.want, got)
		}
	}
}
