package scoring

import (
	"strings"
	"testing"

	"github.com/ckdreview/ckdreview/internal/domain/reference"
)

func testTables() *reference.Tables {
	return &reference.Tables{
		Contraindicated: []reference.ThresholdDrug{
			reference.NewThresholdDrug("Metformin", 30, "https://bnf.example/metformin"),
			reference.NewThresholdDrug("Nitrofurantoin", 45, ""),
			reference.NewThresholdDrug("Metformin", 10, ""),
		},
		DoseAdjustment: []reference.ThresholdDrug{
			reference.NewThresholdDrug("Gabapentin", 60, ""),
		},
		Statins: reference.DefaultStatins,
		DiabetesMeds: []reference.NamedDrug{
			reference.NewNamedDrug("Metformin", "Glucophage"),
		},
		SGLT2Inhibitors: []reference.NamedDrug{
			reference.NewNamedDrug("Dapagliflozin", "Forxiga"),
		},
	}
}

func TestContraindicated_ThresholdAndWholeWord(t *testing.T) {
	tables := testTables()
	meds := "METFORMIN 500mg tablets, Nitrofurantoin 50mg"

	got := Contraindicated(tables, f(25), meds)
	if DrugNames(got, NoContraindications) != "Metformin, Nitrofurantoin" {
		t.Errorf("unexpected contraindications: %q", DrugNames(got, NoContraindications))
	}
	if got[0].BNFLink == "" {
		t.Error("expected BNF link to be carried")
	}

	// eGFR 40 is above the Metformin threshold.
	got = Contraindicated(tables, f(40), meds)
	if DrugNames(got, NoContraindications) != "Nitrofurantoin" {
		t.Errorf("unexpected contraindications: %q", DrugNames(got, NoContraindications))
	}

	if got := Contraindicated(tables, nil, meds); len(got) != 0 {
		t.Errorf("expected no candidates for undefined eGFR, got %v", got)
	}
	if got := Contraindicated(tables, f(20), "Metformins"); DrugNames(got, NoContraindications) != NoContraindications {
		t.Errorf("expected default label, got %q", DrugNames(got, NoContraindications))
	}
}

func TestDoseAdjustments(t *testing.T) {
	got := DoseAdjustments(testTables(), f(55), "gabapentin 300mg")
	if DrugNames(got, NoAdjustments) != "Gabapentin" {
		t.Errorf("unexpected adjustments: %q", DrugNames(got, NoAdjustments))
	}
	got = DoseAdjustments(testTables(), f(75), "gabapentin 300mg")
	if DrugNames(got, NoAdjustments) != NoAdjustments {
		t.Errorf("expected no adjustments, got %q", DrugNames(got, NoAdjustments))
	}
}

func TestStatinStatus(t *testing.T) {
	tables := testTables()
	if got := StatinStatus(tables, f(80), "atorvastatin 20mg"); got != StatinOn {
		t.Errorf("expected On Statin, got %q", got)
	}
	if got := StatinStatus(tables, f(45), "Ramipril"); got != StatinConsider {
		t.Errorf("expected Consider Statin for eGFR < 60, got %q", got)
	}
	if got := StatinStatus(tables, f(80), ""); got != StatinConsider {
		t.Errorf("expected Consider Statin without medications, got %q", got)
	}
	if got := StatinStatus(tables, f(80), "Ramipril"); got != StatinNotOn {
		t.Errorf("expected Not on Statin, got %q", got)
	}
}

func TestSGLT2Status(t *testing.T) {
	tables := testTables()
	cases := []struct {
		name string
		egfr *float64
		acr  *float64
		meds string
		want string
	}{
		{"already on", f(40), f(50), "Forxiga 10mg", SGLT2On},
		{"undefined egfr", nil, f(50), "Metformin", NoData},
		{"egfr too low", f(15), f(50), "Metformin", SGLT2NotInd},
		{"diabetic heavy albuminuria", f(40), f(31), "Metformin 1g", SGLT2Offer},
		{"diabetic moderate albuminuria", f(40), f(5), "Glucophage", SGLT2Consider},
		{"non-diabetic albuminuria", f(40), f(25), "Ramipril", SGLT2Consider},
		{"non-diabetic low albuminuria", f(40), f(10), "Ramipril", SGLT2NotInd},
	}
	for _, c := range cases {
		if got := SGLT2Status(tables, c.egfr, c.acr, c.meds); got != c.want {
			t.Errorf("%s: expected %q, got %q", c.name, c.want, got)
		}
	}
}

func TestGuidance_RecommendedMedications(t *testing.T) {
	g, err := DefaultGuidance()
	if err != nil {
		t.Fatalf("DefaultGuidance() error: %v", err)
	}

	got := g.RecommendedMedications(f(50), "Atorvastatin 20mg, Ramipril 5mg")
	if len(got) != 2 {
		t.Fatalf("expected 2 outstanding recommendations, got %v", got)
	}
	for _, rec := range got {
		if strings.HasPrefix(rec, "Statin") {
			t.Errorf("expected statin recommendation to be satisfied, got %q", rec)
		}
	}

	got = g.RecommendedMedications(f(10), "")
	if len(got) != 5 || !strings.HasPrefix(got[0], "Erythropoiesis") {
		t.Errorf("unexpected stage 5 recommendations: %v", got)
	}

	got = g.RecommendedMedications(f(95), "")
	if len(got) != 3 || got[2] != "Lifestyle modifications" {
		t.Errorf("unexpected catch-all recommendations: %v", got)
	}

	if got := g.RecommendedMedications(nil, ""); got != nil {
		t.Errorf("expected no recommendations for undefined eGFR, got %v", got)
	}
}

func TestGuidance_LifestyleAdvice(t *testing.T) {
	g, err := DefaultGuidance()
	if err != nil {
		t.Fatalf("DefaultGuidance() error: %v", err)
	}
	if got := g.LifestyleAdvice(Stage4); !strings.HasPrefix(got, "Refer to a renal dietitian") {
		t.Errorf("unexpected stage 4 advice: %q", got)
	}
	if got := g.LifestyleAdvice(StageNoData); !strings.HasPrefix(got, "Encourage general kidney health") {
		t.Errorf("unexpected default advice: %q", got)
	}
	if strings.Contains(g.LifestyleAdvice(Stage1), "\n") {
		t.Error("expected folded advice text")
	}
}
