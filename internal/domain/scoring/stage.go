package scoring

// Stage is a CKD stage label.
type Stage string

const (
	Stage1         Stage = "Stage 1"
	Stage2         Stage = "Stage 2"
	Stage3A        Stage = "Stage 3A"
	Stage3B        Stage = "Stage 3B"
	Stage4         Stage = "Stage 4"
	Stage5         Stage = "Stage 5"
	StageNoData    Stage = "No Data"
	NormalFunction Stage = "Normal Function"
	AcuteInjury    Stage = "Acute Kidney Injury"
)

// Early reports whether the stage is 1 or 2.
func (s Stage) Early() bool {
	return s == Stage1 || s == Stage2
}

// Advanced reports whether the stage is 3A through 5.
func (s Stage) Advanced() bool {
	switch s {
	case Stage3A, Stage3B, Stage4, Stage5:
		return true
	}
	return false
}

var stageBands = Ladder{
	Steps: []Step{
		{Min: 90, Label: string(Stage1)},
		{Min: 60, Label: string(Stage2)},
		{Min: 45, Label: string(Stage3A)},
		{Min: 30, Label: string(Stage3B)},
		{Min: 15, Label: string(Stage4)},
	},
	Else: string(Stage5),
}

// StageFromEGFR partitions an eGFR into a CKD stage. Values at or below zero
// and undefined estimates map to StageNoData.
func StageFromEGFR(egfr float64, ok bool) Stage {
	if !ok || egfr <= 0 {
		return StageNoData
	}
	return Stage(stageBands.Classify(egfr))
}
