package review

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ckdreview/ckdreview/internal/domain/extract"
	"github.com/ckdreview/ckdreview/internal/domain/reference"
	"github.com/ckdreview/ckdreview/internal/domain/scoring"
)

var asOf = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func num(v float64) *float64 { return &v }

// reading sets one slot of a row.
type reading struct {
	slot  int
	date  time.Time
	value float64
}

func patientRow(source extract.Source, hc string, age float64, gender string, readings ...reading) extract.Row {
	r := extract.Row{
		Source:   source,
		HCNumber: hc,
		Age:      num(age),
		Gender:   gender,
	}
	for _, rd := range readings {
		d, v := rd.date, rd.value
		r.Slots[rd.slot] = extract.Slot{
			RawDate:  d.Format(extract.DisplayDateLayout),
			RawValue: "x",
			Date:     &d,
			Value:    &v,
		}
	}
	return r
}

func testTables() *reference.Tables {
	return &reference.Tables{
		Contraindicated: []reference.ThresholdDrug{
			reference.NewThresholdDrug("Metformin", 30, "https://bnf.example/metformin"),
		},
		DoseAdjustment: []reference.ThresholdDrug{
			reference.NewThresholdDrug("Gabapentin", 50, ""),
		},
		Statins: reference.DefaultStatins,
	}
}

func testService(opts Options) *Service {
	guidance, err := scoring.DefaultGuidance()
	if err != nil {
		panic(err)
	}
	opts.AsOf = asOf
	return NewService(testTables(), guidance, opts, zerolog.Nop())
}
