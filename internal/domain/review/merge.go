package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/ckdreview/ckdreview/internal/domain/extract"
	"github.com/ckdreview/ckdreview/internal/domain/triage"
)

// MergeMode selects which extracts contribute patients.
type MergeMode string

const (
	// MergeAll takes every CKD register patient, then creatinine-only
	// patients.
	MergeAll        MergeMode = "merged"
	MergeCKDCheck   MergeMode = "ckd_check"
	MergeCreatinine MergeMode = "creatinine"
)

// ParseMergeMode validates a merge mode name.
func ParseMergeMode(s string) (MergeMode, error) {
	switch m := MergeMode(strings.ToLower(strings.TrimSpace(s))); m {
	case MergeAll, MergeCKDCheck, MergeCreatinine:
		return m, nil
	case "":
		return MergeAll, nil
	default:
		return "", fmt.Errorf("invalid merge mode %q: must be merged, ckd_check or creatinine", s)
	}
}

// Merge groups the extract rows by patient. When a patient appears in both
// extracts only the CKD register rows are kept. Creatinine-extract rows are
// coded as having no EMIS CKD entry.
func Merge(ckdCheck, creatinine []extract.Row, mode MergeMode) []extract.Group {
	creat := make([]extract.Row, len(creatinine))
	for i, r := range creatinine {
		r.CodeTerm = triage.NoEMISEntry
		creat[i] = r
	}

	switch mode {
	case MergeCKDCheck:
		return extract.GroupByPatient(ckdCheck)
	case MergeCreatinine:
		return extract.GroupByPatient(creat)
	}

	groups := extract.GroupByPatient(ckdCheck)
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		seen[g.HCNumber] = true
	}
	for _, g := range extract.GroupByPatient(creat) {
		if !seen[g.HCNumber] {
			groups = append(groups, g)
		}
	}
	return groups
}

// AggregateMedications joins a patient's medication lines with ", ",
// dropping blanks and case-insensitive duplicates while keeping first-seen
// order.
func AggregateMedications(rows []extract.Row) string {
	seen := make(map[string]bool)
	var meds []string
	for _, r := range rows {
		m := strings.TrimSpace(r.Medications)
		if m == "" {
			continue
		}
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		meds = append(meds, m)
	}
	return strings.Join(meds, ", ")
}

// Collapse builds the base record for one patient group. The current
// creatinine comes from the row with the latest creatinine date; every other
// measurement takes its most recently dated reading in the group.
func Collapse(g extract.Group) *PatientRecord {
	rec := &PatientRecord{HCNumber: g.HCNumber}
	if len(g.Rows) == 0 {
		return rec
	}

	cur := currentRow(g.Rows)
	rec.Source = cur.Source
	creat := cur.Slots[extract.SlotCreatinine]
	rec.Creatinine = copyFloat(creat.Value)
	rec.SampleDate = copyTime(creat.Date)

	rec.Age = cur.Age
	rec.Gender = cur.Gender
	for _, r := range g.Rows {
		if rec.Age == nil {
			rec.Age = r.Age
		}
		if rec.Gender == "" {
			rec.Gender = r.Gender
		}
		rec.EMISCKDCode = firstNonBlank(rec.EMISCKDCode, r.CodeTerm)
		rec.TransplantKidney = firstNonBlank(rec.TransplantKidney, r.TransplantCode)
		rec.Dialysis = firstNonBlank(rec.Dialysis, r.DialysisCode)
	}
	rec.Age = copyFloat(rec.Age)
	rec.Medications = AggregateMedications(g.Rows)

	rec.ACR = latest(g.Rows, extract.SlotACR)
	rec.Systolic = latest(g.Rows, extract.SlotSystolic)
	rec.Diastolic = latest(g.Rows, extract.SlotDiastolic)
	rec.Haemoglobin = latest(g.Rows, extract.SlotHaemoglobin)
	rec.HbA1c = latest(g.Rows, extract.SlotHbA1c)
	rec.Potassium = latest(g.Rows, extract.SlotPotassium)
	rec.Phosphate = latest(g.Rows, extract.SlotPhosphate)
	rec.Calcium = latest(g.Rows, extract.SlotCalcium)
	rec.VitaminD = latest(g.Rows, extract.SlotVitaminD)
	rec.Height = latest(g.Rows, extract.SlotHeight)
	rec.Parathyroid = latest(g.Rows, extract.SlotParathyroid)
	rec.Bicarbonate = latest(g.Rows, extract.SlotBicarbonate)
	return rec
}

// currentRow picks the row with the latest creatinine date, or the first row
// when none is dated. Ties keep the earlier row.
func currentRow(rows []extract.Row) extract.Row {
	best := 0
	var bestDate *time.Time
	for i, r := range rows {
		d := r.Slots[extract.SlotCreatinine].Date
		if d == nil {
			continue
		}
		if bestDate == nil || d.After(*bestDate) {
			best, bestDate = i, d
		}
	}
	return rows[best]
}

// latest returns the most recently dated value in a slot, falling back to
// the first undated value.
func latest(rows []extract.Row, slot int) *float64 {
	var (
		val      *float64
		valDate  *time.Time
		fallback *float64
	)
	for _, r := range rows {
		s := r.Slots[slot]
		if s.Value == nil {
			continue
		}
		if s.Date == nil {
			if fallback == nil {
				fallback = s.Value
			}
			continue
		}
		if valDate == nil || s.Date.After(*valDate) {
			val, valDate = s.Value, s.Date
		}
	}
	if val == nil {
		val = fallback
	}
	return copyFloat(val)
}

func firstNonBlank(cur, next string) string {
	if cur != "" {
		return cur
	}
	return strings.TrimSpace(next)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
