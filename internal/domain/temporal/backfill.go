package temporal

import (
	"github.com/ckdreview/ckdreview/internal/domain/extract"
)

// Backfill fills a missing current creatinine value or date in each of one
// patient's rows from the most recently dated creatinine history reading in
// the group. Present values are never overwritten. The returned rows are
// copies; the input is left untouched.
func Backfill(group []extract.Row) []extract.Row {
	out := make([]extract.Row, len(group))
	copy(out, group)

	latest := -1
	for i, r := range group {
		d := r.Slots[extract.SlotCreatinineHistory].Date
		if d == nil {
			continue
		}
		if latest < 0 || d.After(*group[latest].Slots[extract.SlotCreatinineHistory].Date) {
			latest = i
		}
	}
	if latest < 0 {
		return out
	}
	src := group[latest].Slots[extract.SlotCreatinineHistory]

	for i := range out {
		cur := out[i].Slots[extract.SlotCreatinine]
		if cur.Value == nil && src.Value != nil {
			v := *src.Value
			cur.Value = &v
			cur.RawValue = src.RawValue
		}
		if cur.Date == nil {
			d := *src.Date
			cur.Date = &d
			cur.RawDate = d.Format(extract.DisplayDateLayout)
		}
		out[i].Slots[extract.SlotCreatinine] = cur
	}
	return out
}
