package scoring

// Step is one rung of a Ladder: values at or above Min get Label.
type Step struct {
	Min   float64
	Label string
}

// Ladder maps a value to the label of the first step whose Min it reaches.
// Steps are ordered by descending Min.
type Ladder struct {
	Steps []Step
	Else  string
}

// Classify returns the label for v.
func (l Ladder) Classify(v float64) string {
	for _, s := range l.Steps {
		if v >= s.Min {
			return s.Label
		}
	}
	return l.Else
}

// Range flags values strictly below Low or strictly above High.
type Range struct {
	Low       float64
	High      float64
	LowLabel  string
	HighLabel string
}

// Classify returns the flag for v, or Normal when v is within range. A nil
// value yields Missing.
func (r Range) Classify(v *float64) string {
	switch {
	case v == nil:
		return Missing
	case *v > r.High:
		return r.HighLabel
	case *v < r.Low:
		return r.LowLabel
	default:
		return Normal
	}
}

// Shared labels.
const (
	Missing = "Missing"
	Normal  = "Normal"
	NoData  = "No Data"
)
