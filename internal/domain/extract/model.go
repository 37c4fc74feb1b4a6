package extract

import (
	"strings"
	"time"
)

// Source identifies which periodic extract a row was read from.
type Source string

const (
	SourceCreatinine Source = "creatinine"
	SourceCKDCheck   Source = "ckd_check"
)

// Slot indices of the parallel (Date.N, Value.N) columns in an extract.
const (
	SlotCreatinine        = 0
	SlotACR               = 1
	SlotCreatinineHistory = 2
	SlotSystolic          = 3
	SlotDiastolic         = 4
	SlotHaemoglobin       = 5
	SlotHbA1c             = 6
	SlotPotassium         = 7
	SlotPhosphate         = 8
	SlotCalcium           = 9
	SlotVitaminD          = 10
	SlotHeight            = 11
	SlotParathyroid       = 12
	SlotBicarbonate       = 13

	NumSlots = 16
)

// Column headers used by the EMIS extracts.
const (
	ColHCNumber    = "HC Number"
	ColAge         = "Age"
	ColGender      = "Gender"
	ColMedications = "Name, Dosage and Quantity"
	ColCodeTerm    = "Code Term"
	ColDate        = "Date"
	ColValue       = "Value"
)

// Slot is one (date, value) measurement pair. Raw text is kept alongside the
// parsed values so that blank markers can be told apart from malformed input.
type Slot struct {
	RawDate  string
	RawValue string
	Date     *time.Time
	Value    *float64
}

// Valid reports whether both the date and the value parsed.
func (s Slot) Valid() bool {
	return s.Date != nil && s.Value != nil
}

// Row is one measurement event from one source extract.
type Row struct {
	Line           int
	Source         Source
	HCNumber       string
	Age            *float64
	Gender         string
	Slots          [NumSlots]Slot
	Medications    string
	CodeTerm       string
	TransplantCode string
	DialysisCode   string
}

// Extract is the parsed content of one extract file.
type Extract struct {
	Source Source
	Path   string
	Rows   []Row
	// Orphaned counts leading rows dropped because no HC Number preceded them.
	Orphaned int
}

// Group is every row belonging to one patient, in file order.
type Group struct {
	HCNumber string
	Rows     []Row
}

// GroupByPatient partitions rows by HC Number, preserving first-appearance order.
func GroupByPatient(rows []Row) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range rows {
		i, ok := index[r.HCNumber]
		if !ok {
			i = len(groups)
			index[r.HCNumber] = i
			groups = append(groups, Group{HCNumber: r.HCNumber})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

var blankMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"none": true,
	"nan":  true,
}

// IsBlank reports whether s is empty, whitespace or one of the textual
// missing-value markers (na, n/a, null, none, nan), case-insensitively.
func IsBlank(s string) bool {
	return blankMarkers[strings.ToLower(strings.TrimSpace(s))]
}

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// NormalizeGender maps M/Male and F/Female to GenderMale and GenderFemale.
// Other recorded values such as "Indeterminate" are kept as written; blank
// markers yield "".
func NormalizeGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	default:
		return text(s)
	}
}
