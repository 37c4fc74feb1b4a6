package extract

import (
	"strconv"
	"strings"
	"time"
)

// DisplayDateLayout is the dd/mm/YYYY rendering used for backfilled and
// exported dates.
const DisplayDateLayout = "02/01/2006"

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{
	"2-Jan-06",
	"2006-01-02",
	"2/1/2006",
	"2-Jan-2006",
}

// ParseDate parses an extract date. Blank markers and unrecognized formats
// yield ok == false; the caller treats the field as missing.
func ParseDate(s string) (time.Time, bool) {
	if IsBlank(s) {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a numeric extract value. Blank markers and unparseable
// text yield ok == false.
func ParseNumber(s string) (float64, bool) {
	if IsBlank(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseDatePtr(s string) *time.Time {
	t, ok := ParseDate(s)
	if !ok {
		return nil
	}
	return &t
}

func parseNumberPtr(s string) *float64 {
	f, ok := ParseNumber(s)
	if !ok {
		return nil
	}
	return &f
}

// text returns s trimmed, or "" when s is a blank marker.
func text(s string) string {
	if IsBlank(s) {
		return ""
	}
	return strings.TrimSpace(s)
}
