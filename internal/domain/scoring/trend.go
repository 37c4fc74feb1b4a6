package scoring

// eGFR trend labels.
const (
	TrendNoData        = "No Data"
	TrendRapidDecline  = "Rapid Decline"
	TrendStable        = "Stable"
	rapidAnnualDecline = -5.0
	rapidRelativeDrop  = 0.25
)

// EGFRTrend compares the current estimate with the one taken daysBetween
// days earlier. A fall of more than 5 units per year, or a drop of at least
// 25% relative to the prior value, is a rapid decline.
func EGFRTrend(current, prior *float64, daysBetween int) string {
	if current == nil || prior == nil || daysBetween == 0 {
		return TrendNoData
	}
	now, before := *current, *prior
	annualised := (now - before) * 365 / float64(daysBetween)
	if annualised < rapidAnnualDecline {
		return TrendRapidDecline
	}
	if before != 0 && (before-now)/before >= rapidRelativeDrop {
		return TrendRapidDecline
	}
	return TrendStable
}
