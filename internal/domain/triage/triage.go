package triage

import (
	"time"

	"github.com/ckdreview/ckdreview/internal/domain/scoring"
)

// Category is the review triage outcome used to route reports.
type Category string

const (
	DateUnavailable      Category = "Review Required - eGFR date unavailable"
	EarlyStageReview     Category = "Review Required - CKD Stage 1-2"
	AdvancedStageReview  Category = "Review Required - CKD Stage 3-5"
	AdvancedStageOverdue Category = "Review Required - CKD Stage 3-5 (>3 months since last eGFR)"
	AKIReview            Category = "Review Required - Acute Kidney Injury"
	NoImmediateReview    Category = "No immediate review required"
	UnknownStage         Category = "General Review - Unknown CKD Stage"
)

// Categories lists every category in report order.
var Categories = []Category{
	AKIReview,
	AdvancedStageReview,
	AdvancedStageOverdue,
	EarlyStageReview,
	DateUnavailable,
	UnknownStage,
	NoImmediateReview,
}

// RequiresReview reports whether the category asks for a clinical review.
func (c Category) RequiresReview() bool {
	return c != NoImmediateReview
}

// Policy holds the triage rules that vary between sites.
type Policy struct {
	// EarlyACRInclusive makes an ACR of exactly 3 trigger a stage 1-2
	// review.
	EarlyACRInclusive bool
	// Fallback is assigned when the stage is not recognised.
	Fallback Category
}

// DefaultPolicy returns the standard rules.
func DefaultPolicy() Policy {
	return Policy{Fallback: UnknownStage}
}

// Input carries the values triage depends on.
type Input struct {
	Stage         scoring.Stage
	VisitDate     *time.Time
	AsOf          time.Time
	ACR           *float64
	FiveYearRisk  *float64
	BPAboveTarget bool
}

// DaysSince returns whole days from visit to asOf.
func DaysSince(visit, asOf time.Time) int {
	return int(asOf.Sub(visit).Hours() / 24)
}

// Assign returns exactly one category for a patient.
func Assign(in Input, p Policy) Category {
	if in.VisitDate == nil {
		return DateUnavailable
	}
	days := DaysSince(*in.VisitDate, in.AsOf)

	switch {
	case in.Stage == scoring.AcuteInjury:
		return AKIReview

	case in.Stage.Early() || in.Stage == scoring.NormalFunction:
		acrRaised := in.ACR != nil && *in.ACR > 3
		if p.EarlyACRInclusive {
			acrRaised = in.ACR != nil && *in.ACR >= 3
		}
		if days > 365 || acrRaised || in.BPAboveTarget {
			return EarlyStageReview
		}
		return NoImmediateReview

	case in.Stage.Advanced():
		highRisk := in.FiveYearRisk != nil && *in.FiveYearRisk > 5
		if (in.ACR != nil && *in.ACR >= 30) || highRisk || days > 180 {
			return AdvancedStageReview
		}
		if days > 90 {
			return AdvancedStageOverdue
		}
		return NoImmediateReview
	}

	if p.Fallback == "" {
		return UnknownStage
	}
	return p.Fallback
}
