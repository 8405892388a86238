package models

import (
	"github.com/google/uuid"

	"github.com/statwise/abengine/internal/utils"
)

// Sidedness selects between a one-tailed and a two-tailed hypothesis test.
type Sidedness string

const (
	OneTailed Sidedness = "one-tailed"
	TwoTailed Sidedness = "two-tailed"
)

// SampleObservation holds the raw counts for one experiment arm.
type SampleObservation struct {
	Visitors    int64 `json:"visitors"`
	Conversions int64 `json:"conversions"`
}

// Rate returns the observed conversion rate. It is only meaningful when
// Visitors > 0; callers must Validate first.
func (o SampleObservation) Rate() float64 {
	if o.Visitors == 0 {
		return 0
	}
	return float64(o.Conversions) / float64(o.Visitors)
}

// Validate checks that the observation is structurally sound.
func (o SampleObservation) Validate() error {
	if o.Visitors <= 0 {
		return utils.NewInvalidInputErrorf("visitors must be positive, got %d", o.Visitors)
	}
	if o.Conversions < 0 {
		return utils.NewInvalidInputErrorf("conversions must be non-negative, got %d", o.Conversions)
	}
	if o.Conversions > o.Visitors {
		return utils.NewInvalidInputErrorf("conversions (%d) exceed visitors (%d)", o.Conversions, o.Visitors)
	}
	return nil
}

// TestDesignParameters describes the fixed-horizon design of a two-arm test.
// Alpha and Power are fractions; MinimumDetectableEffect is a relative lift
// in percent against the baseline rate.
type TestDesignParameters struct {
	Alpha                   float64   `json:"alpha"`
	Power                   float64   `json:"power"`
	BaselineRate            float64   `json:"baseline_rate"`
	MinimumDetectableEffect float64   `json:"minimum_detectable_effect"`
	Sidedness               Sidedness `json:"sidedness"`
}

// Beta returns the type II error probability implied by the target power.
func (p TestDesignParameters) Beta() float64 {
	return 1 - p.Power
}

// Validate checks the parameters against the open-interval constraints of
// the normal quantile function. Alpha and beta at 0 or 1 have no finite
// critical value.
func (p TestDesignParameters) Validate() error {
	if p.Alpha <= 0 || p.Alpha >= 1 {
		return utils.NewDomainErrorf("alpha must be in (0,1), got %v", p.Alpha)
	}
	if p.Power <= 0 || p.Power >= 1 {
		return utils.NewDomainErrorf("power must be in (0,1), got %v", p.Power)
	}
	if p.BaselineRate <= 0 || p.BaselineRate >= 1 {
		return utils.NewDomainErrorf("baseline rate must be in (0,1), got %v", p.BaselineRate)
	}
	if p.Sidedness != OneTailed && p.Sidedness != TwoTailed {
		return utils.NewInvalidInputErrorf("unknown sidedness %q", p.Sidedness)
	}
	return nil
}

// ExperimentVariant is one arm of a multi-variant design. TrafficAllocation
// is a percentage; a valid design allocates exactly 100 across all variants
// and marks exactly one variant as control.
type ExperimentVariant struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	TrafficAllocation      float64 `json:"traffic_allocation"`
	ExpectedConversionRate float64 `json:"expected_conversion_rate"`
	IsControl              bool    `json:"is_control"`
}

// NewExperimentVariant creates a variant with a generated identifier.
func NewExperimentVariant(name string, allocation, expectedRate float64, isControl bool) ExperimentVariant {
	return ExperimentVariant{
		ID:                     uuid.New().String(),
		Name:                   name,
		TrafficAllocation:      allocation,
		ExpectedConversionRate: expectedRate,
		IsControl:              isControl,
	}
}

// SignificanceResult is the full output of a two-sample proportion z-test.
type SignificanceResult struct {
	ControlRate      float64 `json:"control_rate"`
	TreatmentRate    float64 `json:"treatment_rate"`
	PooledProportion float64 `json:"pooled_proportion"`
	StandardError    float64 `json:"standard_error"`
	ZScore           float64 `json:"z_score"`
	PValue           float64 `json:"p_value"`
	Significant      bool    `json:"significant"`
	ConfidenceLevel  float64 `json:"confidence_level"`
	CILower          float64 `json:"ci_lower"`
	CIUpper          float64 `json:"ci_upper"`
	EffectSize       float64 `json:"effect_size"`
	RelativeUplift   float64 `json:"relative_uplift"`
	AchievedPower    float64 `json:"achieved_power"`
}
