package services

import (
	"math"

	"github.com/statwise/abengine/internal/models"
	"github.com/statwise/abengine/internal/stats"
	"github.com/statwise/abengine/internal/utils"
)

// SignificanceCalculator performs the pooled two-sample proportion z-test.
// It is stateless and safe for concurrent use.
type SignificanceCalculator struct{}

// NewSignificanceCalculator creates a new calculator instance.
func NewSignificanceCalculator() *SignificanceCalculator {
	return &SignificanceCalculator{}
}

// Compute runs the z-test for the difference between the treatment and
// control conversion rates at the given confidence level (e.g. 0.95).
// The p-value is two-tailed. The confidence interval for the rate
// difference uses the unpooled standard error; the test statistic uses
// the pooled one.
func (c *SignificanceCalculator) Compute(control, treatment models.SampleObservation, confidenceLevel float64) (*models.SignificanceResult, error) {
	if err := control.Validate(); err != nil {
		return nil, utils.NewInvalidInputErrorf("control arm: %v", err)
	}
	if err := treatment.Validate(); err != nil {
		return nil, utils.NewInvalidInputErrorf("treatment arm: %v", err)
	}

	critical, err := stats.CriticalValue(confidenceLevel)
	if err != nil {
		return nil, err
	}
	alpha := 1 - confidenceLevel

	pA := control.Rate()
	pB := treatment.Rate()
	nA := float64(control.Visitors)
	nB := float64(treatment.Visitors)

	pooled := float64(control.Conversions+treatment.Conversions) / (nA + nB)
	pooledSE := math.Sqrt(pooled * (1 - pooled) * (1/nA + 1/nB))

	// A zero pooled standard error means both arms converted identically at
	// 0% or 100%; there is no evidence either way.
	z := 0.0
	if pooledSE > 0 {
		z = (pB - pA) / pooledSE
	}

	pValue := 2 * (1 - stats.NormalCDF(math.Abs(z)))
	if pValue > 1 {
		pValue = 1
	}

	unpooledSE := math.Sqrt(pA*(1-pA)/nA + pB*(1-pB)/nB)
	diff := pB - pA

	relativeUplift := 0.0
	if pA > 0 {
		relativeUplift = diff / pA
	}

	// Achieved power, in percent, for the observed effect at this alpha.
	achieved := stats.NormalCDF(math.Abs(z)-critical) * 100
	if achieved < 0 {
		achieved = 0
	} else if achieved > 100 {
		achieved = 100
	}

	return &models.SignificanceResult{
		ControlRate:      pA,
		TreatmentRate:    pB,
		PooledProportion: pooled,
		StandardError:    pooledSE,
		ZScore:           z,
		PValue:           pValue,
		Significant:      pValue < alpha,
		ConfidenceLevel:  confidenceLevel,
		CILower:          diff - critical*unpooledSE,
		CIUpper:          diff + critical*unpooledSE,
		EffectSize:       cohensH(pA, pB),
		RelativeUplift:   relativeUplift,
		AchievedPower:    achieved,
	}, nil
}

// cohensH is the arcsine-transform standardized effect size for two
// proportions: 2*(asin(sqrt(pB)) - asin(sqrt(pA))).
func cohensH(pA, pB float64) float64 {
	return 2 * (math.Asin(math.Sqrt(pB)) - math.Asin(math.Sqrt(pA)))
}
