package services

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/statwise/abengine/internal/models"
	"github.com/statwise/abengine/internal/utils"
)

// Traffic allocations may carry float rounding noise from UI sliders.
const allocationTolerance = 1e-6

// MultiVariantDesigner sizes an experiment with one control and one or more
// treatment variants, applying a Bonferroni correction so the family-wise
// error rate stays at the design alpha.
type MultiVariantDesigner struct {
	solver *PowerSolver
}

// NewMultiVariantDesigner creates a designer backed by a PowerSolver.
func NewMultiVariantDesigner() *MultiVariantDesigner {
	return &MultiVariantDesigner{
		solver: NewPowerSolver(),
	}
}

// validateVariants checks the structural invariants of a design: at least
// two variants, exactly one control, allocations summing to 100.
func validateVariants(variants []models.ExperimentVariant) (*models.ExperimentVariant, error) {
	if len(variants) < 2 {
		return nil, utils.NewInvalidDesignErrorf("a design needs at least 2 variants, got %d", len(variants))
	}

	var control *models.ExperimentVariant
	total := 0.0
	for i := range variants {
		v := &variants[i]
		if v.TrafficAllocation < 0 {
			return nil, utils.NewInvalidDesignErrorf("variant %q has negative traffic allocation %v", v.Name, v.TrafficAllocation)
		}
		total += v.TrafficAllocation
		if v.IsControl {
			if control != nil {
				return nil, utils.NewInvalidDesignError("design has more than one control variant")
			}
			control = v
		}
	}
	if control == nil {
		return nil, utils.NewInvalidDesignError("design has no control variant")
	}
	if math.Abs(total-100) > allocationTolerance {
		return nil, utils.NewInvalidDesignErrorf("traffic allocations must sum to 100, got %v", total)
	}
	return control, nil
}

// Design computes the sizing projection for a multi-variant experiment.
// exposure is the fraction of eligible traffic enrolled in the experiment,
// in (0,1]; the total sample requirement is inflated by 1/exposure to cover
// traffic the experiment never sees. Fails with InvalidDesignError for a
// structurally invalid variant set.
func (d *MultiVariantDesigner) Design(
	variants []models.ExperimentVariant,
	params models.TestDesignParameters,
	exposure float64,
	dailyTraffic int64,
	costPerVisitor decimal.Decimal,
) (*models.DesignAnalysis, error) {
	control, err := validateVariants(variants)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if exposure <= 0 || exposure > 1 {
		return nil, utils.NewInvalidDesignErrorf("traffic exposure must be in (0,1], got %v", exposure)
	}
	if dailyTraffic <= 0 {
		return nil, utils.NewInvalidInputErrorf("daily traffic must be positive, got %d", dailyTraffic)
	}
	if control.ExpectedConversionRate <= 0 || control.ExpectedConversionRate >= 1 {
		return nil, utils.NewInvalidDesignErrorf("control conversion rate must be in (0,1), got %v", control.ExpectedConversionRate)
	}

	comparisons := len(variants) - 1
	adjustedAlpha := params.Alpha / float64(comparisons)

	// Each comparison is sized independently; the most demanding one sets
	// the uniform per-variant requirement.
	var maxPerVariant int64
	for i := range variants {
		v := &variants[i]
		if v.IsControl {
			continue
		}
		effectPct := (v.ExpectedConversionRate - control.ExpectedConversionRate) / control.ExpectedConversionRate * 100
		if effectPct == 0 {
			return nil, utils.NewInvalidDesignErrorf("variant %q expects the same rate as control; no detectable effect to size for", v.Name)
		}
		n, err := d.solver.SolveSampleSize(control.ExpectedConversionRate, math.Abs(effectPct), params.Power, adjustedAlpha, params.Sidedness)
		if err != nil {
			return nil, err
		}
		if n > maxPerVariant {
			maxPerVariant = n
		}
	}

	perVariant := make(map[string]int64, len(variants))
	for i := range variants {
		perVariant[variants[i].ID] = maxPerVariant
	}

	experimentSample := maxPerVariant * int64(len(variants))
	totalSample := int64(math.Ceil(float64(experimentSample) / exposure))
	duration := int64(math.Ceil(float64(totalSample) / float64(dailyTraffic)))

	return &models.DesignAnalysis{
		TotalSampleSize:      totalSample,
		PerVariantSampleSize: perVariant,
		ExpectedDurationDays: duration,
		AdjustedAlpha:        adjustedAlpha,
		EstimatedCost:        costPerVisitor.Mul(decimal.NewFromInt(totalSample)),
	}, nil
}
