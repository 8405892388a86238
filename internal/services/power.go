package services

import (
	"math"

	"github.com/statwise/abengine/internal/models"
	"github.com/statwise/abengine/internal/stats"
	"github.com/statwise/abengine/internal/utils"
)

const (
	// Bisection bracket over relative effect size, in percent.
	mdeSearchLow  = 1.0
	mdeSearchHigh = 100.0
	// Converged when the bracket narrows below 0.1 percentage points.
	mdeTolerance     = 0.1
	mdeMaxIterations = 50
)

// PowerSolver solves the three-way relationship between statistical power,
// per-arm sample size and minimum detectable effect for a two-proportion
// test, holding the other two quantities fixed. All methods are pure.
type PowerSolver struct{}

// NewPowerSolver creates a new solver instance.
func NewPowerSolver() *PowerSolver {
	return &PowerSolver{}
}

// alphaQuantile returns the critical z for the given alpha and sidedness.
func alphaQuantile(alpha float64, sidedness models.Sidedness) (float64, error) {
	if alpha <= 0 || alpha >= 1 {
		return 0, utils.NewDomainErrorf("alpha must be in (0,1), got %v", alpha)
	}
	if sidedness == models.TwoTailed {
		return stats.NormalQuantile(1 - alpha/2)
	}
	return stats.NormalQuantile(1 - alpha)
}

// treatmentRate applies a relative effect in percent to the baseline rate,
// checking that the shifted rate stays a valid probability.
func treatmentRate(baselineRate, effectPct float64) (float64, error) {
	if baselineRate <= 0 || baselineRate >= 1 {
		return 0, utils.NewDomainErrorf("baseline rate must be in (0,1), got %v", baselineRate)
	}
	p2 := baselineRate * (1 + effectPct/100)
	if p2 <= 0 || p2 >= 1 {
		return 0, utils.NewDomainErrorf("effect of %v%% on baseline %v yields rate %v outside (0,1)", effectPct, baselineRate, p2)
	}
	return p2, nil
}

// SolvePower returns the power, as a fraction in [0,1], of a two-proportion
// test with n observations per arm detecting a relative effect of effectPct
// percent over the baseline rate.
func (s *PowerSolver) SolvePower(baselineRate, effectPct float64, n int64, alpha float64, sidedness models.Sidedness) (float64, error) {
	if n <= 0 {
		return 0, utils.NewInvalidInputErrorf("sample size must be positive, got %d", n)
	}
	p2, err := treatmentRate(baselineRate, effectPct)
	if err != nil {
		return 0, err
	}
	zAlpha, err := alphaQuantile(alpha, sidedness)
	if err != nil {
		return 0, err
	}

	p1 := baselineRate
	pBar := (p1 + p2) / 2
	nf := float64(n)

	seNull := math.Sqrt(2 * pBar * (1 - pBar) / nf)
	seAlt := math.Sqrt((p1*(1-p1) + p2*(1-p2)) / nf)
	if seAlt == 0 {
		return 0, nil
	}

	zBeta := (math.Abs(p2-p1) - zAlpha*seNull) / seAlt
	return stats.NormalCDF(zBeta), nil
}

// SolveSampleSize returns the per-arm sample size needed to detect a
// relative effect of effectPct percent over the baseline rate with the
// target power (a fraction in (0,1)), rounded up to the next integer.
func (s *PowerSolver) SolveSampleSize(baselineRate, effectPct, targetPower, alpha float64, sidedness models.Sidedness) (int64, error) {
	if targetPower <= 0 || targetPower >= 1 {
		return 0, utils.NewDomainErrorf("target power must be in (0,1), got %v", targetPower)
	}
	p2, err := treatmentRate(baselineRate, effectPct)
	if err != nil {
		return 0, err
	}
	zAlpha, err := alphaQuantile(alpha, sidedness)
	if err != nil {
		return 0, err
	}
	zBeta, err := stats.NormalQuantile(targetPower)
	if err != nil {
		return 0, err
	}

	p1 := baselineRate
	pBar := (p1 + p2) / 2
	num := zAlpha*math.Sqrt(2*pBar*(1-pBar)) + zBeta*math.Sqrt(p1*(1-p1)+p2*(1-p2))
	den := p2 - p1

	return int64(math.Ceil(num * num / (den * den))), nil
}

// SolveMinimumEffect finds the smallest relative effect, in percent, that a
// test with n observations per arm detects at the target power. It runs a
// bisection over the effect size, using SolvePower as the monotone test
// function. When the iteration cap is reached before the bracket converges,
// it returns the best midpoint together with a NonConvergenceError.
func (s *PowerSolver) SolveMinimumEffect(baselineRate, targetPower float64, n int64, alpha float64, sidedness models.Sidedness) (float64, error) {
	if targetPower <= 0 || targetPower >= 1 {
		return 0, utils.NewDomainErrorf("target power must be in (0,1), got %v", targetPower)
	}
	if baselineRate <= 0 || baselineRate >= 1 {
		return 0, utils.NewDomainErrorf("baseline rate must be in (0,1), got %v", baselineRate)
	}
	if n <= 0 {
		return 0, utils.NewInvalidInputErrorf("sample size must be positive, got %d", n)
	}

	low := mdeSearchLow
	// Cap the bracket so the shifted rate stays below 1.
	high := mdeSearchHigh
	if maxLift := (0.9999/baselineRate - 1) * 100; maxLift < high {
		high = maxLift
	}
	if high <= low {
		return 0, utils.NewDomainErrorf("baseline rate %v leaves no searchable effect range", baselineRate)
	}

	mid := (low + high) / 2
	for i := 0; i < mdeMaxIterations; i++ {
		mid = (low + high) / 2
		power, err := s.SolvePower(baselineRate, mid, n, alpha, sidedness)
		if err != nil {
			return 0, err
		}
		if power >= targetPower {
			high = mid
		} else {
			low = mid
		}
		if high-low < mdeTolerance {
			return (low + high) / 2, nil
		}
	}

	return mid, utils.NewNonConvergenceError("minimum detectable effect search did not converge", mdeMaxIterations, mid)
}

// PowerVsEffectCurve samples the power achieved by a fixed sample size over
// a range of relative effect sizes, in percent. Points whose shifted rate
// falls outside (0,1) are skipped.
func (s *PowerSolver) PowerVsEffectCurve(baselineRate float64, n int64, alpha float64, sidedness models.Sidedness, fromPct, toPct float64, steps int) ([]models.PowerCurvePoint, error) {
	if steps < 2 {
		return nil, utils.NewInvalidInputErrorf("curve needs at least 2 steps, got %d", steps)
	}
	if toPct <= fromPct {
		return nil, utils.NewInvalidInputErrorf("invalid effect range [%v, %v]", fromPct, toPct)
	}

	points := make([]models.PowerCurvePoint, 0, steps)
	width := (toPct - fromPct) / float64(steps-1)
	for i := 0; i < steps; i++ {
		effect := fromPct + width*float64(i)
		power, err := s.SolvePower(baselineRate, effect, n, alpha, sidedness)
		if err != nil {
			continue
		}
		points = append(points, models.PowerCurvePoint{X: effect, Power: power})
	}
	return points, nil
}

// PowerVsSampleCurve samples the power achieved by a fixed effect size over
// a range of per-arm sample sizes.
func (s *PowerSolver) PowerVsSampleCurve(baselineRate, effectPct, alpha float64, sidedness models.Sidedness, fromN, toN int64, steps int) ([]models.PowerCurvePoint, error) {
	if steps < 2 {
		return nil, utils.NewInvalidInputErrorf("curve needs at least 2 steps, got %d", steps)
	}
	if fromN <= 0 || toN <= fromN {
		return nil, utils.NewInvalidInputErrorf("invalid sample range [%d, %d]", fromN, toN)
	}

	points := make([]models.PowerCurvePoint, 0, steps)
	width := float64(toN-fromN) / float64(steps-1)
	for i := 0; i < steps; i++ {
		n := fromN + int64(math.Round(width*float64(i)))
		power, err := s.SolvePower(baselineRate, effectPct, n, alpha, sidedness)
		if err != nil {
			return nil, err
		}
		points = append(points, models.PowerCurvePoint{X: float64(n), Power: power})
	}
	return points, nil
}
