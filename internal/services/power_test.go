package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statwise/abengine/internal/models"
	"github.com/statwise/abengine/internal/utils"
)

func TestSolveSampleSizeKnownScenario(t *testing.T) {
	// Baseline 5%, 20% relative MDE, 80% power, two-tailed alpha 5%:
	// the closed-form proportions test lands near 8161 per arm.
	solver := NewPowerSolver()

	n, err := solver.SolveSampleSize(0.05, 20, 0.8, 0.05, models.TwoTailed)
	require.NoError(t, err)
	assert.InDelta(t, 8161, float64(n), 10)
}

func TestSolvePowerSampleSizeRoundTrip(t *testing.T) {
	solver := NewPowerSolver()

	n, err := solver.SolveSampleSize(0.05, 20, 0.8, 0.05, models.TwoTailed)
	require.NoError(t, err)

	power, err := solver.SolvePower(0.05, 20, n, 0.05, models.TwoTailed)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, power, 0.02)
}

func TestSolveSampleSizeMonotoneInEffect(t *testing.T) {
	solver := NewPowerSolver()

	prev := int64(0)
	for _, effect := range []float64{50, 40, 30, 20, 10, 5} {
		n, err := solver.SolveSampleSize(0.05, effect, 0.8, 0.05, models.TwoTailed)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, prev, "smaller effects need at least as many observations (effect=%v)", effect)
		prev = n
	}
}

func TestSolvePowerMonotoneInSampleSize(t *testing.T) {
	solver := NewPowerSolver()

	prev := -1.0
	for _, n := range []int64{500, 1000, 2000, 4000, 8000, 16000} {
		power, err := solver.SolvePower(0.05, 20, n, 0.05, models.TwoTailed)
		require.NoError(t, err)
		assert.Greater(t, power, prev, "n=%d", n)
		prev = power
	}
}

func TestSolvePowerOneTailedBeatsTwoTailed(t *testing.T) {
	solver := NewPowerSolver()

	one, err := solver.SolvePower(0.05, 20, 5000, 0.05, models.OneTailed)
	require.NoError(t, err)
	two, err := solver.SolvePower(0.05, 20, 5000, 0.05, models.TwoTailed)
	require.NoError(t, err)
	assert.Greater(t, one, two)
}

func TestSolveMinimumEffect(t *testing.T) {
	solver := NewPowerSolver()

	// With the sample size sized for a 20% lift, the minimum detectable
	// effect at the same power should come back near 20%.
	n, err := solver.SolveSampleSize(0.05, 20, 0.8, 0.05, models.TwoTailed)
	require.NoError(t, err)

	effect, err := solver.SolveMinimumEffect(0.05, 0.8, n, 0.05, models.TwoTailed)
	require.NoError(t, err)
	assert.InDelta(t, 20, effect, 0.5)
}

func TestSolveMinimumEffectTerminates(t *testing.T) {
	solver := NewPowerSolver()

	// Tiny samples push the answer against the bracket edge; the solver
	// must still return a usable estimate instead of looping.
	effect, err := solver.SolveMinimumEffect(0.05, 0.8, 10, 0.05, models.TwoTailed)
	if err != nil {
		var nc *utils.NonConvergenceError
		require.ErrorAs(t, err, &nc)
		assert.Equal(t, nc.BestEstimate, effect)
	}
	assert.Greater(t, effect, 0.0)
}

func TestSolverDomainErrors(t *testing.T) {
	solver := NewPowerSolver()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"zero baseline", func() error {
			_, err := solver.SolveSampleSize(0, 20, 0.8, 0.05, models.TwoTailed)
			return err
		}},
		{"effect pushes rate above 1", func() error {
			_, err := solver.SolveSampleSize(0.9, 20, 0.8, 0.05, models.TwoTailed)
			return err
		}},
		{"alpha at boundary", func() error {
			_, err := solver.SolvePower(0.05, 20, 1000, 1, models.TwoTailed)
			return err
		}},
		{"power at boundary", func() error {
			_, err := solver.SolveSampleSize(0.05, 20, 1, 0.05, models.TwoTailed)
			return err
		}},
		{"non-positive n", func() error {
			_, err := solver.SolvePower(0.05, 20, 0, 0.05, models.TwoTailed)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.fn())
		})
	}
}

func TestPowerVsEffectCurve(t *testing.T) {
	solver := NewPowerSolver()

	points, err := solver.PowerVsEffectCurve(0.05, 5000, 0.05, models.TwoTailed, 5, 50, 10)
	require.NoError(t, err)
	require.Len(t, points, 10)

	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].X, points[i-1].X)
		assert.GreaterOrEqual(t, points[i].Power, points[i-1].Power)
	}
}

func TestPowerVsSampleCurve(t *testing.T) {
	solver := NewPowerSolver()

	points, err := solver.PowerVsSampleCurve(0.05, 20, 0.05, models.TwoTailed, 1000, 10000, 10)
	require.NoError(t, err)
	require.Len(t, points, 10)

	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].X, points[i-1].X)
		assert.GreaterOrEqual(t, points[i].Power, points[i-1].Power)
	}
}

func TestCurveInputValidation(t *testing.T) {
	solver := NewPowerSolver()

	_, err := solver.PowerVsEffectCurve(0.05, 5000, 0.05, models.TwoTailed, 50, 5, 10)
	assert.Error(t, err)
	_, err = solver.PowerVsEffectCurve(0.05, 5000, 0.05, models.TwoTailed, 5, 50, 1)
	assert.Error(t, err)
	_, err = solver.PowerVsSampleCurve(0.05, 20, 0.05, models.TwoTailed, 5000, 1000, 10)
	assert.Error(t, err)
}
