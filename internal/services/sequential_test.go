package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statwise/abengine/internal/models"
)

func newTestMonitor(t *testing.T, family models.BoundaryFamily, futility, harm bool) *SequentialMonitor {
	t.Helper()
	monitor, err := NewSequentialMonitor(SequentialMonitorConfig{
		Family:          family,
		Alpha:           0.05,
		Beta:            0.2,
		PlannedLooks:    5,
		FutilityEnabled: futility,
		HarmEnabled:     harm,
	})
	require.NoError(t, err)
	return monitor
}

func TestBoundsSymmetry(t *testing.T) {
	for _, family := range []models.BoundaryFamily{models.OBrienFleming, models.Pocock, models.WangTsiatis} {
		t.Run(string(family), func(t *testing.T) {
			monitor := newTestMonitor(t, family, true, true)
			for _, n := range []int64{100, 2500, 5000, 10000} {
				bounds, err := monitor.Bounds(n, 10000)
				require.NoError(t, err)
				assert.Equal(t, -bounds.Upper, bounds.Lower, "family=%s n=%d", family, n)
			}
		})
	}
}

func TestOBrienFlemingBoundaryDecreases(t *testing.T) {
	monitor := newTestMonitor(t, models.OBrienFleming, false, false)

	prev := 1e18
	for _, n := range []int64{100, 1000, 2500, 5000, 7500, 10000} {
		bounds, err := monitor.Bounds(n, 10000)
		require.NoError(t, err)
		assert.Less(t, bounds.Upper, prev, "n=%d", n)
		prev = bounds.Upper
	}
}

func TestPocockBoundaryConstant(t *testing.T) {
	monitor := newTestMonitor(t, models.Pocock, false, false)

	first, err := monitor.Bounds(1000, 10000)
	require.NoError(t, err)
	last, err := monitor.Bounds(10000, 10000)
	require.NoError(t, err)
	assert.Equal(t, first.Upper, last.Upper)
	assert.InDelta(t, 2.413, first.Upper, 1e-9)
}

func TestWangTsiatisBoundary(t *testing.T) {
	monitor := newTestMonitor(t, models.WangTsiatis, false, false)

	// At t=1 the boundary collapses to the fixed-horizon critical value.
	bounds, err := monitor.Bounds(10000, 10000)
	require.NoError(t, err)
	assert.InDelta(t, 1.959964, bounds.Upper, 1e-4)

	early, err := monitor.Bounds(1000, 10000)
	require.NoError(t, err)
	assert.Greater(t, early.Upper, bounds.Upper)
}

func TestFutilityBoundIsConstantProbitBeta(t *testing.T) {
	monitor := newTestMonitor(t, models.OBrienFleming, true, false)

	early, err := monitor.Bounds(1000, 10000)
	require.NoError(t, err)
	late, err := monitor.Bounds(9000, 10000)
	require.NoError(t, err)

	assert.Equal(t, early.Futility, late.Futility)
	assert.InDelta(t, -0.8416, early.Futility, 1e-3) // probit(0.2)
	assert.LessOrEqual(t, early.Futility, 0.0)
}

func TestDecidePrecedence(t *testing.T) {
	bounds := models.SequentialBounds{
		InformationFraction: 0.5,
		Upper:               2.5,
		Lower:               -2.5,
		Futility:            -0.84,
		FutilityEnabled:     true,
	}

	tests := []struct {
		name     string
		z        float64
		futility bool
		harm     bool
		want     models.DecisionState
	}{
		{"well inside continues", 1.0, true, true, models.Continue},
		{"crosses efficacy", 3.0, true, true, models.StopSuccess},
		{"exactly on efficacy", 2.5, true, true, models.StopSuccess},
		{"crosses harm when enabled", -3.0, true, true, models.StopHarm},
		{"harm disabled continues", -3.0, true, false, models.Continue},
		{"futility zone", -1.5, true, true, models.StopFutility},
		{"futility disabled continues", -1.5, false, true, models.Continue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := newTestMonitor(t, models.OBrienFleming, tt.futility, tt.harm)
			b := bounds
			b.FutilityEnabled = tt.futility
			assert.Equal(t, tt.want, monitor.Decide(tt.z, b))
		})
	}
}

func TestDecideSuccessRegardlessOfOtherBounds(t *testing.T) {
	// z=3.0 above any upper bound below 3.0 stops for success no matter
	// what the lower and futility values are.
	monitor := newTestMonitor(t, models.OBrienFleming, true, true)

	for _, upper := range []float64{0.5, 1.96, 2.9} {
		bounds := models.SequentialBounds{
			Upper:           upper,
			Lower:           -upper,
			Futility:        2.99, // pathological, still loses to success
			FutilityEnabled: true,
		}
		assert.Equal(t, models.StopSuccess, monitor.Decide(3.0, bounds), "upper=%v", upper)
	}
}

func TestConditionalPower(t *testing.T) {
	monitor := newTestMonitor(t, models.OBrienFleming, false, false)

	// At the cap the answer is deterministic.
	cp, err := monitor.ConditionalPower(3.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cp)

	cp, err = monitor.ConditionalPower(1.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cp)

	// Mid-trial, a stronger observed drift means a higher chance of
	// eventually crossing the boundary.
	weak, err := monitor.ConditionalPower(0.5, 0.5)
	require.NoError(t, err)
	strong, err := monitor.ConditionalPower(2.0, 0.5)
	require.NoError(t, err)
	assert.Greater(t, strong, weak)
	assert.GreaterOrEqual(t, weak, 0.0)
	assert.LessOrEqual(t, strong, 1.0)

	_, err = monitor.ConditionalPower(1.0, 0)
	assert.Error(t, err)
}

func TestExpectedSampleSize(t *testing.T) {
	monitor := newTestMonitor(t, models.OBrienFleming, false, false)

	// Certain success stops now; certain failure runs to the cap.
	assert.Equal(t, 4000.0, monitor.ExpectedSampleSize(4000, 10000, 1))
	assert.Equal(t, 10000.0, monitor.ExpectedSampleSize(4000, 10000, 0))
	assert.Equal(t, 7000.0, monitor.ExpectedSampleSize(4000, 10000, 0.5))
}

func TestAssess(t *testing.T) {
	monitor := newTestMonitor(t, models.OBrienFleming, true, true)

	assessment, err := monitor.Assess(
		models.SampleObservation{Visitors: 4000, Conversions: 200},
		models.SampleObservation{Visitors: 4000, Conversions: 236},
		8000,
	)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, assessment.Bounds.InformationFraction, 1e-9)
	assert.Equal(t, models.Continue, assessment.Decision)
	assert.Greater(t, assessment.ConditionalPower, 0.0)
	assert.Less(t, assessment.ConditionalPower, 1.0)
	assert.GreaterOrEqual(t, assessment.ExpectedSampleSize, 4000.0)
	assert.LessOrEqual(t, assessment.ExpectedSampleSize, 8000.0)
}

func TestBoundaryHistory(t *testing.T) {
	monitor := newTestMonitor(t, models.OBrienFleming, true, false)

	history, err := monitor.BoundaryHistory(5000, 10000, 1.7, 20)
	require.NoError(t, err)
	require.Len(t, history, 20)

	annotated := 0
	for i, point := range history {
		assert.Equal(t, -point.UpperBound, point.LowerBound)
		if i > 0 {
			assert.Greater(t, point.SampleSize, history[i-1].SampleSize)
		}
		if point.ObservedZ != nil {
			annotated++
			assert.Equal(t, 1.7, *point.ObservedZ)
			assert.Equal(t, int64(5000), point.SampleSize)
		}
	}
	assert.Equal(t, 1, annotated)

	// Recomputing yields the same envelope; the sequence is restartable.
	again, err := monitor.BoundaryHistory(5000, 10000, 1.7, 20)
	require.NoError(t, err)
	assert.Equal(t, history, again)
}

func TestNewSequentialMonitorValidation(t *testing.T) {
	tests := []struct {
		name   string
		config SequentialMonitorConfig
	}{
		{"alpha zero", SequentialMonitorConfig{Family: models.OBrienFleming, Alpha: 0, Beta: 0.2}},
		{"beta one", SequentialMonitorConfig{Family: models.OBrienFleming, Alpha: 0.05, Beta: 1}},
		{"unknown family", SequentialMonitorConfig{Family: "haybittle-peto", Alpha: 0.05, Beta: 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSequentialMonitor(tt.config)
			assert.Error(t, err)
		})
	}
}
