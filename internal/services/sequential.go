package services

import (
	"math"

	"github.com/statwise/abengine/internal/models"
	"github.com/statwise/abengine/internal/stats"
	"github.com/statwise/abengine/internal/utils"
)

// Two-sided Pocock critical values at alpha=0.05 keyed on the planned
// number of analyses. Looks outside the table fall back to the 5-look
// value.
var pocockCriticalValues = map[int]float64{
	1:  1.960,
	2:  2.178,
	3:  2.289,
	4:  2.361,
	5:  2.413,
	6:  2.453,
	7:  2.485,
	8:  2.512,
	9:  2.535,
	10: 2.555,
}

const defaultWangTsiatisDelta = 0.25

// SequentialMonitorConfig configures boundary computation and the decision
// rule for group-sequential monitoring.
type SequentialMonitorConfig struct {
	Family           models.BoundaryFamily
	Alpha            float64
	Beta             float64
	PlannedLooks     int     // Pocock only
	WangTsiatisDelta float64 // Wang-Tsiatis shape, 0 means the 0.25 default
	FutilityEnabled  bool
	HarmEnabled      bool
}

// SequentialMonitor evaluates group-sequential stopping boundaries and the
// decision state of a running experiment. Each call recomputes the state
// from the counts at hand; the monitor itself carries no trial state.
type SequentialMonitor struct {
	config       SequentialMonitorConfig
	significance *SignificanceCalculator
}

// NewSequentialMonitor creates a monitor for the given boundary family and
// error rates.
func NewSequentialMonitor(config SequentialMonitorConfig) (*SequentialMonitor, error) {
	if config.Alpha <= 0 || config.Alpha >= 1 {
		return nil, utils.NewDomainErrorf("alpha must be in (0,1), got %v", config.Alpha)
	}
	if config.Beta <= 0 || config.Beta >= 1 {
		return nil, utils.NewDomainErrorf("beta must be in (0,1), got %v", config.Beta)
	}
	switch config.Family {
	case models.OBrienFleming, models.Pocock, models.WangTsiatis:
	default:
		return nil, utils.NewInvalidInputErrorf("unknown boundary family %q", config.Family)
	}
	if config.WangTsiatisDelta == 0 {
		config.WangTsiatisDelta = defaultWangTsiatisDelta
	}
	if config.PlannedLooks <= 0 {
		config.PlannedLooks = 5
	}
	return &SequentialMonitor{
		config:       config,
		significance: NewSignificanceCalculator(),
	}, nil
}

// Bounds computes the stopping boundaries at the information fraction
// n/nMax. The lower bound mirrors the upper bound for every supported
// family. The futility bound is the constant probit(beta); it does not
// spend beta over the information fraction.
func (m *SequentialMonitor) Bounds(n, nMax int64) (models.SequentialBounds, error) {
	if nMax <= 0 {
		return models.SequentialBounds{}, utils.NewInvalidInputErrorf("maximum sample size must be positive, got %d", nMax)
	}
	if n <= 0 {
		return models.SequentialBounds{}, utils.NewInvalidInputErrorf("current sample size must be positive, got %d", n)
	}

	t := float64(n) / float64(nMax)
	if t > 1 {
		t = 1
	}

	upper, err := m.upperBound(t)
	if err != nil {
		return models.SequentialBounds{}, err
	}

	bounds := models.SequentialBounds{
		InformationFraction: t,
		Upper:               upper,
		Lower:               -upper,
		FutilityEnabled:     m.config.FutilityEnabled,
	}
	if m.config.FutilityEnabled {
		futility, err := stats.NormalQuantile(m.config.Beta)
		if err != nil {
			return models.SequentialBounds{}, err
		}
		bounds.Futility = futility
	}
	return bounds, nil
}

func (m *SequentialMonitor) upperBound(t float64) (float64, error) {
	switch m.config.Family {
	case models.OBrienFleming:
		return math.Sqrt(-2*math.Log(m.config.Alpha/2)) / math.Sqrt(t), nil
	case models.Pocock:
		if c, ok := pocockCriticalValues[m.config.PlannedLooks]; ok {
			return c, nil
		}
		return pocockCriticalValues[5], nil
	case models.WangTsiatis:
		z, err := stats.NormalQuantile(1 - m.config.Alpha/2)
		if err != nil {
			return 0, err
		}
		return z * math.Pow(t, m.config.WangTsiatisDelta-0.5), nil
	default:
		return 0, utils.NewInvalidInputErrorf("unknown boundary family %q", m.config.Family)
	}
}

// Decide maps the observed z-score to a decision state. Efficacy and harm
// boundaries take precedence over futility.
func (m *SequentialMonitor) Decide(z float64, bounds models.SequentialBounds) models.DecisionState {
	if z >= bounds.Upper {
		return models.StopSuccess
	}
	if z <= bounds.Lower {
		if m.config.HarmEnabled {
			return models.StopHarm
		}
		return models.Continue
	}
	if m.config.FutilityEnabled && z <= bounds.Futility {
		return models.StopFutility
	}
	return models.Continue
}

// ConditionalPower approximates the probability that the test statistic
// crosses the final efficacy boundary by nMax, modeling the statistic as a
// Brownian motion whose drift continues at the currently observed rate.
// With no information remaining it degenerates to a deterministic 0 or 1.
func (m *SequentialMonitor) ConditionalPower(z, t float64) (float64, error) {
	if t <= 0 {
		return 0, utils.NewDomainErrorf("information fraction must be positive, got %v", t)
	}

	finalBound, err := m.upperBound(1)
	if err != nil {
		return 0, err
	}

	remaining := 1 - t
	if remaining <= 0 {
		if z >= finalBound {
			return 1, nil
		}
		return 0, nil
	}

	drift := z / math.Sqrt(t)
	b := z * math.Sqrt(t) // Brownian level at information time t
	return 1 - stats.NormalCDF((finalBound-b-drift*remaining)/math.Sqrt(remaining)), nil
}

// ExpectedSampleSize is a planning heuristic: the current sample size plus
// the remainder weighted by the probability the trial does not stop early
// for success. It is not an exact stochastic-process expectation.
func (m *SequentialMonitor) ExpectedSampleSize(n, nMax int64, successProbability float64) float64 {
	return float64(n) + float64(nMax-n)*(1-successProbability)
}

// Assess runs a full monitoring look: z-score from the cumulative counts,
// boundary evaluation, decision, conditional power and expected sample
// size. nMax is the per-arm sample size cap of the design.
func (m *SequentialMonitor) Assess(control, treatment models.SampleObservation, nMax int64) (*models.SequentialAssessment, error) {
	result, err := m.significance.Compute(control, treatment, 1-m.config.Alpha)
	if err != nil {
		return nil, err
	}

	n := (control.Visitors + treatment.Visitors) / 2
	bounds, err := m.Bounds(n, nMax)
	if err != nil {
		return nil, err
	}

	cp, err := m.ConditionalPower(result.ZScore, bounds.InformationFraction)
	if err != nil {
		return nil, err
	}

	return &models.SequentialAssessment{
		Bounds:             bounds,
		Decision:           m.Decide(result.ZScore, bounds),
		ObservedZ:          result.ZScore,
		ConditionalPower:   cp,
		ExpectedSampleSize: m.ExpectedSampleSize(n, nMax, cp),
	}, nil
}

// BoundaryHistory traces the boundary envelope at equally spaced
// information fractions up to nMax. The point nearest the current sample
// size carries the observed z-score; all points are recomputed on every
// call so the sequence can be restarted freely.
func (m *SequentialMonitor) BoundaryHistory(currentN, nMax int64, observedZ float64, points int) ([]models.BoundaryHistoryPoint, error) {
	if points <= 0 {
		points = 20
	}
	if nMax <= 0 {
		return nil, utils.NewInvalidInputErrorf("maximum sample size must be positive, got %d", nMax)
	}

	history := make([]models.BoundaryHistoryPoint, 0, points)
	nearest := -1
	nearestDist := int64(math.MaxInt64)

	for i := 1; i <= points; i++ {
		t := float64(i) / float64(points)
		n := int64(math.Round(t * float64(nMax)))
		if n < 1 {
			n = 1
		}
		bounds, err := m.Bounds(n, nMax)
		if err != nil {
			return nil, err
		}
		history = append(history, models.BoundaryHistoryPoint{
			SampleSize:          n,
			InformationFraction: bounds.InformationFraction,
			UpperBound:          bounds.Upper,
			LowerBound:          bounds.Lower,
			FutilityBound:       bounds.Futility,
		})
		if dist := absInt64(n - currentN); currentN > 0 && dist < nearestDist {
			nearestDist = dist
			nearest = len(history) - 1
		}
	}

	if nearest >= 0 {
		z := observedZ
		history[nearest].ObservedZ = &z
	}
	return history, nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
