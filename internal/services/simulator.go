package services

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/statwise/abengine/internal/models"
	"github.com/statwise/abengine/internal/utils"
)

// Progress callbacks fire after every progressInterval completed runs.
const progressInterval = 10

// ProgressFunc receives best-effort progress updates during a simulation
// batch. It is invoked from the collecting goroutine and must not block.
type ProgressFunc func(models.SimulationProgress)

// MonteCarloSimulator repeatedly simulates binomial conversion streams for
// a control and a treatment arm over a time horizon, applying the
// two-sample test to the cumulative counts each period. Runs are
// statistically independent and distributed across a worker pool; each run
// draws from its own deterministically seeded source so batches are
// reproducible. Every Run call starts from a clean state.
type MonteCarloSimulator struct {
	logger       *logrus.Logger
	significance *SignificanceCalculator
}

// NewMonteCarloSimulator creates a simulator. A nil logger falls back to a
// default logrus instance.
func NewMonteCarloSimulator(logger *logrus.Logger) *MonteCarloSimulator {
	if logger == nil {
		logger = logrus.New()
	}
	return &MonteCarloSimulator{
		logger:       logger,
		significance: NewSignificanceCalculator(),
	}
}

func validateSimulationParameters(params *models.SimulationParameters) error {
	if params.BaselineRate <= 0 || params.BaselineRate >= 1 {
		return utils.NewDomainErrorf("baseline rate must be in (0,1), got %v", params.BaselineRate)
	}
	treatment := params.BaselineRate * (1 + params.RelativeEffect)
	if treatment <= 0 || treatment >= 1 {
		return utils.NewDomainErrorf("relative effect %v yields treatment rate %v outside (0,1)", params.RelativeEffect, treatment)
	}
	if params.Runs <= 0 {
		return utils.NewInvalidInputErrorf("number of runs must be positive, got %d", params.Runs)
	}
	if params.HorizonDays <= 0 {
		return utils.NewInvalidInputErrorf("horizon must be positive, got %d days", params.HorizonDays)
	}
	if params.SampleSizePerArm <= 0 {
		return utils.NewInvalidInputErrorf("sample size per arm must be positive, got %d", params.SampleSizePerArm)
	}
	if params.Alpha == 0 {
		params.Alpha = 0.05
	}
	if params.Alpha <= 0 || params.Alpha >= 1 {
		return utils.NewDomainErrorf("alpha must be in (0,1), got %v", params.Alpha)
	}
	if params.Seed == 0 {
		params.Seed = time.Now().UnixNano()
	}
	return nil
}

// Run executes the configured number of independent simulation runs and
// aggregates their final-period outcomes. Cancellation is cooperative:
// workers stop between runs, and an aborted batch returns no summary.
func (s *MonteCarloSimulator) Run(ctx context.Context, params models.SimulationParameters, onProgress ProgressFunc) (*models.SimulationSummary, error) {
	if err := validateSimulationParameters(&params); err != nil {
		return nil, err
	}

	workers := params.Workers
	if workers <= 0 {
		workers = OptimalWorkerCount(s.logger, 0, 0)
	}
	if workers > params.Runs {
		workers = params.Runs
	}

	s.logger.WithFields(logrus.Fields{
		"runs":          params.Runs,
		"horizon_days":  params.HorizonDays,
		"workers":       workers,
		"baseline_rate": params.BaselineRate,
		"effect":        params.RelativeEffect,
	}).Info("Starting Monte Carlo simulation")

	start := time.Now()

	indices := make(chan int)
	outcomes := make(chan models.SimulationRun)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				outcome := s.SimulateRun(params, idx)
				select {
				case outcomes <- outcome:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := 0; i < params.Runs; i++ {
			select {
			case indices <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var (
		completed   int
		significant int
		sumPValue   float64
		sumGap      float64
	)

	for completed < params.Runs {
		select {
		case <-ctx.Done():
			s.logger.WithField("completed_runs", completed).Warn("Simulation cancelled")
			return nil, ctx.Err()
		case outcome, ok := <-outcomes:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				return nil, utils.NewInvalidInputError("simulation aborted before completing all runs")
			}
			completed++
			if outcome.Significant {
				significant++
			}
			sumPValue += outcome.FinalPValue
			sumGap += outcome.EffectGap

			if onProgress != nil && (completed%progressInterval == 0 || completed == params.Runs) {
				onProgress(models.SimulationProgress{
					CompletedRuns: completed,
					TotalRuns:     params.Runs,
					CurrentRun:    outcome.Index,
					Percent:       100 * float64(completed) / float64(params.Runs),
				})
			}
		}
	}

	summary := &models.SimulationSummary{
		Runs:            params.Runs,
		EmpiricalPower:  float64(significant) / float64(params.Runs),
		MeanFinalPValue: sumPValue / float64(params.Runs),
		MeanEffectGap:   sumGap / float64(params.Runs),
		Elapsed:         time.Since(start),
	}
	// The empirical false-positive rate is only meaningful under the null.
	if params.RelativeEffect == 0 {
		summary.FalsePositiveRate = summary.EmpiricalPower
	}

	s.logger.WithFields(logrus.Fields{
		"runs":            summary.Runs,
		"empirical_power": summary.EmpiricalPower,
		"elapsed":         summary.Elapsed.String(),
	}).Info("Monte Carlo simulation complete")

	return summary, nil
}

// SimulateRun plays out one simulated experiment, day by day, and returns
// its full daily trace. The run is seeded from the batch seed plus its own
// index, so any run can be reproduced in isolation.
func (s *MonteCarloSimulator) SimulateRun(params models.SimulationParameters, index int) models.SimulationRun {
	rng := rand.New(rand.NewSource(params.Seed + int64(index)))
	treatRate := params.BaselineRate * (1 + params.RelativeEffect)
	dailyBase := float64(params.SampleSizePerArm) / float64(params.HorizonDays)

	run := models.SimulationRun{
		Index: index,
		Daily: make([]models.DailyStat, 0, params.HorizonDays),
	}

	var control, treatment models.SampleObservation
	for day := 0; day < params.HorizonDays; day++ {
		visitors := int64(math.Round(dailyBase * trafficMultiplier(params.Profile, day, params.HorizonDays)))
		if visitors < 0 {
			visitors = 0
		}

		control.Visitors += visitors
		control.Conversions += drawBinomial(rng, visitors, params.BaselineRate)
		treatment.Visitors += visitors
		treatment.Conversions += drawBinomial(rng, visitors, treatRate)

		stat := models.DailyStat{
			Day:                  day + 1,
			ControlVisitors:      control.Visitors,
			ControlConversions:   control.Conversions,
			TreatmentVisitors:    treatment.Visitors,
			TreatmentConversions: treatment.Conversions,
			PValue:               1,
		}
		if control.Visitors > 0 && treatment.Visitors > 0 {
			if result, err := s.significance.Compute(control, treatment, 1-params.Alpha); err == nil {
				stat.PValue = result.PValue
				stat.Significant = result.Significant
			}
		}
		run.Daily = append(run.Daily, stat)
	}

	final := run.Daily[len(run.Daily)-1]
	run.FinalPValue = final.PValue
	run.Significant = final.Significant
	run.EffectGap = treatment.Rate() - control.Rate()
	return run
}

// trafficMultiplier scales the daily visitor volume according to the
// behavioral profile.
func trafficMultiplier(profile models.TrafficProfile, day, horizon int) float64 {
	switch profile {
	case models.TrafficIncreasing:
		return 0.5 + float64(day)/float64(horizon)
	case models.TrafficDecreasing:
		return 1.5 - float64(day)/float64(horizon)
	case models.TrafficWeeklySeasonal:
		return 1 + 0.3*math.Sin(2*math.Pi*float64(day)/7)
	case models.TrafficWeekendStep:
		if day%7 == 5 || day%7 == 6 {
			return 1.5
		}
		return 0.9
	default:
		return 1
	}
}

// drawBinomial samples Binomial(n, p) by direct Bernoulli summation. Daily
// visitor counts are small enough that the exact draw stays cheap.
func drawBinomial(rng *rand.Rand, n int64, p float64) int64 {
	var hits int64
	for i := int64(0); i < n; i++ {
		if rng.Float64() < p {
			hits++
		}
	}
	return hits
}
