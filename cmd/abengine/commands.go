package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/statwise/abengine/internal/config"
	"github.com/statwise/abengine/internal/models"
	"github.com/statwise/abengine/internal/services"
	"github.com/statwise/abengine/internal/utils"
)

// parseObservation parses "visitors:conversions" into a SampleObservation.
func parseObservation(raw string) (models.SampleObservation, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return models.SampleObservation{}, utils.NewInvalidInputErrorf("expected visitors:conversions, got %q", raw)
	}
	visitors, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return models.SampleObservation{}, utils.NewInvalidInputErrorf("invalid visitors in %q: %v", raw, err)
	}
	conversions, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return models.SampleObservation{}, utils.NewInvalidInputErrorf("invalid conversions in %q: %v", raw, err)
	}
	return models.SampleObservation{Visitors: visitors, Conversions: conversions}, nil
}

// parseVariant parses "name:allocation:rate[:control]".
func parseVariant(raw string) (models.ExperimentVariant, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return models.ExperimentVariant{}, utils.NewInvalidInputErrorf("expected name:allocation:rate[:control], got %q", raw)
	}
	allocation, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return models.ExperimentVariant{}, utils.NewInvalidInputErrorf("invalid allocation in %q: %v", raw, err)
	}
	rate, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return models.ExperimentVariant{}, utils.NewInvalidInputErrorf("invalid rate in %q: %v", raw, err)
	}
	isControl := len(parts) == 4 && strings.EqualFold(parts[3], "control")
	return models.NewExperimentVariant(parts[0], allocation, rate, isControl), nil
}

func buildSignificanceCmd(cfg *config.Config) *cobra.Command {
	var (
		controlRaw   string
		treatmentRaw string
		confidence   float64
	)

	cmd := &cobra.Command{
		Use:   "significance",
		Short: "Run a two-sample proportion z-test on observed counts",
		Example: `  abengine significance --control 1000:50 --treatment 1000:60
  abengine significance --control 5000:250 --treatment 5000:310 --confidence 0.99`,
		RunE: func(cmd *cobra.Command, args []string) error {
			control, err := parseObservation(controlRaw)
			if err != nil {
				return err
			}
			treatment, err := parseObservation(treatmentRaw)
			if err != nil {
				return err
			}

			result, err := services.NewSignificanceCalculator().Compute(control, treatment, confidence)
			if err != nil {
				return err
			}

			fmt.Printf("control rate:      %.4f\n", result.ControlRate)
			fmt.Printf("treatment rate:    %.4f\n", result.TreatmentRate)
			fmt.Printf("z-score:           %.4f\n", result.ZScore)
			fmt.Printf("p-value:           %.4f\n", result.PValue)
			fmt.Printf("significant:       %v\n", result.Significant)
			fmt.Printf("%.0f%% CI for diff:  [%.4f, %.4f]\n", confidence*100, result.CILower, result.CIUpper)
			fmt.Printf("cohen's h:         %.4f\n", result.EffectSize)
			fmt.Printf("relative uplift:   %.2f%%\n", result.RelativeUplift*100)
			fmt.Printf("achieved power:    %.1f%%\n", result.AchievedPower)
			return nil
		},
	}

	cmd.Flags().StringVar(&controlRaw, "control", "", "control arm as visitors:conversions")
	cmd.Flags().StringVar(&treatmentRaw, "treatment", "", "treatment arm as visitors:conversions")
	cmd.Flags().Float64Var(&confidence, "confidence", cfg.Test.ConfidenceLevel, "confidence level as a fraction")
	_ = cmd.MarkFlagRequired("control")
	_ = cmd.MarkFlagRequired("treatment")
	return cmd
}

func buildPowerCmd(cfg *config.Config) *cobra.Command {
	var (
		baseline  float64
		effectPct float64
		n         int64
		alpha     float64
		sidedness string
	)

	cmd := &cobra.Command{
		Use:   "power",
		Short: "Compute the power of a test with a fixed sample size and effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			power, err := services.NewPowerSolver().SolvePower(baseline, effectPct, n, alpha, models.Sidedness(sidedness))
			if err != nil {
				return err
			}
			fmt.Printf("power: %.1f%%\n", power*100)
			return nil
		},
	}

	cmd.Flags().Float64Var(&baseline, "baseline", 0, "baseline conversion rate as a fraction")
	cmd.Flags().Float64Var(&effectPct, "effect", 0, "relative effect in percent")
	cmd.Flags().Int64Var(&n, "n", 0, "per-arm sample size")
	cmd.Flags().Float64Var(&alpha, "alpha", cfg.Test.Alpha, "significance level")
	cmd.Flags().StringVar(&sidedness, "sidedness", cfg.Test.Sidedness, "one-tailed or two-tailed")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("effect")
	_ = cmd.MarkFlagRequired("n")
	return cmd
}

func buildSampleSizeCmd(cfg *config.Config) *cobra.Command {
	var (
		baseline  float64
		effectPct float64
		power     float64
		alpha     float64
		sidedness string
	)

	cmd := &cobra.Command{
		Use:   "samplesize",
		Short: "Compute the per-arm sample size for a target power and effect",
		Example: `  abengine samplesize --baseline 0.05 --effect 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := services.NewPowerSolver().SolveSampleSize(baseline, effectPct, power, alpha, models.Sidedness(sidedness))
			if err != nil {
				return err
			}
			fmt.Printf("required sample size per arm: %d\n", n)
			return nil
		},
	}

	cmd.Flags().Float64Var(&baseline, "baseline", 0, "baseline conversion rate as a fraction")
	cmd.Flags().Float64Var(&effectPct, "effect", 0, "minimum detectable relative effect in percent")
	cmd.Flags().Float64Var(&power, "power", cfg.Test.Power, "target power as a fraction")
	cmd.Flags().Float64Var(&alpha, "alpha", cfg.Test.Alpha, "significance level")
	cmd.Flags().StringVar(&sidedness, "sidedness", cfg.Test.Sidedness, "one-tailed or two-tailed")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("effect")
	return cmd
}

func buildMDECmd(cfg *config.Config) *cobra.Command {
	var (
		baseline  float64
		n         int64
		power     float64
		alpha     float64
		sidedness string
	)

	cmd := &cobra.Command{
		Use:   "mde",
		Short: "Find the minimum detectable effect for a fixed sample size",
		RunE: func(cmd *cobra.Command, args []string) error {
			effect, err := services.NewPowerSolver().SolveMinimumEffect(baseline, power, n, alpha, models.Sidedness(sidedness))
			if err != nil {
				// Non-convergence still carries a usable estimate.
				if _, ok := err.(*utils.NonConvergenceError); !ok {
					return err
				}
				fmt.Printf("warning: %v\n", err)
			}
			fmt.Printf("minimum detectable effect: %.2f%% relative lift\n", effect)
			return nil
		},
	}

	cmd.Flags().Float64Var(&baseline, "baseline", 0, "baseline conversion rate as a fraction")
	cmd.Flags().Int64Var(&n, "n", 0, "per-arm sample size")
	cmd.Flags().Float64Var(&power, "power", cfg.Test.Power, "target power as a fraction")
	cmd.Flags().Float64Var(&alpha, "alpha", cfg.Test.Alpha, "significance level")
	cmd.Flags().StringVar(&sidedness, "sidedness", cfg.Test.Sidedness, "one-tailed or two-tailed")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("n")
	return cmd
}

func buildSequentialCmd(cfg *config.Config) *cobra.Command {
	var (
		controlRaw   string
		treatmentRaw string
		nMax         int64
		family       string
		alpha        float64
		beta         float64
		looks        int
		futility     bool
		harm         bool
	)

	cmd := &cobra.Command{
		Use:   "sequential",
		Short: "Evaluate group-sequential stopping boundaries for a running test",
		Example: `  abengine sequential --control 4000:200 --treatment 4000:236 --nmax 8200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			control, err := parseObservation(controlRaw)
			if err != nil {
				return err
			}
			treatment, err := parseObservation(treatmentRaw)
			if err != nil {
				return err
			}

			monitor, err := services.NewSequentialMonitor(services.SequentialMonitorConfig{
				Family:          models.BoundaryFamily(family),
				Alpha:           alpha,
				Beta:            beta,
				PlannedLooks:    looks,
				FutilityEnabled: futility,
				HarmEnabled:     harm,
			})
			if err != nil {
				return err
			}

			assessment, err := monitor.Assess(control, treatment, nMax)
			if err != nil {
				return err
			}

			fmt.Printf("information fraction: %.3f\n", assessment.Bounds.InformationFraction)
			fmt.Printf("observed z:           %.4f\n", assessment.ObservedZ)
			fmt.Printf("efficacy boundary:    %.4f\n", assessment.Bounds.Upper)
			fmt.Printf("harm boundary:        %.4f\n", assessment.Bounds.Lower)
			if assessment.Bounds.FutilityEnabled {
				fmt.Printf("futility boundary:    %.4f\n", assessment.Bounds.Futility)
			}
			fmt.Printf("decision:             %s\n", assessment.Decision)
			fmt.Printf("conditional power:    %.1f%%\n", assessment.ConditionalPower*100)
			fmt.Printf("expected sample size: %.0f per arm\n", assessment.ExpectedSampleSize)
			return nil
		},
	}

	cmd.Flags().StringVar(&controlRaw, "control", "", "cumulative control arm as visitors:conversions")
	cmd.Flags().StringVar(&treatmentRaw, "treatment", "", "cumulative treatment arm as visitors:conversions")
	cmd.Flags().Int64Var(&nMax, "nmax", 0, "maximum planned per-arm sample size")
	cmd.Flags().StringVar(&family, "family", cfg.Sequential.BoundaryFamily, "boundary family: obrien-fleming, pocock or wang-tsiatis")
	cmd.Flags().Float64Var(&alpha, "alpha", cfg.Test.Alpha, "significance level")
	cmd.Flags().Float64Var(&beta, "beta", 1-cfg.Test.Power, "type II error rate")
	cmd.Flags().IntVar(&looks, "looks", cfg.Sequential.PlannedLooks, "planned number of analyses (Pocock)")
	cmd.Flags().BoolVar(&futility, "futility", cfg.Sequential.FutilityEnabled, "enable futility monitoring")
	cmd.Flags().BoolVar(&harm, "harm", cfg.Sequential.HarmEnabled, "enable harm monitoring")
	_ = cmd.MarkFlagRequired("control")
	_ = cmd.MarkFlagRequired("treatment")
	_ = cmd.MarkFlagRequired("nmax")
	return cmd
}

func buildSimulateCmd(cfg *config.Config, logger *logrus.Logger) *cobra.Command {
	var (
		baseline float64
		effect   float64
		n        int64
		runs     int
		horizon  int
		profile  string
		alpha    float64
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run Monte Carlo simulations of experiment outcomes",
		Example: `  abengine simulate --baseline 0.05 --effect 0.2 --n 8200 --runs 1000
  abengine simulate --baseline 0.05 --effect 0 --n 8200 --runs 2000   # false-positive rate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			simulator := services.NewMonteCarloSimulator(logger)
			summary, err := simulator.Run(cmd.Context(), models.SimulationParameters{
				BaselineRate:     baseline,
				RelativeEffect:   effect,
				SampleSizePerArm: n,
				Runs:             runs,
				HorizonDays:      horizon,
				Profile:          models.TrafficProfile(profile),
				Alpha:            alpha,
				Seed:             seed,
				Workers:          services.OptimalWorkerCount(logger, cfg.Simulation.MinWorkers, cfg.Simulation.MaxWorkers),
			}, func(p models.SimulationProgress) {
				fmt.Printf("\rprogress: %5.1f%% (run %d of %d)", p.Percent, p.CompletedRuns, p.TotalRuns)
			})
			if err != nil {
				return err
			}
			fmt.Println()

			fmt.Printf("runs:                %d\n", summary.Runs)
			fmt.Printf("empirical power:     %.1f%%\n", summary.EmpiricalPower*100)
			fmt.Printf("mean final p-value:  %.4f\n", summary.MeanFinalPValue)
			fmt.Printf("mean effect gap:     %.5f\n", summary.MeanEffectGap)
			if effect == 0 {
				fmt.Printf("false-positive rate: %.2f%%\n", summary.FalsePositiveRate*100)
			}
			fmt.Printf("elapsed:             %s\n", summary.Elapsed)
			return nil
		},
	}

	cmd.Flags().Float64Var(&baseline, "baseline", 0, "baseline conversion rate as a fraction")
	cmd.Flags().Float64Var(&effect, "effect", 0, "relative treatment effect as a fraction (0 measures false positives)")
	cmd.Flags().Int64Var(&n, "n", 0, "per-arm target sample size")
	cmd.Flags().IntVar(&runs, "runs", cfg.Simulation.Runs, "number of independent simulation runs")
	cmd.Flags().IntVar(&horizon, "horizon", cfg.Simulation.HorizonDays, "time horizon in days")
	cmd.Flags().StringVar(&profile, "profile", string(models.TrafficUniform), "traffic profile: uniform, increasing, decreasing, weekly-seasonal or weekend-step")
	cmd.Flags().Float64Var(&alpha, "alpha", cfg.Test.Alpha, "per-period significance level")
	cmd.Flags().Int64Var(&seed, "seed", cfg.Simulation.Seed, "base random seed (0 uses the clock)")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("n")
	return cmd
}

func buildDesignCmd(cfg *config.Config) *cobra.Command {
	var (
		variantsRaw    []string
		power          float64
		alpha          float64
		sidedness      string
		exposure       float64
		dailyTraffic   int64
		costPerVisitor float64
	)

	cmd := &cobra.Command{
		Use:   "design",
		Short: "Size a multi-variant experiment with Bonferroni correction",
		Example: `  abengine design \
    --variant Control:34:0.05:control \
    --variant VariantA:33:0.055 \
    --variant VariantB:33:0.06`,
		RunE: func(cmd *cobra.Command, args []string) error {
			variants := make([]models.ExperimentVariant, 0, len(variantsRaw))
			var baseline float64
			for _, raw := range variantsRaw {
				v, err := parseVariant(raw)
				if err != nil {
					return err
				}
				if v.IsControl {
					baseline = v.ExpectedConversionRate
				}
				variants = append(variants, v)
			}

			analysis, err := services.NewMultiVariantDesigner().Design(
				variants,
				models.TestDesignParameters{
					Alpha:        alpha,
					Power:        power,
					BaselineRate: baseline,
					Sidedness:    models.Sidedness(sidedness),
				},
				exposure,
				dailyTraffic,
				decimal.NewFromFloat(costPerVisitor),
			)
			if err != nil {
				return err
			}

			fmt.Printf("adjusted alpha:     %.5f\n", analysis.AdjustedAlpha)
			fmt.Printf("total sample size:  %d\n", analysis.TotalSampleSize)
			for _, v := range variants {
				fmt.Printf("  %-12s %d\n", v.Name+":", analysis.PerVariantSampleSize[v.ID])
			}
			fmt.Printf("expected duration:  %d days\n", analysis.ExpectedDurationDays)
			fmt.Printf("estimated cost:     %s\n", analysis.EstimatedCost.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&variantsRaw, "variant", nil, "variant as name:allocation:rate[:control], repeatable")
	cmd.Flags().Float64Var(&power, "power", cfg.Test.Power, "target power as a fraction")
	cmd.Flags().Float64Var(&alpha, "alpha", cfg.Test.Alpha, "family-wise significance level")
	cmd.Flags().StringVar(&sidedness, "sidedness", cfg.Test.Sidedness, "one-tailed or two-tailed")
	cmd.Flags().Float64Var(&exposure, "exposure", cfg.Design.TrafficExposure, "fraction of eligible traffic enrolled")
	cmd.Flags().Int64Var(&dailyTraffic, "daily-traffic", cfg.Design.DailyTraffic, "daily eligible visitors")
	cmd.Flags().Float64Var(&costPerVisitor, "cost-per-visitor", cfg.Design.CostPerVisitor, "cost per enrolled visitor")
	_ = cmd.MarkFlagRequired("variant")
	return cmd
}
