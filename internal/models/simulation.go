package models

import "time"

// TrafficProfile selects the per-period traffic multiplier applied during
// simulation, modeling how visitor volume evolves over the horizon.
type TrafficProfile string

const (
	TrafficUniform        TrafficProfile = "uniform"
	TrafficIncreasing     TrafficProfile = "increasing"
	TrafficDecreasing     TrafficProfile = "decreasing"
	TrafficWeeklySeasonal TrafficProfile = "weekly-seasonal"
	TrafficWeekendStep    TrafficProfile = "weekend-step"
)

// SimulationParameters configures one Monte Carlo simulation batch.
// RelativeEffect is a fraction (0.1 means the treatment converts 10% better
// than baseline); a value of exactly 0 turns the batch into a false-positive
// rate measurement.
type SimulationParameters struct {
	BaselineRate     float64        `json:"baseline_rate"`
	RelativeEffect   float64        `json:"relative_effect"`
	SampleSizePerArm int64          `json:"sample_size_per_arm"`
	Runs             int            `json:"runs"`
	HorizonDays      int            `json:"horizon_days"`
	Profile          TrafficProfile `json:"profile"`
	Alpha            float64        `json:"alpha"`
	Seed             int64          `json:"seed"`
	Workers          int            `json:"workers"`
}

// DailyStat is the cumulative state of one simulated run at the end of a
// period, with the two-sample test applied to the cumulative counts.
type DailyStat struct {
	Day                  int     `json:"day"`
	ControlVisitors      int64   `json:"control_visitors"`
	ControlConversions   int64   `json:"control_conversions"`
	TreatmentVisitors    int64   `json:"treatment_visitors"`
	TreatmentConversions int64   `json:"treatment_conversions"`
	PValue               float64 `json:"p_value"`
	Significant          bool    `json:"significant"`
}

// SimulationRun is one complete simulated experiment. Its final-period
// result is the run's outcome.
type SimulationRun struct {
	Index       int         `json:"index"`
	Daily       []DailyStat `json:"daily"`
	FinalPValue float64     `json:"final_p_value"`
	Significant bool        `json:"significant"`
	EffectGap   float64     `json:"effect_gap"`
}

// SimulationProgress reports best-effort progress of an in-flight batch.
// Percent is monotonically non-decreasing within a batch.
type SimulationProgress struct {
	CompletedRuns int     `json:"completed_runs"`
	TotalRuns     int     `json:"total_runs"`
	CurrentRun    int     `json:"current_run"`
	Percent       float64 `json:"percent"`
}

// SimulationSummary aggregates the outcomes of all runs in a batch. It is
// transient: built per invocation, owned by the caller, never persisted.
type SimulationSummary struct {
	Runs              int           `json:"runs"`
	EmpiricalPower    float64       `json:"empirical_power"`
	MeanFinalPValue   float64       `json:"mean_final_p_value"`
	MeanEffectGap     float64       `json:"mean_effect_gap"`
	FalsePositiveRate float64       `json:"false_positive_rate"`
	Elapsed           time.Duration `json:"elapsed"`
}
