package models

import "github.com/shopspring/decimal"

// DesignAnalysis is the sizing projection for a multi-variant experiment.
// It is derived entirely from the variant set and design parameters and is
// immutable once produced.
type DesignAnalysis struct {
	TotalSampleSize      int64            `json:"total_sample_size"`
	PerVariantSampleSize map[string]int64 `json:"per_variant_sample_size"`
	ExpectedDurationDays int64            `json:"expected_duration_days"`
	AdjustedAlpha        float64          `json:"adjusted_alpha"`
	EstimatedCost        decimal.Decimal  `json:"estimated_cost"`
}

// PowerCurvePoint is one (x, power) sample of a sweep curve. X is either an
// effect size in percent or a per-arm sample size depending on the sweep.
type PowerCurvePoint struct {
	X     float64 `json:"x"`
	Power float64 `json:"power"`
}
