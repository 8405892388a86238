package models

// BoundaryFamily selects the shape of the group-sequential stopping
// boundaries.
type BoundaryFamily string

const (
	OBrienFleming BoundaryFamily = "obrien-fleming"
	Pocock        BoundaryFamily = "pocock"
	WangTsiatis   BoundaryFamily = "wang-tsiatis"
)

// DecisionState is the outcome of evaluating the current test statistic
// against the sequential boundaries. The state is recomputed from the
// observation at hand on every look, never advanced.
type DecisionState string

const (
	Continue     DecisionState = "CONTINUE"
	StopSuccess  DecisionState = "STOP_SUCCESS"
	StopFutility DecisionState = "STOP_FUTILITY"
	StopHarm     DecisionState = "STOP_HARM"
)

// SequentialBounds holds the stopping boundaries at one information
// fraction. Lower is always the mirror of Upper for the supported
// symmetric families; Futility is only meaningful when FutilityEnabled.
type SequentialBounds struct {
	InformationFraction float64 `json:"information_fraction"`
	Upper               float64 `json:"upper"`
	Lower               float64 `json:"lower"`
	Futility            float64 `json:"futility"`
	FutilityEnabled     bool    `json:"futility_enabled"`
}

// BoundaryHistoryPoint traces the boundary envelope at one point in the
// life of a trial. ObservedZ is set only on the point nearest the current
// sample size.
type BoundaryHistoryPoint struct {
	SampleSize          int64    `json:"sample_size"`
	InformationFraction float64  `json:"information_fraction"`
	UpperBound          float64  `json:"upper_bound"`
	LowerBound          float64  `json:"lower_bound"`
	FutilityBound       float64  `json:"futility_bound"`
	ObservedZ           *float64 `json:"observed_z,omitempty"`
}

// SequentialAssessment bundles everything a monitoring look produces.
type SequentialAssessment struct {
	Bounds             SequentialBounds `json:"bounds"`
	Decision           DecisionState    `json:"decision"`
	ObservedZ          float64          `json:"observed_z"`
	ConditionalPower   float64          `json:"conditional_power"`
	ExpectedSampleSize float64          `json:"expected_sample_size"`
}
