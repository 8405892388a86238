package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleObservationRate(t *testing.T) {
	assert.Equal(t, 0.05, SampleObservation{Visitors: 1000, Conversions: 50}.Rate())
	assert.Equal(t, 0.0, SampleObservation{Visitors: 1000, Conversions: 0}.Rate())
	assert.Equal(t, 0.0, SampleObservation{}.Rate())
}

func TestSampleObservationValidate(t *testing.T) {
	tests := []struct {
		name    string
		obs     SampleObservation
		wantErr bool
	}{
		{"valid", SampleObservation{Visitors: 100, Conversions: 10}, false},
		{"zero conversions", SampleObservation{Visitors: 100, Conversions: 0}, false},
		{"all convert", SampleObservation{Visitors: 100, Conversions: 100}, false},
		{"zero visitors", SampleObservation{Visitors: 0, Conversions: 0}, true},
		{"negative visitors", SampleObservation{Visitors: -5, Conversions: 0}, true},
		{"negative conversions", SampleObservation{Visitors: 100, Conversions: -1}, true},
		{"conversions exceed visitors", SampleObservation{Visitors: 100, Conversions: 101}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obs.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTestDesignParametersValidate(t *testing.T) {
	valid := TestDesignParameters{
		Alpha:        0.05,
		Power:        0.8,
		BaselineRate: 0.05,
		Sidedness:    TwoTailed,
	}
	require.NoError(t, valid.Validate())
	assert.InDelta(t, 0.2, valid.Beta(), 1e-12)

	tests := []struct {
		name   string
		mutate func(*TestDesignParameters)
	}{
		{"alpha zero", func(p *TestDesignParameters) { p.Alpha = 0 }},
		{"alpha one", func(p *TestDesignParameters) { p.Alpha = 1 }},
		{"power zero", func(p *TestDesignParameters) { p.Power = 0 }},
		{"power one", func(p *TestDesignParameters) { p.Power = 1 }},
		{"baseline zero", func(p *TestDesignParameters) { p.BaselineRate = 0 }},
		{"baseline one", func(p *TestDesignParameters) { p.BaselineRate = 1 }},
		{"bad sidedness", func(p *TestDesignParameters) { p.Sidedness = "three-tailed" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			assert.Error(t, params.Validate())
		})
	}
}

func TestNewExperimentVariant(t *testing.T) {
	v := NewExperimentVariant("Control", 50, 0.05, true)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "Control", v.Name)
	assert.Equal(t, 50.0, v.TrafficAllocation)
	assert.Equal(t, 0.05, v.ExpectedConversionRate)
	assert.True(t, v.IsControl)

	other := NewExperimentVariant("Treatment", 50, 0.06, false)
	assert.NotEqual(t, v.ID, other.ID)
}
