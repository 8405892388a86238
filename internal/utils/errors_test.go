package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"domain", NewDomainError("p out of range"), "p out of range"},
		{"domain formatted", NewDomainErrorf("p=%v out of range", 1.5), "p=1.5 out of range"},
		{"invalid input", NewInvalidInputError("no visitors"), "no visitors"},
		{"invalid input formatted", NewInvalidInputErrorf("%d visitors", 0), "0 visitors"},
		{"invalid design", NewInvalidDesignError("no control"), "no control"},
		{"invalid design formatted", NewInvalidDesignErrorf("sum=%v", 90.0), "sum=90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorTypesAreDistinct(t *testing.T) {
	var domain *DomainError
	var input *InvalidInputError

	err := NewDomainError("boundary")
	assert.True(t, errors.As(err, &domain))
	assert.False(t, errors.As(err, &input))
}

func TestNonConvergenceError(t *testing.T) {
	err := NewNonConvergenceError("bisection stalled", 50, 12.34)

	var nc *NonConvergenceError
	require.True(t, errors.As(err, &nc))
	assert.Equal(t, 50, nc.Iterations)
	assert.Equal(t, 12.34, nc.BestEstimate)
	assert.Contains(t, err.Error(), "bisection stalled")
	assert.Contains(t, err.Error(), "50 iterations")
}
