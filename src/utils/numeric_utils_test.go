package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$(1,234.50)", -1234.50},
		{"$1,234.50", 1234.50},
		{"(12)", -12},
		{" 3.25 ", 3.25},
		{"+7", 7},
		{"-0.5", -0.5},
		{"", 0},
		{"-", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, CleanNumeric(tt.in), 1e-9)
		})
	}
}

func TestParseNumeric_Invalid(t *testing.T) {
	_, err := ParseNumeric("12abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestNumericPresent(t *testing.T) {
	v, ok := NumericPresent("$10.00")
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = NumericPresent("0")
	assert.False(t, ok)

	_, ok = NumericPresent("")
	assert.False(t, ok)

	_, ok = NumericPresent("abc")
	assert.False(t, ok)
}

func TestContractPrice(t *testing.T) {
	assert.Equal(t, 325.0, ContractPrice(3.25))
	assert.Equal(t, 115.0, ContractPrice(1.15))
	assert.Equal(t, 150.0, ContractPrice(150))
	assert.Equal(t, 0.0, ContractPrice(0))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 1.24, RoundFloat(1.236, 2))
	assert.Equal(t, 2.0, RoundFloat(1.5, 0))
}
