package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateMass(t *testing.T) {
	tests := []struct {
		name        string
		diameter    float64
		composition Composition
		want        float64
	}{
		{"stony 100m", 100, Stony, 1.8326e9},
		{"iron 100m", 100, Iron, 4.0841e9},
		{"stony-iron 10m", 10, StonyIron, 2.6180e6},
		{"carbonaceous 1m", 1, Carbonaceous, 1309.0},
		{"unknown falls back to stony", 100, Composition("ice"), 1.8326e9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateMass(tt.diameter, tt.composition)
			assert.InEpsilon(t, tt.want, got, 0.001)
		})
	}
}

func TestEstimateMassWithDensity_NEO(t *testing.T) {
	got := EstimateMassWithDensity(100, NEODensity)

	assert.InEpsilon(t, 1.5708e9, got, 0.001)
}

func TestComposition_Density(t *testing.T) {
	assert.Equal(t, 7800.0, Iron.Density())
	assert.Equal(t, 3500.0, Stony.Density())
	assert.Equal(t, 5000.0, StonyIron.Density())
	assert.Equal(t, 2500.0, Carbonaceous.Density())
	assert.Equal(t, DefaultDensity, Composition("").Density())
}

func TestEstimateMassFromInput(t *testing.T) {
	m, err := EstimateMassFromInput(100, " Iron ")
	assert.NoError(t, err)
	assert.InEpsilon(t, 4.0841e9, m, 0.001)

	_, err = EstimateMassFromInput(0, "iron")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = EstimateMassFromInput(100, "ice")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
