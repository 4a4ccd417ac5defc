package geo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		expected  float64 // kilometers
		tolerance float64 // relative tolerance
	}{
		{
			name: "same point",
			lat1: 37.7749, lon1: -122.4194,
			lat2: 37.7749, lon2: -122.4194,
			expected:  0,
			tolerance: 0,
		},
		{
			name: "adjacent block",
			lat1: 40.0, lon1: -75.0,
			lat2: 40.001, lon2: -75.001,
			expected:  0.13,
			tolerance: 0.05,
		},
		{
			name: "Lisbon to Porto",
			lat1: 38.7223, lon1: -9.1393,
			lat2: 41.1579, lon2: -8.6291,
			expected:  274.0,
			tolerance: 0.01,
		},
		{
			name: "SF to NYC",
			lat1: 37.7749, lon1: -122.4194,
			lat2: 40.7128, lon2: -74.0060,
			expected:  4129.0,
			tolerance: 0.005,
		},
		{
			name: "across the antimeridian",
			lat1: 0, lon1: 179.5,
			lat2: 0, lon2: -179.5,
			expected:  111.19,
			tolerance: 0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if tt.expected == 0 {
				assert.InDelta(t, 0, got, 1e-9)
				return
			}
			assert.InDelta(t, tt.expected, got, tt.expected*tt.tolerance)
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{38.7223, -9.1393, 41.1579, -8.6291},
		{40.0, -75.0, 40.001, -75.001},
		{-33.8688, 151.2093, 51.5074, -0.1278},
		{89.9, 0, -89.9, 180},
	}
	for _, p := range pairs {
		ab := Distance(p[0], p[1], p[2], p[3])
		ba := Distance(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"valid", 40.0, -75.0, false},
		{"boundary north pole", 90, 0, false},
		{"boundary antimeridian", 0, -180, false},
		{"latitude too high", 90.01, 0, true},
		{"latitude too low", -91, 0, true},
		{"longitude too high", 0, 180.5, true},
		{"longitude too low", 0, -181, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lat, tt.lon)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRadius(t *testing.T) {
	assert.NoError(t, ValidateRadius(5))
	assert.True(t, errors.Is(ValidateRadius(0), models.ErrValidation))
	assert.True(t, errors.Is(ValidateRadius(-1), models.ErrValidation))
}
