package unit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{"gms", Gram, false},
		{"kg", Kilogram, false},
		{"ltr", Litre, false},
		{"", "", true},
		{"grams", "", true},
		{"KG", "", true},
		{"lbs", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidUnit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToCanonical(t *testing.T) {
	tests := []struct {
		name string
		q    float64
		u    Unit
		want float64
	}{
		{"500 grams", 500, Gram, 0.5},
		{"300 grams", 300, Gram, 0.3},
		{"1 gram truncates past 3 decimals", 1, Gram, 0.001},
		{"half gram truncates to zero", 0.5, Gram, 0},
		{"kg passes through", 2.5, Kilogram, 2.5},
		{"ltr passes through", 1.25, Litre, 1.25},
		{"kg truncated to 3 decimals", 1.23456, Kilogram, 1.234},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToCanonical(tt.q, tt.u)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ToCanonical(1, Unit("oz"))
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestFromCanonical(t *testing.T) {
	got, err := FromCanonical(0.5, Gram)
	require.NoError(t, err)
	assert.Equal(t, 500.0, got)

	got, err = FromCanonical(2.5, Kilogram)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)

	_, err = FromCanonical(1, Unit("oz"))
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

// Round-tripping a gram quantity must land within the declared 3-decimal
// truncation tolerance of the input, not necessarily on it exactly.
func TestRoundTripWithinTolerance(t *testing.T) {
	quantities := []float64{1, 250, 300, 500, 750, 999, 1234, 1500.5}
	for _, q := range quantities {
		canonical, err := ToCanonical(q, Gram)
		require.NoError(t, err)
		back, err := FromCanonical(canonical, Gram)
		require.NoError(t, err)
		// 3 canonical decimals = 1 gram resolution
		assert.LessOrEqual(t, math.Abs(back-q), 1.0, "q=%v back=%v", q, back)
	}

	for _, q := range []float64{0.5, 1.5, 2.345, 10} {
		canonical, err := ToCanonical(q, Kilogram)
		require.NoError(t, err)
		back, err := FromCanonical(canonical, Kilogram)
		require.NoError(t, err)
		assert.InDelta(t, q, back, 0.001)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		n        float64
		decimals int
		want     float64
	}{
		{"plain", 1.2345, 3, 1.234},
		{"no change needed", 1.2, 3, 1.2},
		{"representation error settled", 0.3, 3, 0.3},
		{"repeated addition drift", 0.1 + 0.1 + 0.1, 3, 0.3},
		{"two decimals", 16.6666, 2, 16.66},
		{"never rounds up", 0.9999, 3, 0.999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.n, tt.decimals))
		})
	}
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		name     string
		n        float64
		decimals int
		want     float64
	}{
		{"fractional paisa rounds up", 16.661, 2, 16.67},
		{"exact value untouched", 16.66, 2, 16.66},
		{"representation error settled", 0.1 + 0.2, 2, 0.3},
		{"product of floats", 0.5 * 33.33, 2, 16.67},
		{"whole number untouched", 50, 2, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundUp(tt.n, tt.decimals))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.5", Format(0.5))
	assert.Equal(t, "500", Format(500))
	assert.Equal(t, "1.25", Format(1.25))
}
