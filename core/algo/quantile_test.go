package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQuantile tests the interpolated quantile calculation.
func TestQuantile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
		ok       bool
	}{
		{name: "empty", values: nil, p: 0.5, ok: false},
		{name: "single value any p", values: []float64{7}, p: 0.9, expected: 7, ok: true},
		{name: "median of even count", values: []float64{1, 2, 3, 4}, p: 0.5, expected: 2.5, ok: true},
		{name: "median of odd count", values: []float64{3, 1, 2}, p: 0.5, expected: 2, ok: true},
		{name: "p0 is min", values: []float64{5, -2, 9}, p: 0, expected: -2, ok: true},
		{name: "p1 is max", values: []float64{5, -2, 9}, p: 1, expected: 9, ok: true},
		{name: "interpolated p95", values: []float64{10, 20, 30, 40, 50}, p: 0.95, expected: 48, ok: true},
		{name: "p above 1 clamps", values: []float64{1, 2}, p: 3, expected: 2, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Quantile(tt.values, tt.p)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, got, 1e-9)
			}
		})
	}
}

func TestQuantileOrderInvariant(t *testing.T) {
	a := []float64{9, 1, 4, 4, 7, 2}
	b := []float64{2, 4, 7, 1, 9, 4}
	for _, p := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.99, 1} {
		qa, okA := Quantile(a, p)
		qb, okB := Quantile(b, p)
		require.True(t, okA)
		require.True(t, okB)
		assert.InDelta(t, qa, qb, 1e-12, "p=%v", p)
	}
}

func TestQuantileDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, _ = Quantile(values, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestMedianPtr(t *testing.T) {
	assert.Nil(t, MedianPtr(nil))
	m := MedianPtr([]float64{0.1, 0.3})
	require.NotNil(t, m)
	assert.InDelta(t, 0.2, *m, 1e-12)
}
