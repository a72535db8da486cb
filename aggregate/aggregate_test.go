package aggregate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceCursor struct {
	vals []float64
	pos  int
	err  error
}

func (c *sliceCursor) Next() bool {
	if c.pos >= len(c.vals) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Value() float64 { return c.vals[c.pos-1] }

func (c *sliceCursor) Err() error { return c.err }

func identity(v float64) float64 { return v }

func TestAverageRunningValues(t *testing.T) {
	a, err := NewAverage(0.95, 0, 10)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(a.Mean()))
	assert.True(t, math.IsInf(a.Epsilon(), 1))

	for _, x := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		a.Add(x)
	}
	assert.Equal(t, 8, a.N())
	assert.InDelta(t, 5.0, a.Mean(), 1e-12)
	assert.InDelta(t, 32.0/7, a.Variance(), 1e-12)

	want := 10 * math.Sqrt(math.Log(2/0.05)/16)
	assert.InDelta(t, want, a.Epsilon(), 1e-12)
}

func TestAverageRejectsBadBounds(t *testing.T) {
	_, err := NewAverage(1, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidBounds)
	_, err = NewAverage(0.9, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidBounds)
}

func TestFixedPrecisionStopsAtTarget(t *testing.T) {
	vals := make([]float64, 100000)
	for i := range vals {
		vals[i] = float64(i % 2)
	}
	a, err := NewAverage(0.95, 0, 1)
	require.NoError(t, err)

	est, err := FixedPrecision[float64](&sliceCursor{vals: vals}, identity, a, 0.05, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, est.Epsilon, 0.05)
	// n is the first count where the bound drops below target
	need := int(math.Ceil(math.Log(2/0.05) / (2 * 0.05 * 0.05)))
	assert.Equal(t, need, est.N)
	assert.InDelta(t, 0.5, est.Value, 0.01)
}

func TestFixedPrecisionLimits(t *testing.T) {
	a, _ := NewAverage(0.99, 0, 100)
	est, err := FixedPrecision[float64](&sliceCursor{vals: []float64{10, 20, 30}}, identity, a, 0.001, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, est.N)
	assert.InDelta(t, 20.0, est.Value, 1e-12)

	a, _ = NewAverage(0.99, 0, 100)
	est, err = FixedPrecision[float64](&sliceCursor{vals: make([]float64, 50)}, identity, a, 0.001, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, est.N)

	boom := errors.New("boom")
	a, _ = NewAverage(0.99, 0, 100)
	_, err = FixedPrecision[float64](&sliceCursor{err: boom}, identity, a, 0.001, 0)
	assert.ErrorIs(t, err, boom)
}

func TestSumScalesByCount(t *testing.T) {
	a, _ := NewAverage(0.9, 0, 10)
	est, err := Sum[float64](&sliceCursor{vals: []float64{4, 6}}, identity, a, 1000, 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 5000.0, est.Value, 1e-9)
	assert.Equal(t, 2, est.N)

	est, err = Sum[float64](&sliceCursor{}, identity, a, 0, 1, 0)
	require.NoError(t, err)
	assert.Zero(t, est.Value)
}
