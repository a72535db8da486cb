package aggregate

import "fmt"

// Cursor is a stream of samples, as served by the tree's sampling cursor.
type Cursor[V any] interface {
	Next() bool
	Value() V
	Err() error
}

// FixedPrecision feeds samples into avg until its bound drops to target,
// the cursor runs dry, or maxDraws samples were taken (0 means no limit).
func FixedPrecision[V any](c Cursor[V], value func(V) float64, avg *Average, target float64, maxDraws int) (Estimate, error) {
	for avg.Epsilon() > target && (maxDraws <= 0 || avg.N() < maxDraws) {
		if !c.Next() {
			break
		}
		avg.Add(value(c.Value()))
	}
	if err := c.Err(); err != nil {
		return avg.Estimate(), fmt.Errorf("sample stream failed after %d samples: %w", avg.N(), err)
	}
	return avg.Estimate(), nil
}

// Sum estimates the sum of value over a range holding count values from an
// average computed on samples of that range.
func Sum[V any](c Cursor[V], value func(V) float64, avg *Average, count uint64, target float64, maxDraws int) (Estimate, error) {
	if count == 0 {
		return Estimate{}, nil
	}
	est, err := FixedPrecision(c, value, avg, target/float64(count), maxDraws)
	return Scale(est, count), err
}
