// Package aggregate turns a stream of samples into running estimates with
// confidence bounds.
package aggregate

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidBounds = errors.New("invalid estimator bounds")

// Estimate is a value together with the half-width of its confidence
// interval after N samples.
type Estimate struct {
	Value   float64
	Epsilon float64
	N       int
}

func (e Estimate) String() string {
	return fmt.Sprintf("%.4f ± %.4f (n=%d)", e.Value, e.Epsilon, e.N)
}

// Average is a running mean over samples known to lie in [Lo, Hi]. Its
// bound is the large-sample Hoeffding bound
//
//	(Hi-Lo) * sqrt(ln(2/(1-Confidence)) / (2n))
type Average struct {
	Confidence float64
	Lo, Hi     float64

	n     int
	sum   float64
	sumSq float64
}

func NewAverage(confidence, lo, hi float64) (*Average, error) {
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("%w: confidence %v not in (0, 1)", ErrInvalidBounds, confidence)
	}
	if hi < lo {
		return nil, fmt.Errorf("%w: hi %v < lo %v", ErrInvalidBounds, hi, lo)
	}
	return &Average{Confidence: confidence, Lo: lo, Hi: hi}, nil
}

func (a *Average) Add(x float64) {
	a.n++
	a.sum += x
	a.sumSq += x * x
}

func (a *Average) N() int { return a.n }

// Mean is NaN before the first sample.
func (a *Average) Mean() float64 {
	if a.n == 0 {
		return math.NaN()
	}
	return a.sum / float64(a.n)
}

// Variance is the sample variance, zero for fewer than two samples.
func (a *Average) Variance() float64 {
	if a.n < 2 {
		return 0
	}
	n := float64(a.n)
	return (a.sumSq - a.sum*a.sum/n) / (n - 1)
}

// Epsilon is +Inf before the first sample.
func (a *Average) Epsilon() float64 {
	if a.n == 0 {
		return math.Inf(1)
	}
	return (a.Hi - a.Lo) * math.Sqrt(math.Log(2/(1-a.Confidence))/(2*float64(a.n)))
}

func (a *Average) Estimate() Estimate {
	return Estimate{Value: a.Mean(), Epsilon: a.Epsilon(), N: a.n}
}

// Scale multiplies an average estimate by an exact count, giving a sum
// estimate over count values.
func Scale(avg Estimate, count uint64) Estimate {
	c := float64(count)
	return Estimate{Value: avg.Value * c, Epsilon: avg.Epsilon * c, N: avg.N}
}
