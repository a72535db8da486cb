// Package randoms holds the random draws the sampling tree is built on: a
// generator whose state can be copied and stored, binomial and multinomial
// splits, and with-replacement sampling.
package randoms

import (
	"fmt"
	"math/rand/v2"
)

const stream = 0x9e3779b97f4a7c15

// Rand is a seeded generator. Its state can be cloned or serialized, so a
// run can be forked or resumed at the exact same position.
type Rand struct {
	src *rand.PCG
	r   *rand.Rand
}

func New(seed uint64) *Rand {
	return wrap(rand.NewPCG(seed, seed^stream))
}

func wrap(src *rand.PCG) *Rand {
	return &Rand{src: src, r: rand.New(src)}
}

// Clone returns an independent generator that continues from the current
// state. Both produce the same sequence afterwards.
func (r *Rand) Clone() *Rand {
	cp := *r.src
	return wrap(&cp)
}

func (r *Rand) MarshalBinary() ([]byte, error) {
	return r.src.MarshalBinary()
}

func (r *Rand) UnmarshalBinary(data []byte) error {
	src := new(rand.PCG)
	if err := src.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("restore generator state: %w", err)
	}
	r.src = src
	r.r = rand.New(src)
	return nil
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 { return r.r.Float64() }

// IntN returns a value in [0, n). It panics if n <= 0.
func (r *Rand) IntN(n int) int { return r.r.IntN(n) }

// Int64N returns a value in [0, n). It panics if n <= 0.
func (r *Rand) Int64N(n int64) int64 { return r.r.Int64N(n) }

// NewZipf returns a Zipf generator over [0, imax] drawing from r, with
// P(k) proportional to (v+k)^-s. It needs s > 1 and v >= 1.
func (r *Rand) NewZipf(s, v float64, imax uint64) *rand.Zipf {
	return rand.NewZipf(r.r, s, v, imax)
}

func (r *Rand) NormFloat64() float64 { return r.r.NormFloat64() }

func (r *Rand) Uint64() uint64 { return r.r.Uint64() }
