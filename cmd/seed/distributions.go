package main

import (
	"fmt"

	"SamplingDB/randoms"
)

// keyGen builds a generator of keys in [0, limit] drawing from r.
type keyGen func(r *randoms.Rand, limit int64) func() int64

var distributions = map[string]keyGen{
	"uniform": uniformKeys,
	"gauss":   gaussKeys,
	"zipf":    zipfKeys,
}

func distribution(name string) (keyGen, error) {
	gen, ok := distributions[name]
	if !ok {
		return nil, fmt.Errorf("unknown distribution %q (want uniform, gauss or zipf)", name)
	}
	return gen, nil
}

func uniformKeys(r *randoms.Rand, limit int64) func() int64 {
	return func() int64 { return r.Int64N(limit + 1) }
}

// gaussKeys picks one of eight cluster centers and scatters around it.
func gaussKeys(r *randoms.Rand, limit int64) func() int64 {
	const clusters = 8
	width := float64(limit) / clusters
	return func() int64 {
		center := (float64(r.IntN(clusters)) + 0.5) * width
		return clampKey(int64(center+r.NormFloat64()*width/6), limit)
	}
}

// zipfKeys draws with P(k) proportional to (1+k)^-1.1, so 0 is the most
// frequent key.
func zipfKeys(r *randoms.Rand, limit int64) func() int64 {
	z := r.NewZipf(1.1, 1, uint64(limit))
	return func() int64 { return int64(z.Uint64()) }
}

func clampKey(k, limit int64) int64 {
	return min(limit, max(0, k))
}
