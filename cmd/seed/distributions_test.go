package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SamplingDB/randoms"
)

func TestDistributionsStayInRange(t *testing.T) {
	for name, gen := range distributions {
		next := gen(randoms.New(7), 999)
		for i := 0; i < 5000; i++ {
			k := next()
			require.GreaterOrEqual(t, k, int64(0), name)
			require.LessOrEqual(t, k, int64(999), name)
		}
	}
}

func TestUniformCoversEveryKey(t *testing.T) {
	next := uniformKeys(randoms.New(3), 9)
	counts := make([]int, 10)
	for i := 0; i < 10000; i++ {
		counts[next()]++
	}
	for k, n := range counts {
		assert.InDelta(t, 1000, n, 150, "key %d", k)
	}
}

func TestZipfSkewsLow(t *testing.T) {
	next := zipfKeys(randoms.New(11), 1_000_000)
	low := 0
	for i := 0; i < 10000; i++ {
		if next() < 1000 {
			low++
		}
	}
	// about 69% of the mass sits below 1000 at s = 1.1
	assert.Greater(t, low, 6000)
}

func TestUnknownDistribution(t *testing.T) {
	_, err := distribution("pareto")
	assert.Error(t, err)
	gen, err := distribution("gauss")
	require.NoError(t, err)
	assert.NotNil(t, gen)
}
