package randoms

// Binomial draws from B(n, p) by running n Bernoulli trials.
func (r *Rand) Binomial(n int, p float64) int {
	switch {
	case n <= 0 || p <= 0:
		return 0
	case p >= 1:
		return n
	}
	hits := 0
	for range n {
		if r.Float64() < p {
			hits++
		}
	}
	return hits
}

// Multinomial splits n draws over groups with the given weights. Group i
// receives B(left, w[i]/remainingWeight) where left is what the groups
// before it did not take, so the result always sums to n as long as some
// weight is positive. With all weights zero every group gets nothing.
func (r *Rand) Multinomial(weights []uint64, n int) []int {
	var remaining uint64
	for _, w := range weights {
		remaining += w
	}
	out := make([]int, len(weights))
	for i, w := range weights {
		if n == 0 || remaining == 0 {
			break
		}
		k := r.Binomial(n, float64(w)/float64(remaining))
		out[i] = k
		n -= k
		remaining -= w
	}
	return out
}
