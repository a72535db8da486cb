package randoms

// Permute shuffles s in place.
func Permute[V any](r *Rand, s []V) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// SampleWR draws n elements of s uniformly with replacement. It returns nil
// when s is empty.
func SampleWR[V any](r *Rand, s []V, n int) []V {
	if len(s) == 0 || n <= 0 {
		return nil
	}
	out := make([]V, n)
	for i := range out {
		out[i] = s[r.IntN(len(s))]
	}
	return out
}
