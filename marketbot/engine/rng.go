package engine

import "math/rand"

// urand draws a uniform integer in [lo, hi], both bounds included. All
// engine randomness goes through an injected *rand.Rand so tests can fix
// the seed and assert exact outputs.
func urand(r *rand.Rand, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Int63n(hi-lo+1)
}

// shuffle permutes ids in place using the injected source.
func shuffle(r *rand.Rand, ids []int64) {
	r.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}
