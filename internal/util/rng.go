package util

import "math/rand"

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// SeedFor derives the seed of run i in a batch so runs differ but replay exactly.
func SeedFor(base int64, run int) int64 {
	return base + int64(run)*7919
}

// Jitter returns base scaled by a uniform factor in [1-spread, 1+spread].
func Jitter(r *rand.Rand, base, spread float64) float64 {
	if spread <= 0 {
		return base
	}
	return base * (1 - spread + 2*spread*r.Float64())
}
