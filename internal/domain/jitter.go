package domain

import "math"

// Jitter returns floor(value·(1+U(-bound,bound))), never below zero.
func Jitter(value int, bound float64, rng RandomSource) int {
	v := math.Floor(float64(value) * (1 + uniform(rng, -bound, bound)))
	if v < 0 {
		return 0
	}
	return int(v)
}
