package utils

import (
	"math/rand"
	"time"
)

func NewSeededRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// ClockSeed derives a seed for callers that didn't supply one.
func ClockSeed(now time.Time) int64 {
	return now.UnixNano()
}
