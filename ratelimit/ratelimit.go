// Package ratelimit centralizes the pacing applied to outbound traffic so
// scrape runs stay well below upstream throttling thresholds.
package ratelimit

import (
	"math/rand/v2"
	"time"
)

// TrackDownloadDelay returns a randomized pause to insert between
// consecutive track downloads.
func TrackDownloadDelay() time.Duration {
	const (
		from = 1
		to   = 4
	)
	millis := (rand.IntN(to-from)+from)*1000 + rand.N(1000) //nolint:gosec
	return time.Duration(millis) * time.Millisecond
}
