package spotify

import (
	"context"
	"errors"
)

var (
	// ErrInvalidLink is returned when a URL matches neither the playlist
	// nor the track shape.
	ErrInvalidLink = errors.New("invalid Spotify link")

	// ErrRateLimited maps an explicit 429 from the embed endpoint.
	ErrRateLimited = errors.New("rate limited by Spotify")

	// ErrAccessDenied maps 401/403; the entity is private or blocked.
	ErrAccessDenied = errors.New("access denied")

	// ErrMalformedPage means the embed page no longer carries the expected
	// data blob; the upstream page structure has drifted.
	ErrMalformedPage = errors.New("malformed embed page")

	// ErrNotFound is returned by Track when the individual page yields
	// nothing usable.
	ErrNotFound = errors.New("track not found")
)

func isPermanentFetchErr(err error) bool {
	return errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrMalformedPage) || errors.Is(err, context.Canceled)
}
