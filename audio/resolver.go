// Package audio resolves a track search query to a local audio file.
package audio

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates no playable source exists for the query.
	ErrUnavailable = errors.New("audio: no playable source found")
	// ErrRateLimited indicates the source provider throttled the request.
	ErrRateLimited = errors.New("audio: rate limited by source provider")
)

// Resolver searches an external source for searchText and writes the
// resulting audio to dest. It returns the path of the written file,
// which may differ from dest in extension.
type Resolver interface {
	ResolveAndFetch(ctx context.Context, searchText string, dest string) (string, error)
}
