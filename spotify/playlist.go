package spotify

import (
	"context"
	"iter"
)

// PlaylistTracks enumerates every track of a playlist in discovery order.
// The playlist embed page is fetched eagerly so a failure to reach the
// playlist itself surfaces here; the returned sequence then streams its
// entries lazily, transparently falling back to the internal playlist
// service for entries beyond the embed page's ~100-item ceiling. The
// sequence is finite and not restartable; ranging again requires a new
// call, which re-issues every request.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) (iter.Seq[Track], error) {
	payload, err := c.fetcher.fetchEmbed(ctx, c.fetcher.playlistEmbedURL(playlistID))
	if nil != err {
		return nil, err
	}
	entity, err := extractEntity(payload)
	if nil != err {
		return nil, err
	}

	entries := entity.Get("trackList").Array()
	return func(yield func(Track) bool) {
		seen := make(map[string]struct{}, len(entries))
		for _, entry := range entries {
			id := trackIDFromURI(entry.Get("uri").String())
			if id == "" {
				// Entries without a parseable track ID cannot be
				// deduplicated or downloaded.
				continue
			}
			seen[id] = struct{}{}
			if !yield(parseListTrack(entry, id)) {
				return
			}
		}

		c.yieldRemainingTracks(ctx, playlistID, seen, yield)
	}, nil
}

// yieldRemainingTracks streams tracks the embed page could not list, using
// the internal playlist service. The fallback is best-effort from top to
// bottom: no token, a non-200 summary, or a summary no longer than what was
// already seen all end the enumeration quietly.
func (c *Client) yieldRemainingTracks(ctx context.Context, playlistID string, seen map[string]struct{}, yield func(Track) bool) {
	token := c.fetcher.accessToken(ctx, playlistID)
	if token == "" {
		c.logger.Debug().Str("playlist_id", playlistID).Msg("No access token available; enumeration ends with embed page entries")
		return
	}

	summary, err := c.fetcher.fetchSpclientSummary(ctx, playlistID, token)
	if nil != err {
		c.logger.Debug().Err(err).Str("playlist_id", playlistID).Msg("Playlist service fallback failed; enumeration ends with embed page entries")
		return
	}

	if summary.Length <= len(seen) {
		return
	}

	for _, uri := range summary.Items {
		id := trackIDFromURI(uri)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		track, err := c.trackFromEmbedPage(ctx, id)
		if nil != err {
			// One bad track never stops the stream.
			c.logger.Warn().Err(err).Str("track_id", id).Msg("Failed to fetch individual track page; emitting placeholder")
			track = placeholderTrack(id, uri)
		}
		if !yield(*track) {
			return
		}
	}
}

func placeholderTrack(id, uri string) *Track {
	return &Track{ //nolint:exhaustruct
		ID:      id,
		Title:   "Track " + id,
		Artists: "Unknown Artist",
		Raw:     map[string]any{"uri": uri},
	}
}

func (c *Client) trackFromEmbedPage(ctx context.Context, trackID string) (*Track, error) {
	payload, err := c.fetcher.fetchEmbed(ctx, c.fetcher.trackEmbedURL(trackID))
	if nil != err {
		return nil, err
	}
	entity, err := extractEntity(payload)
	if nil != err {
		return nil, err
	}
	track := parsePageTrack(entity, trackID)
	return &track, nil
}
