package spotify

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/odklm/spotfetch/config"
	"github.com/odklm/spotfetch/errutil"
)

// Options tune the client's outbound HTTP behavior. The zero value selects
// the production endpoints and defaults.
type Options struct {
	HTTPClient      *http.Client
	EmbedBaseURL    string
	SpclientBaseURL string
	RetryBaseDelay  time.Duration
}

// Client is the single entry point for playlist and track metadata
// retrieval. It owns one HTTP session and the short-lived token cache, and
// assumes a single enumeration in flight at a time.
type Client struct {
	fetcher *fetcher
	logger  zerolog.Logger
}

func NewClient(logger zerolog.Logger, opts Options) *Client {
	return &Client{
		fetcher: newFetcher(logger, opts),
		logger:  logger,
	}
}

// PlaylistMetadata fetches the playlist's embed page and normalizes it.
// When the internal playlist service is reachable its track count is
// reconciled in: the larger of the two figures wins, since the service can
// window its item list below what the embed page already proved to exist.
func (c *Client) PlaylistMetadata(ctx context.Context, playlistID string) (*Playlist, error) {
	payload, err := c.fetcher.fetchEmbed(ctx, c.fetcher.playlistEmbedURL(playlistID))
	if nil != err {
		return nil, err
	}
	entity, err := extractEntity(payload)
	if nil != err {
		return nil, err
	}
	playlist := parsePlaylist(entity)

	if token := c.fetcher.token; token != "" {
		if summary, err := c.fetcher.fetchSpclientSummary(ctx, playlistID, token); nil != err {
			c.logger.Debug().Err(err).Str("playlist_id", playlistID).Msg("Playlist service count lookup failed; keeping embed page count")
		} else if summary.Length > playlist.TrackCount {
			playlist.TrackCount = summary.Length
		}
	}

	return &playlist, nil
}

// Track fetches a single track's embed page. Any failure to produce a
// usable record surfaces as ErrNotFound.
func (c *Client) Track(ctx context.Context, trackID string) (*Track, error) {
	track, err := c.trackFromEmbedPage(ctx, trackID)
	if nil != err {
		if err, ok := errutil.IsAny(err, context.Canceled, context.DeadlineExceeded); ok {
			return nil, err
		}
		c.logger.Debug().Err(err).Str("track_id", trackID).Msg("Individual track page fetch failed")
		return nil, ErrNotFound
	}
	return track, nil
}

// ValidatePlaylist is a cheap existence probe against the oEmbed endpoint.
// Every failure mode collapses to false.
func (c *Client) ValidatePlaylist(ctx context.Context, playlistID string) bool {
	ctx, cancel := context.WithTimeout(ctx, config.OEmbedRequestTimeout)
	defer cancel()

	params := make(url.Values, 1)
	params.Add("url", "https://open.spotify.com/playlist/"+playlistID)
	reqURL := c.fetcher.oembedURL() + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		return false
	}
	req.Header.Add("User-Agent", userAgent)

	resp, err := c.fetcher.client.Do(req)
	if nil != err {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}
