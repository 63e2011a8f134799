package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/flaw/v8"

	"github.com/odklm/spotfetch/audio"
	"github.com/odklm/spotfetch/cache"
	"github.com/odklm/spotfetch/config"
	"github.com/odklm/spotfetch/ctxutil"
	"github.com/odklm/spotfetch/errutil"
	"github.com/odklm/spotfetch/iterutil"
	"github.com/odklm/spotfetch/mathutil"
	"github.com/odklm/spotfetch/ratelimit"
	"github.com/odklm/spotfetch/spotify"
	"github.com/odklm/spotfetch/tag"
	"github.com/odklm/spotfetch/textutil"
)

// shutdownGrace bounds how long an in-flight track download may keep
// running after the run's context is canceled.
const shutdownGrace = 10 * time.Second

// Source supplies playlist and track metadata. *spotify.Client satisfies it.
type Source interface {
	PlaylistMetadata(ctx context.Context, playlistID string) (*spotify.Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string) (iter.Seq[spotify.Track], error)
	Track(ctx context.Context, trackID string) (*spotify.Track, error)
}

type Scraper struct {
	source        Source
	resolver      audio.Resolver
	cache         *cache.Cache
	events        Events
	logger        zerolog.Logger
	coverClient   *http.Client
	downloadDelay func() time.Duration
	musicDir      string
	allowSpaces   bool
}

func New(logger zerolog.Logger, source Source, resolver audio.Resolver, events Events, musicDir string, allowSpaces bool) *Scraper {
	if events == nil {
		events = NopEvents{}
	}
	return &Scraper{
		source:        source,
		resolver:      resolver,
		cache:         cache.New(),
		events:        events,
		logger:        logger,
		coverClient:   &http.Client{},
		downloadDelay: ratelimit.TrackDownloadDelay,
		musicDir:      musicDir,
		allowSpaces:   allowSpaces,
	}
}

// SetDownloadDelay overrides the pause inserted before each actual
// download.
func (s *Scraper) SetDownloadDelay(delay func() time.Duration) {
	s.downloadDelay = delay
}

// Playlist downloads every track of the playlist the link points to into a
// per-playlist directory under the music directory. Individual track
// failures are recorded in the summary and never abort the run.
func (s *Scraper) Playlist(ctx context.Context, link string) (Summary, error) {
	kind, playlistID, err := spotify.Classify(link)
	if nil != err {
		return Summary{}, err
	}
	if kind != spotify.KindPlaylist {
		return Summary{}, fmt.Errorf("scrape: expected a playlist link, got a %s link: %w", kind, spotify.ErrInvalidLink)
	}

	playlist, err := s.playlistMeta(ctx, playlistID)
	if nil != err {
		return Summary{}, err
	}

	owner := playlist.Owner
	if owner == "" {
		owner = "Spotify"
	}
	dirName := textutil.SanitizeFileName(playlist.Name+" - "+owner, s.allowSpaces)
	dir := filepath.Join(s.musicDir, dirName)
	if err := os.MkdirAll(dir, 0o755); nil != err {
		return Summary{}, flaw.From(fmt.Errorf("scrape: failed to create playlist directory: %v", err)).Append(playlist.FlawP())
	}

	tracks, err := s.source.PlaylistTracks(ctx, playlistID)
	if nil != err {
		return Summary{}, err
	}

	// A cancel stops new tracks from starting immediately, while the track
	// already in flight gets a grace window to finish and be tagged.
	dlCtx, cancelDl := ctxutil.WithDelayedTimeout(ctx, shutdownGrace)
	defer cancelDl()

	var summary Summary
	total := playlist.TrackCount
	for i, track := range iterutil.WithIndex(tracks) {
		if err := ctx.Err(); nil != err {
			return summary, err
		}

		if track.CoverURL == "" {
			// List entries carry no per-track art; the playlist cover is
			// better than nothing.
			track.CoverURL = playlist.CoverURL
		}

		if err := s.downloadOne(dlCtx, dir, track); nil != err {
			if _, ok := errutil.IsAny(err, context.Canceled, context.DeadlineExceeded); ok {
				return summary, err
			}
			s.logger.Warn().Err(err).Str("reason", friendlyReason(err)).Func(track.Log).Msg("Track download failed")
			summary.Failed++
			summary.FailedTitles = append(summary.FailedTitles, track.Title)
		} else {
			summary.Succeeded++
		}

		if total > 0 {
			s.events.Progress(min(100, mathutil.CeilInts((i+1)*100, total)))
		}
	}

	s.events.Done(summary)
	return summary, nil
}

// Track downloads the single track the link points to directly into the
// music directory.
func (s *Scraper) Track(ctx context.Context, link string) (Summary, error) {
	kind, trackID, err := spotify.Classify(link)
	if nil != err {
		return Summary{}, err
	}
	if kind != spotify.KindTrack {
		return Summary{}, fmt.Errorf("scrape: expected a track link, got a %s link: %w", kind, spotify.ErrInvalidLink)
	}

	track, err := s.source.Track(ctx, trackID)
	if nil != err {
		return Summary{}, err
	}
	if err := os.MkdirAll(s.musicDir, 0o755); nil != err {
		return Summary{}, flaw.From(fmt.Errorf("scrape: failed to create music directory: %v", err))
	}

	var summary Summary
	if err := s.downloadOne(ctx, s.musicDir, *track); nil != err {
		if _, ok := errutil.IsAny(err, context.Canceled, context.DeadlineExceeded); ok {
			return summary, err
		}
		summary.Failed++
		summary.FailedTitles = append(summary.FailedTitles, track.Title)
		s.events.Done(summary)
		return summary, err
	}
	summary.Succeeded++
	s.events.Done(summary)
	return summary, nil
}

// friendlyReason maps known failure kinds to the short strings surfaced in
// run summaries and logs.
func friendlyReason(err error) string {
	switch {
	case errors.Is(err, audio.ErrUnavailable):
		return "no playable source found"
	case errors.Is(err, audio.ErrRateLimited), errors.Is(err, spotify.ErrRateLimited):
		return "rate limited"
	case errors.Is(err, spotify.ErrNotFound):
		return "track not found"
	case errors.Is(err, spotify.ErrAccessDenied):
		return "access denied"
	default:
		return "download failed"
	}
}

func (s *Scraper) playlistMeta(ctx context.Context, playlistID string) (*spotify.Playlist, error) {
	item, err := s.cache.PlaylistsMeta.Fetch(playlistID, cache.DefaultPlaylistMetaTTL, func() (*spotify.Playlist, error) {
		return s.source.PlaylistMetadata(ctx, playlistID)
	})
	if nil != err {
		return nil, err
	}
	return item.Value(), nil
}

func (s *Scraper) downloadOne(ctx context.Context, dir string, track spotify.Track) error {
	fileName := textutil.SanitizeFileName(track.Title+" - "+track.Artists, s.allowSpaces) + ".mp3"
	filePath := filepath.Join(dir, fileName)
	meta := TrackMeta{
		Title:       track.Title,
		Artists:     track.Artists,
		Album:       track.Album,
		ReleaseDate: track.ReleaseDate,
		CoverURL:    track.CoverURL,
		File:        filePath,
	}
	s.events.TrackStarted(meta)

	if _, err := os.Stat(filePath); nil == err {
		s.logger.Debug().Str("file_path", filePath).Msg("Track file already exists, skipping download")
		s.events.TrackFinished(meta, true)
		return nil
	} else if !os.IsNotExist(err) {
		return flaw.From(fmt.Errorf("scrape: failed to stat track file: %v", err)).Append(track.FlawP())
	}

	select {
	case <-time.After(s.downloadDelay()):
	case <-ctx.Done():
		return ctx.Err()
	}

	var cover []byte
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if track.CoverURL == "" {
			return nil
		}
		b, err := s.coverBytes(egCtx, track.CoverURL)
		if nil != err {
			// The tag is still worth writing without artwork.
			s.logger.Warn().Err(err).Str("cover_url", track.CoverURL).Msg("Failed to download track cover")
			return nil
		}
		cover = b
		return nil
	})
	eg.Go(func() error {
		searchText := track.Title + " " + track.Artists + " audio"
		if _, err := s.resolver.ResolveAndFetch(egCtx, searchText, filePath); nil != err {
			return err
		}
		return nil
	})
	if err := eg.Wait(); nil != err {
		return err
	}

	if err := tag.Embed(filePath, track, cover); nil != err {
		return err
	}

	s.events.TrackFinished(meta, false)
	return nil
}

func (s *Scraper) coverBytes(ctx context.Context, coverURL string) ([]byte, error) {
	item, err := s.cache.DownloadedCovers.Fetch(coverURL, cache.DefaultDownloadedCoverTTL, func() ([]byte, error) {
		return s.fetchCover(ctx, coverURL)
	})
	if nil != err {
		return nil, err
	}
	return item.Value(), nil
}

func (s *Scraper) fetchCover(ctx context.Context, coverURL string) (out []byte, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, config.CoverDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, coverURL, nil)
	if nil != err {
		return nil, flaw.From(fmt.Errorf("scrape: failed to create cover download request: %v", err))
	}
	resp, err := s.coverClient.Do(req)
	if nil != err {
		if _, ok := errutil.IsAny(err, context.Canceled); ok {
			return nil, ctx.Err()
		}
		return nil, flaw.From(fmt.Errorf("scrape: failed to download cover: %v", err)).Append(flaw.P{"cover_url": coverURL})
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			closeErr = flaw.From(fmt.Errorf("scrape: failed to close cover response body: %v", closeErr))
			if nil != err {
				err = errors.Join(err, closeErr)
			} else {
				err = closeErr
			}
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, flaw.From(fmt.Errorf("scrape: unexpected cover download response status code: %d", resp.StatusCode)).Append(flaw.P{"cover_url": coverURL})
	}
	b, err := io.ReadAll(resp.Body)
	if nil != err {
		return nil, flaw.From(fmt.Errorf("scrape: failed to read cover response body: %v", err))
	}
	return b, nil
}
