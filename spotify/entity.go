package spotify

import (
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const (
	entityPath      = "props.pageProps.state.data.entity"
	sessionPath     = "props.pageProps.state.settings.session"
	trackURIPrefix  = "spotify:track:"
	unknownPlaylist = "Unknown Playlist"
	unknownTrack    = "Unknown Track"
)

// extractEntity descends to the entity object of an embed payload. The
// payload has already been validated as JSON by the fetcher; a missing or
// non-object entity means the page structure drifted upstream.
func extractEntity(payload []byte) (gjson.Result, error) {
	entity := gjson.GetBytes(payload, entityPath)
	if !entity.IsObject() {
		return gjson.Result{}, ErrMalformedPage
	}
	return entity, nil
}

func parsePlaylist(entity gjson.Result) Playlist {
	name := entity.Get("name").String()
	if name == "" {
		name = entity.Get("title").String()
	}
	if name == "" {
		name = unknownPlaylist
	}

	var coverURL string
	if sources := entity.Get("coverArt.sources").Array(); len(sources) > 0 {
		coverURL = sources[len(sources)-1].Get("url").String()
	}

	return Playlist{
		Name:        name,
		Owner:       entity.Get("subtitle").String(),
		Description: entity.Get("description").String(),
		CoverURL:    coverURL,
		TrackCount:  len(entity.Get("trackList").Array()),
	}
}

// parseListTrack normalizes one trackList entry of a playlist embed page.
// Entries carry no per-track art.
func parseListTrack(entry gjson.Result, id string) Track {
	title := entry.Get("title").String()
	if title == "" {
		title = entry.Get("name").String()
	}
	if title == "" {
		title = unknownTrack
	}

	artists := entry.Get("subtitle").String()
	if artists == "" {
		artists = joinArtistNames(entry.Get("artists"))
	}

	var album string
	if a := entry.Get("album"); a.IsObject() {
		album = a.Get("name").String()
	}

	raw, _ := entry.Value().(map[string]any)
	return Track{
		ID:          id,
		Title:       title,
		Artists:     artists,
		Album:       album,
		ReleaseDate: entry.Get("releaseDate").String(),
		DurationMS:  entry.Get("duration").Int(),
		PreviewURL:  entry.Get("audioPreview.url").String(),
		Raw:         raw,
	}
}

// parsePageTrack normalizes the richer entity of an individual track embed
// page.
func parsePageTrack(entity gjson.Result, id string) Track {
	title := entity.Get("name").String()
	if title == "" {
		title = entity.Get("title").String()
	}
	if title == "" {
		title = unknownTrack
	}

	artists := joinArtistNames(entity.Get("artists"))
	if artists == "" {
		artists = entity.Get("subtitle").String()
	}

	raw, _ := entity.Value().(map[string]any)
	return Track{
		ID:          id,
		Title:       title,
		Artists:     artists,
		ReleaseDate: parseReleaseDate(entity.Get("releaseDate")),
		CoverURL:    pickCoverURL(entity.Get("visualIdentity.image")),
		DurationMS:  entity.Get("duration").Int(),
		PreviewURL:  entity.Get("audioPreview.url").String(),
		Raw:         raw,
	}
}

func joinArtistNames(artists gjson.Result) string {
	if !artists.IsArray() {
		return ""
	}
	names := lo.FilterMap(artists.Array(), func(a gjson.Result, _ int) (string, bool) {
		name := a.Get("name").String()
		return name, name != ""
	})
	return strings.Join(names, ", ")
}

// pickCoverURL prefers the first image variant declaring at least 300px of
// width, falling back to the first variant with a URL at all.
func pickCoverURL(images gjson.Result) string {
	if !images.IsArray() {
		return ""
	}
	var fallback string
	for _, img := range images.Array() {
		url := img.Get("url").String()
		if url == "" {
			continue
		}
		if img.Get("maxWidth").Int() >= 300 {
			return url
		}
		if fallback == "" {
			fallback = url
		}
	}
	return fallback
}

// parseReleaseDate accepts either the structured form {"isoString": ...},
// truncated to YYYY-MM-DD, or a plain string.
func parseReleaseDate(rd gjson.Result) string {
	switch {
	case rd.IsObject():
		iso := rd.Get("isoString").String()
		if len(iso) > 10 {
			return iso[:10]
		}
		return iso
	case rd.Type == gjson.String:
		return rd.String()
	default:
		return ""
	}
}

func trackIDFromURI(uri string) string {
	if !strings.HasPrefix(uri, trackURIPrefix) {
		return ""
	}
	return uri[len(trackURIPrefix):]
}
