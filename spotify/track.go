package spotify

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"
)

// Playlist is the normalized playlist metadata record. It is built once per
// fetch and never mutated.
type Playlist struct {
	Name        string
	Owner       string
	Description string
	CoverURL    string
	TrackCount  int
}

func (p *Playlist) FlawP() flaw.P {
	return flaw.P{
		"name":        p.Name,
		"owner":       p.Owner,
		"description": p.Description,
		"cover_url":   p.CoverURL,
		"track_count": p.TrackCount,
	}
}

// Track is the normalized track record. Optional fields hold their zero
// value when the source omitted them. Raw preserves the source entity
// untouched for debugging; nothing downstream interprets it.
type Track struct {
	ID          string
	Title       string
	Artists     string
	Album       string
	ReleaseDate string
	CoverURL    string
	DurationMS  int64
	PreviewURL  string
	Raw         map[string]any
}

func (t *Track) Link() string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", t.ID)
}

func (t *Track) FlawP() flaw.P {
	return flaw.P{
		"id":           t.ID,
		"title":        t.Title,
		"artists":      t.Artists,
		"album":        t.Album,
		"release_date": t.ReleaseDate,
		"cover_url":    t.CoverURL,
		"duration_ms":  t.DurationMS,
		"preview_url":  t.PreviewURL,
	}
}

func (t *Track) Log(e *zerolog.Event) {
	e.
		Str("id", t.ID).
		Str("title", t.Title).
		Str("artists", t.Artists).
		Int64("duration_ms", t.DurationMS)
}
