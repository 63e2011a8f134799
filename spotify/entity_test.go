package spotify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestExtractEntity(t *testing.T) {
	t.Parallel()

	t.Run("Present", func(t *testing.T) {
		t.Parallel()
		payload := []byte(`{"props":{"pageProps":{"state":{"data":{"entity":{"name":"Mix"}}}}}}`)
		entity, err := extractEntity(payload)
		require.NoError(t, err)
		assert.Equal(t, "Mix", entity.Get("name").String())
	})

	t.Run("Missing", func(t *testing.T) {
		t.Parallel()
		_, err := extractEntity([]byte(`{"props":{"pageProps":{}}}`))
		assert.ErrorIs(t, err, ErrMalformedPage)
	})

	t.Run("NotAnObject", func(t *testing.T) {
		t.Parallel()
		_, err := extractEntity([]byte(`{"props":{"pageProps":{"state":{"data":{"entity":42}}}}}`))
		assert.ErrorIs(t, err, ErrMalformedPage)
	})
}

func TestParsePlaylist(t *testing.T) {
	t.Parallel()

	entity := gjson.Parse(`{
		"name": "Focus Mix",
		"subtitle": "alice",
		"description": "songs to code to",
		"coverArt": {"sources": [{"url": "small.jpg"}, {"url": "large.jpg"}]},
		"trackList": [{"uri": "spotify:track:a"}, {"uri": "spotify:track:b"}]
	}`)
	p := parsePlaylist(entity)
	assert.Equal(t, "Focus Mix", p.Name)
	assert.Equal(t, "alice", p.Owner)
	assert.Equal(t, "songs to code to", p.Description)
	assert.Equal(t, "large.jpg", p.CoverURL)
	assert.Equal(t, 2, p.TrackCount)
}

func TestParsePlaylistFallbacks(t *testing.T) {
	t.Parallel()

	t.Run("TitleWhenNameMissing", func(t *testing.T) {
		t.Parallel()
		p := parsePlaylist(gjson.Parse(`{"title": "Old Layout Mix"}`))
		assert.Equal(t, "Old Layout Mix", p.Name)
	})

	t.Run("UnknownWhenBothMissing", func(t *testing.T) {
		t.Parallel()
		p := parsePlaylist(gjson.Parse(`{}`))
		assert.Equal(t, "Unknown Playlist", p.Name)
		assert.Zero(t, p.TrackCount)
	})
}

func TestParseListTrack(t *testing.T) {
	t.Parallel()

	entry := gjson.Parse(`{
		"uri": "spotify:track:abc123",
		"title": "Song One",
		"subtitle": "Band A, Band B",
		"album": {"name": "Record"},
		"releaseDate": "2021-03-01",
		"duration": 215000,
		"audioPreview": {"url": "https://p.scdn.co/mp3-preview/x"}
	}`)
	tr := parseListTrack(entry, "abc123")
	assert.Equal(t, "abc123", tr.ID)
	assert.Equal(t, "Song One", tr.Title)
	assert.Equal(t, "Band A, Band B", tr.Artists)
	assert.Equal(t, "Record", tr.Album)
	assert.Equal(t, "2021-03-01", tr.ReleaseDate)
	assert.Equal(t, int64(215000), tr.DurationMS)
	assert.Equal(t, "https://p.scdn.co/mp3-preview/x", tr.PreviewURL)
	require.NotNil(t, tr.Raw)
	assert.Equal(t, "spotify:track:abc123", tr.Raw["uri"])
}

func TestParseListTrackFallbacks(t *testing.T) {
	t.Parallel()

	t.Run("NameAndArtistsArray", func(t *testing.T) {
		t.Parallel()
		entry := gjson.Parse(`{"name": "Alt Field", "artists": [{"name": "X"}, {"name": "Y"}, {}]}`)
		tr := parseListTrack(entry, "id1")
		assert.Equal(t, "Alt Field", tr.Title)
		assert.Equal(t, "X, Y", tr.Artists)
	})

	t.Run("EverythingMissing", func(t *testing.T) {
		t.Parallel()
		tr := parseListTrack(gjson.Parse(`{}`), "id2")
		assert.Equal(t, "Unknown Track", tr.Title)
		assert.Empty(t, tr.Artists)
		assert.Empty(t, tr.Album)
	})
}

func TestParsePageTrack(t *testing.T) {
	t.Parallel()

	entity := gjson.Parse(`{
		"name": "Page Song",
		"artists": [{"name": "Solo Act"}],
		"releaseDate": {"isoString": "2019-08-14T00:00:00Z"},
		"duration": 180000,
		"visualIdentity": {"image": [
			{"url": "tiny.jpg", "maxWidth": 64},
			{"url": "big.jpg", "maxWidth": 640}
		]}
	}`)
	tr := parsePageTrack(entity, "pg1")
	assert.Equal(t, "Page Song", tr.Title)
	assert.Equal(t, "Solo Act", tr.Artists)
	assert.Equal(t, "2019-08-14", tr.ReleaseDate)
	assert.Equal(t, "big.jpg", tr.CoverURL)
}

func TestPickCoverURL(t *testing.T) {
	t.Parallel()

	t.Run("PrefersWideVariant", func(t *testing.T) {
		t.Parallel()
		images := gjson.Parse(`[{"url": "a.jpg", "maxWidth": 64}, {"url": "b.jpg", "maxWidth": 300}]`)
		assert.Equal(t, "b.jpg", pickCoverURL(images))
	})

	t.Run("FallsBackToFirstURL", func(t *testing.T) {
		t.Parallel()
		images := gjson.Parse(`[{"maxWidth": 640}, {"url": "only.jpg", "maxWidth": 64}]`)
		assert.Equal(t, "only.jpg", pickCoverURL(images))
	})

	t.Run("NotAnArray", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, pickCoverURL(gjson.Parse(`"nope"`)))
	})
}

func TestParseReleaseDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2019-08-14", parseReleaseDate(gjson.Parse(`{"isoString": "2019-08-14T00:00:00Z"}`)))
	assert.Equal(t, "2019", parseReleaseDate(gjson.Parse(`{"isoString": "2019"}`)))
	assert.Equal(t, "1987-07-27", parseReleaseDate(gjson.Parse(`"1987-07-27"`)))
	assert.Empty(t, parseReleaseDate(gjson.Parse(`12345`)))
}

func TestTrackIDFromURI(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", trackIDFromURI("spotify:track:abc"))
	assert.Empty(t, trackIDFromURI("spotify:episode:abc"))
	assert.Empty(t, trackIDFromURI(""))
}
