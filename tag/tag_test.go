package tag_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odklm/spotfetch/spotify"
	"github.com/odklm/spotfetch/tag"
)

func TestEmbed(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(filePath, make([]byte, 128), 0o644))

	track := spotify.Track{
		ID:          "4uLU6hMCjMI75M1A2tKUQC",
		Title:       "Never Gonna Give You Up",
		Artists:     "Rick Astley",
		Album:       "Whenever You Need Somebody",
		ReleaseDate: "1987-07-27",
	}
	require.NoError(t, tag.Embed(filePath, track, []byte{0xff, 0xd8, 0xff}))

	read, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer read.Close()

	assert.Equal(t, track.Title, read.Title())
	assert.Equal(t, track.Artists, read.Artist())
	assert.Equal(t, track.Album, read.Album())
	frames := read.GetFrames(read.CommonID("Attached picture"))
	require.Len(t, frames, 1)
	pic, ok := frames[0].(id3v2.PictureFrame)
	require.True(t, ok)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, pic.Picture)
}

func TestEmbedWithoutCover(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(filePath, make([]byte, 128), 0o644))

	track := spotify.Track{ID: "3n3Ppam7vgaVa1iaRUc9Lp", Title: "Mr. Brightside", Artists: "The Killers"}
	require.NoError(t, tag.Embed(filePath, track, nil))

	read, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer read.Close()

	assert.Equal(t, track.Title, read.Title())
	assert.Empty(t, read.GetFrames(read.CommonID("Attached picture")))
}
