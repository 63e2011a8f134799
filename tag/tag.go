// Package tag writes ID3v2 metadata into downloaded MP3 files.
package tag

import (
	"fmt"

	"github.com/bogem/id3v2/v2"

	"github.com/xeptore/flaw/v8"

	"github.com/odklm/spotfetch/spotify"
)

// Embed writes track metadata into the MP3 file at filePath. cover may
// be nil, in which case no picture frame is attached.
func Embed(filePath string, track spotify.Track, cover []byte) error {
	t, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if nil != err {
		t, err = id3v2.Open(filePath, id3v2.Options{Parse: false})
		if nil != err {
			return flaw.From(fmt.Errorf("tag: failed to open mp3 file: %v", err)).Append(flaw.P{"file_path": filePath})
		}
	}
	defer t.Close()

	t.SetDefaultEncoding(id3v2.EncodingUTF8)
	t.SetTitle(track.Title)
	t.SetArtist(track.Artists)
	if track.Album != "" {
		t.SetAlbum(track.Album)
	}
	if track.ReleaseDate != "" {
		t.AddTextFrame(t.CommonID("TDRC"), id3v2.EncodingUTF8, track.ReleaseDate)
	}
	t.AddTextFrame(t.CommonID("WOAS"), id3v2.EncodingUTF8, track.Link())

	if len(cover) > 0 {
		t.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     cover,
		})
	}

	if err := t.Save(); nil != err {
		return flaw.From(fmt.Errorf("tag: failed to save mp3 metadata: %v", err)).Append(flaw.P{"file_path": filePath})
	}

	return nil
}
