package spotify

import (
	"net/url"
	"strings"
)

type Kind string

const (
	KindPlaylist Kind = "playlist"
	KindTrack    Kind = "track"
)

// Classify parses a Spotify share URL into its entity kind and opaque ID.
// Only https://open.spotify.com/playlist/<id> and .../track/<id> are
// recognized; <id> must be alphanumeric.
func Classify(text string) (Kind, string, error) {
	u, err := url.Parse(text)
	if nil != err {
		return "", "", ErrInvalidLink
	}

	switch u.Scheme {
	case "https":
	default:
		return "", "", ErrInvalidLink
	}

	switch u.Host {
	case "open.spotify.com":
	default:
		return "", "", ErrInvalidLink
	}

	pathParts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 3)
	if len(pathParts) != 2 {
		return "", "", ErrInvalidLink
	}

	id := pathParts[1]
	if !isAlphanumeric(id) {
		return "", "", ErrInvalidLink
	}

	switch pathParts[0] {
	case "playlist":
		return KindPlaylist, id, nil
	case "track":
		return KindTrack, id, nil
	default:
		return "", "", ErrInvalidLink
	}
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
