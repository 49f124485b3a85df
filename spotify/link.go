package spotify

import (
	"net/url"
	"strings"
)

type Link struct {
	Kind Kind
	ID   string
}

func TrackURL(id string) string {
	return "https://open.spotify.com/track/" + url.PathEscape(id)
}

func AlbumURL(id string) string {
	return "https://open.spotify.com/album/" + url.PathEscape(id)
}

// ParseLink recognizes open.spotify.com track and album links, optionally locale
// prefixed, as well as spotify:track: and spotify:album: URIs.
func ParseLink(text string) (Link, bool) {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, "spotify:"); ok {
		parts := strings.Split(rest, ":")
		if len(parts) != 2 {
			return Link{}, false //nolint:exhaustruct
		}
		return link(parts[0], parts[1])
	}

	u, err := url.Parse(text)
	if nil != err {
		return Link{}, false //nolint:exhaustruct
	}

	switch u.Scheme {
	case "https", "http":
	default:
		return Link{}, false //nolint:exhaustruct
	}

	switch u.Host {
	case "open.spotify.com":
	default:
		return Link{}, false //nolint:exhaustruct
	}

	switch pathParts := strings.Split(strings.Trim(u.Path, "/"), "/"); len(pathParts) {
	case 2:
		return link(pathParts[0], pathParts[1])
	case 3:
		if !strings.HasPrefix(pathParts[0], "intl-") {
			return Link{}, false //nolint:exhaustruct
		}
		return link(pathParts[1], pathParts[2])
	default:
		return Link{}, false //nolint:exhaustruct
	}
}

func link(kind, id string) (Link, bool) {
	if !isID(id) {
		return Link{}, false //nolint:exhaustruct
	}
	switch kind {
	case "track":
		return Link{Kind: KindTrack, ID: id}, true
	case "album":
		return Link{Kind: KindAlbum, ID: id}, true
	default:
		return Link{}, false //nolint:exhaustruct
	}
}

func isID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
