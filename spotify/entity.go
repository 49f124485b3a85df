package spotify

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/samber/lo"

	"github.com/xeptore/tgsd/ptr"
)

// Placeholder is substituted for every field the API omitted.
const Placeholder = "Unknown"

type Image struct {
	Height int
	Width  int
	URL    string
}

type Artist struct {
	ID   string
	Name string
	URL  string
}

type Album struct {
	ID          string
	Name        string
	AlbumType   string
	ReleaseDate string
	TotalTracks int
	Artists     []Artist
	Images      []Image
	IsPlayable  bool
	URL         string
}

// CoverURL returns the first, largest, image of the album.
func (a Album) CoverURL() (string, bool) {
	for _, img := range a.Images {
		if img.URL != "" {
			return img.URL, true
		}
	}
	return "", false
}

type Track struct {
	ID         string
	Name       string
	DurationMS int
	URL        string
	Album      Album
	Artists    []Artist
}

func (t Track) ReleaseDate() string {
	return t.Album.ReleaseDate
}

func (t Track) CoverURL() (string, bool) {
	return t.Album.CoverURL()
}

func (t Track) DurationDisplay() string {
	return FormatDuration(t.DurationMS)
}

// FormatDuration renders a millisecond count the way it is shown in captions.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return Placeholder
	}
	if ms < 1000 {
		return fmt.Sprintf("%d ms.", ms)
	}

	d := time.Duration(ms) * time.Millisecond
	total := int(d / time.Second)
	switch hours, minutes, seconds := total/3600, total%3600/60, total%60; {
	case total < 60:
		return fmt.Sprintf("%d sec.", total)
	case hours == 0:
		return fmt.Sprintf("%d:%02d", minutes, seconds)
	default:
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
}

// PlaceholderAlbum stands in for the album of tracks listed under an album, which
// the API returns without one.
func PlaceholderAlbum() Album {
	return Album{
		ID:          Placeholder,
		Name:        Placeholder,
		AlbumType:   Placeholder,
		ReleaseDate: Placeholder,
		TotalTracks: 0,
		Artists:     nil,
		Images:      nil,
		IsPlayable:  false,
		URL:         Placeholder,
	}
}

type rawImage struct {
	Height *int    `json:"height"`
	Width  *int    `json:"width"`
	URL    *string `json:"url"`
}

type rawExternalURLs struct {
	Spotify *string `json:"spotify"`
}

type rawArtist struct {
	ID           *string          `json:"id"`
	Name         *string          `json:"name"`
	ExternalURLs *rawExternalURLs `json:"external_urls"`
}

type rawAlbum struct {
	ID           *string          `json:"id"`
	Name         *string          `json:"name"`
	AlbumType    *string          `json:"album_type"`
	ReleaseDate  *string          `json:"release_date"`
	TotalTracks  *int             `json:"total_tracks"`
	Artists      []rawArtist      `json:"artists"`
	Images       []rawImage       `json:"images"`
	IsPlayable   *bool            `json:"is_playable"`
	ExternalURLs *rawExternalURLs `json:"external_urls"`
}

type rawTrack struct {
	ID           *string          `json:"id"`
	Name         *string          `json:"name"`
	DurationMS   *int             `json:"duration_ms"`
	ExternalURLs *rawExternalURLs `json:"external_urls"`
	Album        *rawAlbum        `json:"album"`
	Artists      []rawArtist      `json:"artists"`
}

func str(p *string) string {
	if nil == p || *p == "" {
		return Placeholder
	}
	return *p
}

func externalURL(u *rawExternalURLs) string {
	if nil == u {
		return Placeholder
	}
	return str(u.Spotify)
}

func (r rawImage) entity() Image {
	return Image{
		Height: ptr.ValueOr(r.Height, 0),
		Width:  ptr.ValueOr(r.Width, 0),
		URL:    ptr.ValueOr(r.URL, ""),
	}
}

func (r rawArtist) entity() Artist {
	return Artist{
		ID:   str(r.ID),
		Name: str(r.Name),
		URL:  externalURL(r.ExternalURLs),
	}
}

func (r rawAlbum) entity() Album {
	return Album{
		ID:          str(r.ID),
		Name:        str(r.Name),
		AlbumType:   str(r.AlbumType),
		ReleaseDate: str(r.ReleaseDate),
		TotalTracks: ptr.ValueOr(r.TotalTracks, 0),
		Artists:     lo.Map(r.Artists, func(a rawArtist, _ int) Artist { return a.entity() }),
		Images: lo.FilterMap(r.Images, func(img rawImage, _ int) (Image, bool) {
			out := img.entity()
			return out, out.URL != ""
		}),
		IsPlayable: ptr.ValueOr(r.IsPlayable, false),
		URL:        externalURL(r.ExternalURLs),
	}
}

func (r rawTrack) entity() Track {
	album := PlaceholderAlbum()
	if nil != r.Album {
		album = r.Album.entity()
	}
	return Track{
		ID:         str(r.ID),
		Name:       str(r.Name),
		DurationMS: ptr.ValueOr(r.DurationMS, 0),
		URL:        externalURL(r.ExternalURLs),
		Album:      album,
		Artists:    lo.Map(r.Artists, func(a rawArtist, _ int) Artist { return a.entity() }),
	}
}

// ParseTrack builds a Track out of a single API track object.
func ParseTrack(b []byte) (Track, error) {
	var r rawTrack
	if err := json.Unmarshal(b, &r); nil != err {
		return Track{}, err //nolint:exhaustruct
	}
	return r.entity(), nil
}

// ParseAlbum builds an Album out of a single API album object.
func ParseAlbum(b []byte) (Album, error) {
	var r rawAlbum
	if err := json.Unmarshal(b, &r); nil != err {
		return Album{}, err //nolint:exhaustruct
	}
	return r.entity(), nil
}

func parseTracks(b []byte) ([]Track, error) {
	var raw []*rawTrack
	if err := json.Unmarshal(b, &raw); nil != err {
		return nil, err
	}
	return lo.FilterMap(raw, func(r *rawTrack, _ int) (Track, bool) {
		if nil == r {
			return Track{}, false //nolint:exhaustruct
		}
		return r.entity(), true
	}), nil
}

func parseAlbums(b []byte) ([]Album, error) {
	var raw []*rawAlbum
	if err := json.Unmarshal(b, &raw); nil != err {
		return nil, err
	}
	return lo.FilterMap(raw, func(r *rawAlbum, _ int) (Album, bool) {
		if nil == r {
			return Album{}, false //nolint:exhaustruct
		}
		return r.entity(), true
	}), nil
}
