// Package render builds the Telegram HTML captions of tracks and albums.
package render

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/xeptore/tgsd/deeplink"
	"github.com/xeptore/tgsd/spotify"
)

const border = "✨━━━━━━━━━━━━✨"

// Renderer is pure: it never fetches anything and renders whatever partial data it
// is given.
type Renderer struct {
	BotUsername string
}

func (r Renderer) Track(t spotify.Track) string {
	return container(
		t.Name,
		t.Artists,
		t.ReleaseDate(),
		field("💿", "Album", t.Album.Name),
		field("⏳", "Duration", t.DurationDisplay()),
	)
}

// Album renders a with tracks as its listing, which is fetched separately.
func (r Renderer) Album(a spotify.Album, tracks []spotify.Track) string {
	return container(
		a.Name,
		a.Artists,
		a.ReleaseDate,
		field("🎵", "Total tracks", strconv.Itoa(a.TotalTracks)),
		r.trackList(tracks),
	)
}

func container(name string, artists []spotify.Artist, releaseDate string, lines ...string) string {
	var sb strings.Builder
	sb.WriteString("<b>" + esc(name) + "</b>\n")
	sb.WriteString("\n" + border + "\n")
	sb.WriteString("\n" + artistList(artists))
	sb.WriteString("\n" + field("📅", "Release date", releaseDate))
	for _, line := range lines {
		sb.WriteString("\n" + line)
	}
	sb.WriteString("\n\n" + border)
	return sb.String()
}

func field(icon, label, value string) string {
	return icon + " <b>" + label + "</b>: " + esc(value)
}

func artistList(artists []spotify.Artist) string {
	names := lo.Map(artists, func(a spotify.Artist, _ int) string { return esc(a.Name) })
	return "🎤" + list("Artist", "No artists.", names)
}

func (r Renderer) trackList(tracks []spotify.Track) string {
	links := lo.Map(tracks, func(t spotify.Track, _ int) string {
		if t.ID == spotify.Placeholder || r.BotUsername == "" {
			return esc(t.Name)
		}
		return fmt.Sprintf(`<a href="%s">%s</a>`, esc(deeplink.ShareURL(r.BotUsername, spotify.KindTrack, t.ID)), esc(t.Name))
	})
	return "🎶" + list("Track", "No tracks.", links)
}

// list renders items inline when there is one and as a numbered list otherwise.
func list(noun, empty string, items []string) string {
	switch len(items) {
	case 0:
		return empty
	case 1:
		return "<b>" + noun + "</b>: " + items[0]
	default:
		var sb strings.Builder
		sb.WriteString("<b>" + noun + "s</b>:")
		for i, item := range items {
			sb.WriteString(fmt.Sprintf("\n   %d. - %s", i+1, item))
		}
		return sb.String()
	}
}

// Usage explains how command is meant to be called.
func Usage(command string, params ...string) string {
	return "Correct usage of the command:\n" + esc(strings.Join(append([]string{command}, params...), " "))
}

func esc(s string) string {
	if s == "" {
		s = spotify.Placeholder
	}
	return html.EscapeString(s)
}
