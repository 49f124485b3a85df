package bot

import (
	"net/url"

	"github.com/xeptore/tgsd/deeplink"
	"github.com/xeptore/tgsd/spotify"
)

func shareURL(link string) string {
	return "https://t.me/share/url?url=" + url.QueryEscape(link)
}

func (h *Handler) trackKeyboard(t spotify.Track) Keyboard {
	var kb Keyboard
	if t.Album.ID != spotify.Placeholder {
		kb = append(kb, []Button{{Text: "Album", Data: ShowAlbum{AlbumID: t.Album.ID}.Pack()}})
	}
	if t.ID == spotify.Placeholder {
		return kb
	}

	links := []Button{{Text: "Share", URL: shareURL(deeplink.ShareURL(h.renderer.BotUsername, spotify.KindTrack, t.ID))}}
	if t.URL != spotify.Placeholder {
		links = append([]Button{{Text: "Open in Spotify", URL: t.URL}}, links...)
	}
	kb = append(kb, links)
	kb = append(kb, []Button{{Text: "Download", Data: DownloadTrack{TrackID: t.ID}.Pack()}})
	return kb
}

func (h *Handler) albumKeyboard(a spotify.Album) Keyboard {
	if a.ID == spotify.Placeholder {
		return nil
	}
	links := []Button{{Text: "Share", URL: shareURL(deeplink.ShareURL(h.renderer.BotUsername, spotify.KindAlbum, a.ID))}}
	if a.URL != spotify.Placeholder {
		links = append([]Button{{Text: "Open in Spotify", URL: a.URL}}, links...)
	}
	return Keyboard{links}
}

func settingsKeyboard(showCover bool) Keyboard {
	label := "Show cover: off"
	if showCover {
		label = "Show cover: on"
	}
	return Keyboard{
		{{Text: label, Data: SetShowCover{Show: !showCover}.Pack()}},
		{{Text: "🔁 Reset to defaults 🔁", Data: ResetSettings{}.Pack()}},
	}
}

func menuKeyboard() Keyboard {
	return Keyboard{{{Text: "⚙️ Settings", Data: OpenSettings{}.Pack()}}}
}
