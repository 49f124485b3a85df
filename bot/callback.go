package bot

import (
	"fmt"
	"strings"
)

// Callback is the decoded data of an inline keyboard button press. It is one of the
// types below. Packed forms stay within Telegram's 64 byte callback data limit.
type Callback interface {
	Pack() string
}

type (
	ShowAlbum     struct{ AlbumID string }
	DownloadTrack struct{ TrackID string }
	SetShowCover  struct{ Show bool }
	ResetSettings struct{}
	OpenSettings  struct{}
)

func (c ShowAlbum) Pack() string     { return "a:" + c.AlbumID }
func (c DownloadTrack) Pack() string { return "d:" + c.TrackID }
func (ResetSettings) Pack() string   { return "s:reset" }
func (OpenSettings) Pack() string    { return "m:settings" }

func (c SetShowCover) Pack() string {
	if c.Show {
		return "s:cover:1"
	}
	return "s:cover:0"
}

const maxCallbackDataLen = 64

// ParseCallback is the inverse of Callback.Pack.
func ParseCallback(data string) (Callback, error) {
	if len(data) > maxCallbackDataLen {
		return nil, fmt.Errorf("callback data is longer than %d bytes", maxCallbackDataLen)
	}

	switch prefix, rest, _ := strings.Cut(data, ":"); prefix {
	case "a":
		if rest == "" {
			return nil, fmt.Errorf("callback data %q has no album id", data)
		}
		return ShowAlbum{AlbumID: rest}, nil
	case "d":
		if rest == "" {
			return nil, fmt.Errorf("callback data %q has no track id", data)
		}
		return DownloadTrack{TrackID: rest}, nil
	case "s":
		switch rest {
		case "cover:1":
			return SetShowCover{Show: true}, nil
		case "cover:0":
			return SetShowCover{Show: false}, nil
		case "reset":
			return ResetSettings{}, nil
		}
	case "m":
		if rest == "settings" {
			return OpenSettings{}, nil
		}
	}
	return nil, fmt.Errorf("unknown callback data %q", data)
}
