// Package deeplink builds and reads the payload of t.me/<bot>?start=<payload> links
// that open a track or an album in the bot.
package deeplink

import (
	"encoding/base64"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/xeptore/tgsd/spotify"
)

const sep = "_"

// Encode returns the start payload for the content identified by kind and id. Characters
// Telegram does not accept in a start payload are dropped from id.
func Encode(kind spotify.Kind, id string) string {
	return kind.String() + sep + strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
			return r
		default:
			return -1
		}
	}, id)
}

func ShareURL(botUsername string, kind spotify.Kind, id string) string {
	return "https://t.me/" + url.PathEscape(botUsername) + "?start=" + Encode(kind, id)
}

// Decode undoes the base64 encoding some clients apply to start payloads. The decoded
// form is only used when it looks like a payload, otherwise payload is returned as is.
func Decode(payload string) string {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "="))
	if nil != err || !utf8.Valid(b) {
		return payload
	}
	if _, _, ok := split(string(b)); !ok {
		return payload
	}
	return string(b)
}

// Parse decodes payload and splits it into the content kind and id.
func Parse(payload string) (spotify.Kind, string, bool) {
	return split(Decode(payload))
}

func split(s string) (spotify.Kind, string, bool) {
	kindStr, id, ok := strings.Cut(s, sep)
	if !ok || id == "" {
		return 0, "", false
	}
	kind, ok := spotify.ParseKind(kindStr)
	if !ok {
		return 0, "", false
	}
	return kind, id, true
}
