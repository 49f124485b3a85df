package bot

import (
	"strings"

	"github.com/xeptore/tgsd/deeplink"
	"github.com/xeptore/tgsd/spotify"
)

// Intent is what an incoming text message asks for. It is one of the types below.
type Intent interface {
	intent()
}

type (
	Start          struct{ Payload string }
	Help           struct{}
	Menu           struct{}
	Settings       struct{}
	SearchTrack    struct{ Query string }
	SearchAlbum    struct{ Query string }
	CommandUsage   struct{ Command string }
	UnknownCommand struct{ Command string }
	DownloadLink   struct{ URL string }
	LookupTrack    struct{ ID string }
	LookupAlbum    struct{ ID string }
)

func (Start) intent()          {}
func (Help) intent()           {}
func (Menu) intent()           {}
func (Settings) intent()       {}
func (SearchTrack) intent()    {}
func (SearchAlbum) intent()    {}
func (CommandUsage) intent()   {}
func (UnknownCommand) intent() {}
func (DownloadLink) intent()   {}
func (LookupTrack) intent()    {}
func (LookupAlbum) intent()    {}

const (
	CommandStart    = "start"
	CommandHelp     = "help"
	CommandMenu     = "menu"
	CommandSettings = "settings"
	CommandTrack    = "track"
	CommandAlbum    = "album"
)

// ParseMessage resolves text into an Intent. It returns nil for blank text.
func ParseMessage(text string) Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if !strings.HasPrefix(text, "/") {
		if link, ok := spotify.ParseLink(text); ok {
			switch link.Kind {
			case spotify.KindTrack:
				return DownloadLink{URL: spotify.TrackURL(link.ID)}
			case spotify.KindAlbum:
				return LookupAlbum{ID: link.ID}
			}
		}
		return SearchTrack{Query: text}
	}

	command, args, _ := strings.Cut(text[1:], " ")
	command, _, _ = strings.Cut(command, "@")
	args = strings.TrimSpace(args)

	switch strings.ToLower(command) {
	case CommandStart:
		if args == "" {
			return Start{Payload: ""}
		}
		if kind, id, ok := deeplink.Parse(args); ok {
			switch kind {
			case spotify.KindTrack:
				return LookupTrack{ID: id}
			case spotify.KindAlbum:
				return LookupAlbum{ID: id}
			}
		}
		return Start{Payload: args}
	case CommandHelp:
		return Help{}
	case CommandMenu:
		return Menu{}
	case CommandSettings:
		return Settings{}
	case CommandTrack:
		if args == "" {
			return CommandUsage{Command: CommandTrack}
		}
		return SearchTrack{Query: args}
	case CommandAlbum:
		if args == "" {
			return CommandUsage{Command: CommandAlbum}
		}
		return SearchAlbum{Query: args}
	default:
		return UnknownCommand{Command: command}
	}
}
