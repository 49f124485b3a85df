package spotify

import "fmt"

type Kind int

const (
	KindTrack Kind = iota + 1
	KindAlbum
)

func (k Kind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindAlbum:
		return "album"
	default:
		panic(fmt.Sprintf("unknown content kind: %d", int(k)))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "track":
		return KindTrack, true
	case "album":
		return KindAlbum, true
	default:
		return 0, false
	}
}

// searchKey is the top-level key of the search response holding results of kind k.
func (k Kind) searchKey() string {
	switch k {
	case KindTrack:
		return "tracks"
	case KindAlbum:
		return "albums"
	default:
		panic(fmt.Sprintf("unknown content kind: %d", int(k)))
	}
}
