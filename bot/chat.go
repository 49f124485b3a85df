package bot

import "context"

// Button is either a callback button, when Data is set, or a link button.
type Button struct {
	Text string
	Data string
	URL  string
}

type Keyboard [][]Button

type Audio struct {
	FileName  string
	Title     string
	Performer string
	Bytes     []byte
}

// Chat is the conversation a request came from. Text and bodies passed to it are
// Telegram HTML.
type Chat interface {
	Text(ctx context.Context, text string, kb Keyboard) (msgID int, err error)
	Photo(ctx context.Context, photoURL, caption string, kb Keyboard) (msgID int, err error)
	Audio(ctx context.Context, audio Audio) error
	Delete(ctx context.Context, msgID int) error
}
