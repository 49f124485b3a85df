package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/html"
	"github.com/gotd/td/telegram/message/markup"
	"github.com/gotd/td/tg"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/tgsd/bot"
	"github.com/xeptore/tgsd/errutil"
)

// chat sends everything to a single peer over the bot's MTProto connection.
type chat struct {
	api     *tg.Client
	to      func() *message.Builder
	uploads *uploads
	peer    string
}

func (c *chat) Text(ctx context.Context, text string, kb bot.Keyboard) (int, error) {
	b := c.to().NoWebpage()
	if len(kb) > 0 {
		b = b.Markup(keyboard(kb))
	}
	upd, err := b.StyledText(ctx, html.String(nil, text))
	if nil != err {
		if errutil.IsContext(ctx) {
			return 0, ctx.Err()
		}
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "peer": c.peer}
		return 0, flaw.From(fmt.Errorf("failed to send text message: %v", err)).Append(flawP)
	}
	return sentMessageID(upd)
}

func (c *chat) Photo(ctx context.Context, photoURL, caption string, kb bot.Keyboard) (int, error) {
	b := c.to()
	if len(kb) > 0 {
		b = b.Markup(keyboard(kb))
	}
	upd, err := b.Media(ctx, message.PhotoExternal(photoURL, html.String(nil, caption)))
	if nil != err {
		if errutil.IsContext(ctx) {
			return 0, ctx.Err()
		}
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "peer": c.peer, "photo_url": photoURL}
		return 0, flaw.From(fmt.Errorf("failed to send photo message: %v", err)).Append(flawP)
	}
	return sentMessageID(upd)
}

func (c *chat) Audio(ctx context.Context, audio bot.Audio) error {
	return c.uploads.sendAudio(ctx, c.to(), audio)
}

func (c *chat) Delete(ctx context.Context, msgID int) error {
	//nolint:exhaustruct
	if _, err := c.api.MessagesDeleteMessages(ctx, &tg.MessagesDeleteMessagesRequest{Revoke: true, ID: []int{msgID}}); nil != err {
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "peer": c.peer, "message_id": msgID}
		return flaw.From(fmt.Errorf("failed to delete message: %v", err)).Append(flawP)
	}
	return nil
}

func keyboard(kb bot.Keyboard) tg.ReplyMarkupClass {
	rows := make([]tg.KeyboardButtonRow, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tg.KeyboardButtonClass, 0, len(row))
		for _, b := range row {
			if b.Data != "" {
				buttons = append(buttons, markup.Callback(b.Text, []byte(b.Data)))
			} else {
				buttons = append(buttons, markup.URL(b.Text, b.URL))
			}
		}
		rows = append(rows, markup.Row(buttons...))
	}
	return markup.InlineKeyboard(rows...)
}

var errNoSentMessage = errors.New("sent message id was not found in updates")

func sentMessageID(upd tg.UpdatesClass) (int, error) {
	switch u := upd.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID, nil
	case *tg.Updates:
		for _, update := range u.Updates {
			switch v := update.(type) {
			case *tg.UpdateMessageID:
				return v.ID, nil
			case *tg.UpdateNewMessage:
				if m, ok := v.Message.(*tg.Message); ok {
					return m.ID, nil
				}
			}
		}
	}
	flawP := flaw.P{"updates_type": fmt.Sprintf("%T", upd)}
	return 0, flaw.From(errNoSentMessage).Append(flawP)
}
