package main

import (
	"context"

	"github.com/gotd/td/telegram/message"
	"github.com/rs/zerolog"

	"github.com/xeptore/tgsd/errutil"
	"github.com/xeptore/tgsd/log"
)

// reporter forwards failures that reached the request boundary to the operator's chat.
type reporter struct {
	sender  *message.Sender
	peer    string
	uploads *uploads
	logger  zerolog.Logger
}

func (r *reporter) Report(ctx context.Context, err error) {
	if err := r.uploads.sendReport(ctx, r.sender.Resolve(r.peer), errutil.AsFlaw(err)); nil != err {
		if errutil.IsContext(ctx) {
			return
		}
		r.logger.Error().Func(log.Flaw(errutil.AsFlaw(err))).Msg("Failed to send flaw report")
	}
}
