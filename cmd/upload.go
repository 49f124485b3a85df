package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"github.com/iyear/tdl/core/dcpool"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/tgsd/bot"
	"github.com/xeptore/tgsd/errutil"
	"github.com/xeptore/tgsd/must"
	"github.com/xeptore/tgsd/tgutil"
	"github.com/xeptore/tgsd/waitqueue"
)

const audioMIME = "audio/mpeg"

// uploads pushes files through a dedicated DC pool and spaces sends out with a wait
// queue so bursts of downloads stay below flood limits.
type uploads struct {
	client *telegram.Client
	queue  *waitqueue.WaitQueue
}

func (u *uploads) newUploader(ctx context.Context) (*uploader.Uploader, func() error) {
	pool := dcpool.NewPool(u.client, 8, tgutil.DefaultMiddlewares(ctx)...)
	return uploader.NewUploader(pool.Default(ctx)).WithPartSize(uploader.MaximumPartSize).WithThreads(4), pool.Close
}

func (u *uploads) sendAudio(ctx context.Context, to *message.Builder, audio bot.Audio) (err error) {
	flawP := flaw.P{"file_name": audio.FileName, "size": len(audio.Bytes)}

	up, cancel := u.newUploader(ctx)
	defer func() {
		if cancelErr := cancel(); nil != cancelErr {
			flawP["err_debug_tree"] = errutil.Tree(cancelErr).FlawP()
			cancelErr = flaw.From(fmt.Errorf("failed to close uploader pool: %v", cancelErr)).Append(flawP)
			switch {
			case nil == err:
				err = cancelErr
			case errutil.IsContext(ctx):
				err = flaw.From(errors.New("context ended")).Join(cancelErr)
			case errutil.IsFlaw(err):
				err = must.BeFlaw(err).Join(cancelErr)
			default:
				panic(errutil.UnknownError(err))
			}
		}
	}()

	upload, err := up.FromBytes(ctx, audio.FileName, audio.Bytes)
	if nil != err {
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return flaw.From(fmt.Errorf("failed to upload audio file: %v", err)).Append(flawP)
	}

	document := message.UploadedDocument(upload)
	document.
		MIME(audioMIME).
		Attributes(
			&tg.DocumentAttributeFilename{
				FileName: filepath.Base(audio.FileName),
			},
			//nolint:exhaustruct
			&tg.DocumentAttributeAudio{
				Title:     audio.Title,
				Performer: audio.Performer,
			},
		).
		Audio()

	return u.queue.Send(ctx, func() error {
		if _, err := to.Media(ctx, document); nil != err {
			if errutil.IsContext(ctx) {
				return ctx.Err()
			}
			flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
			return flaw.From(fmt.Errorf("failed to send audio message: %v", err)).Append(flawP)
		}
		return nil
	})
}

// sendReport uploads the YAML rendition of a failure to the report peer.
func (u *uploads) sendReport(ctx context.Context, to *message.RequestBuilder, f *flaw.Flaw) (err error) {
	flawBytes, err := errutil.FlawToYAML(f)
	if nil != err {
		return err
	}

	up, cancel := u.newUploader(ctx)
	defer func() {
		if cancelErr := cancel(); nil != cancelErr {
			flawP := flaw.P{"err_debug_tree": errutil.Tree(cancelErr).FlawP()}
			cancelErr = flaw.From(fmt.Errorf("failed to close uploader pool: %v", cancelErr)).Append(flawP)
			if nil == err {
				err = cancelErr
			} else {
				err = errors.Join(err, cancelErr)
			}
		}
	}()

	fileName := fmt.Sprintf("flaw-%s.yaml", time.Now().Format("2006-01-02-15-04-05"))
	upload, err := up.FromBytes(ctx, fileName, flawBytes)
	if nil != err {
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to upload flaw report: %v", err)).Append(flawP)
	}
	document := message.UploadedDocument(upload, styling.Italic(f.Inner))
	document.
		MIME("application/yaml").
		Attributes(&tg.DocumentAttributeFilename{FileName: fileName}).
		ForceFile(true)
	if _, err := to.Media(ctx, document); nil != err {
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to send flaw report: %v", err)).Append(flawP)
	}
	return nil
}
