package bot

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/tgsd/cache"
	"github.com/xeptore/tgsd/download"
	"github.com/xeptore/tgsd/errutil"
	"github.com/xeptore/tgsd/log"
	"github.com/xeptore/tgsd/render"
	"github.com/xeptore/tgsd/spotify"
)

// SearchLimit is the number of results shown for a free text query.
const SearchLimit = 1

// maxCaptionLen is Telegram's limit on media captions. Longer content is sent as text.
const maxCaptionLen = 1024

const noticeDeleteTimeout = 10 * time.Second

type Spotify interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]spotify.Track, error)
	SearchAlbums(ctx context.Context, query string, limit int) ([]spotify.Album, error)
	TrackByID(ctx context.Context, id string) (spotify.Track, error)
	AlbumByID(ctx context.Context, id string) (spotify.Album, error)
	AlbumTracks(ctx context.Context, albumID string) ([]spotify.Track, error)
}

type Downloader interface {
	Track(ctx context.Context, url string) (*download.TrackFile, error)
}

type SettingsStore interface {
	ShowCover(userID int64) bool
	SetShowCover(userID int64, show bool) error
	Reset(userID int64) error
}

// Reporter receives every error that reached the request boundary.
type Reporter interface {
	Report(ctx context.Context, err error)
}

type ReporterFunc func(ctx context.Context, err error)

func (f ReporterFunc) Report(ctx context.Context, err error) {
	f(ctx, err)
}

type Handler struct {
	spotify    Spotify
	cache      *cache.Cache
	downloader Downloader
	settings   SettingsStore
	renderer   render.Renderer
	reporter   Reporter
	logger     zerolog.Logger
}

type Options struct {
	Spotify     Spotify
	Cache       *cache.Cache
	Downloader  Downloader
	Settings    SettingsStore
	BotUsername string
	Reporter    Reporter
	Logger      zerolog.Logger
}

func NewHandler(opts Options) *Handler {
	c := opts.Cache
	if nil == c {
		c = cache.New()
	}
	return &Handler{
		spotify:    opts.Spotify,
		cache:      c,
		downloader: opts.Downloader,
		settings:   opts.Settings,
		renderer:   render.Renderer{BotUsername: opts.BotUsername},
		reporter:   opts.Reporter,
		logger:     opts.Logger,
	}
}

// HandleMessage serves a text message sent by userID. Failures are logged, reported
// and answered with an apology, never returned.
func (h *Handler) HandleMessage(ctx context.Context, chat Chat, userID int64, text string) {
	intent := ParseMessage(text)
	if nil == intent {
		return
	}
	logger := h.logger.With().Int64("user_id", userID).Str("intent", fmt.Sprintf("%T", intent)).Logger()
	h.guard(ctx, chat, logger, func(ctx context.Context) error {
		return h.dispatchMessage(ctx, chat, logger, userID, intent)
	})
}

// HandleCallback serves an inline keyboard button press by userID.
func (h *Handler) HandleCallback(ctx context.Context, chat Chat, userID int64, data string) {
	logger := h.logger.With().Int64("user_id", userID).Str("callback_data", data).Logger()
	cb, err := ParseCallback(data)
	if nil != err {
		logger.Warn().Err(err).Msg("Ignoring malformed callback data")
		return
	}
	h.guard(ctx, chat, logger, func(ctx context.Context) error {
		return h.dispatchCallback(ctx, chat, logger, userID, cb)
	})
}

func (h *Handler) dispatchMessage(ctx context.Context, chat Chat, logger zerolog.Logger, userID int64, intent Intent) error {
	switch in := intent.(type) {
	case Start:
		if in.Payload != "" {
			return h.reply(ctx, chat, invalidLinkText, nil)
		}
		return h.reply(ctx, chat, greetingText, nil)
	case Help:
		return h.reply(ctx, chat, helpText, nil)
	case Menu:
		return h.reply(ctx, chat, menuText, menuKeyboard())
	case Settings:
		return h.reply(ctx, chat, settingsText, settingsKeyboard(h.settings.ShowCover(userID)))
	case CommandUsage:
		switch in.Command {
		case CommandTrack:
			return h.reply(ctx, chat, render.Usage("/"+CommandTrack, "<track name>", "<other details (optional)>"), nil)
		case CommandAlbum:
			return h.reply(ctx, chat, render.Usage("/"+CommandAlbum, "<album name>", "<artists (optional)>"), nil)
		default:
			panic(fmt.Sprintf("usage requested for unexpected command %q", in.Command))
		}
	case UnknownCommand:
		return h.reply(ctx, chat, unknownCommandText, nil)
	case SearchTrack:
		return h.searchTrack(ctx, chat, logger, userID, in.Query)
	case SearchAlbum:
		return h.searchAlbum(ctx, chat, logger, userID, in.Query)
	case LookupTrack:
		return h.lookupTrack(ctx, chat, logger, userID, in.ID)
	case LookupAlbum:
		return h.showAlbum(ctx, chat, logger, userID, in.ID)
	case DownloadLink:
		return h.download(ctx, chat, logger, in.URL)
	default:
		panic(fmt.Sprintf("unexpected intent of type %T", intent))
	}
}

func (h *Handler) dispatchCallback(ctx context.Context, chat Chat, logger zerolog.Logger, userID int64, cb Callback) error {
	switch c := cb.(type) {
	case ShowAlbum:
		return h.showAlbum(ctx, chat, logger, userID, c.AlbumID)
	case DownloadTrack:
		return h.download(ctx, chat, logger, spotify.TrackURL(c.TrackID))
	case SetShowCover:
		if err := h.settings.SetShowCover(userID, c.Show); nil != err {
			return err
		}
		return h.reply(ctx, chat, settingsUpdatedText, settingsKeyboard(c.Show))
	case ResetSettings:
		if err := h.settings.Reset(userID); nil != err {
			return err
		}
		return h.reply(ctx, chat, settingsUpdatedText, settingsKeyboard(h.settings.ShowCover(userID)))
	case OpenSettings:
		return h.reply(ctx, chat, settingsText, settingsKeyboard(h.settings.ShowCover(userID)))
	default:
		panic(fmt.Sprintf("unexpected callback of type %T", cb))
	}
}

func (h *Handler) reply(ctx context.Context, chat Chat, text string, kb Keyboard) error {
	if _, err := chat.Text(ctx, text, kb); nil != err {
		return err
	}
	return nil
}

func (h *Handler) searchTrack(ctx context.Context, chat Chat, logger zerolog.Logger, userID int64, query string) error {
	tracks, err := h.spotify.SearchTracks(ctx, query, SearchLimit)
	if nil != err {
		return err
	}
	if len(tracks) == 0 {
		logger.Debug().Str("query", query).Msg("No track matched query")
		return h.reply(ctx, chat, trackNotFoundText, nil)
	}
	for _, t := range tracks {
		if err := h.sendTrack(ctx, chat, userID, t); nil != err {
			return err
		}
	}
	return nil
}

func (h *Handler) searchAlbum(ctx context.Context, chat Chat, logger zerolog.Logger, userID int64, query string) error {
	albums, err := h.spotify.SearchAlbums(ctx, query, SearchLimit)
	if nil != err {
		return err
	}
	if len(albums) == 0 {
		logger.Debug().Str("query", query).Msg("No album matched query")
		return h.reply(ctx, chat, albumNotFoundText, nil)
	}
	for _, a := range albums {
		if err := h.showAlbum(ctx, chat, logger, userID, a.ID); nil != err {
			return err
		}
	}
	return nil
}

func (h *Handler) lookupTrack(ctx context.Context, chat Chat, logger zerolog.Logger, userID int64, id string) error {
	track, err := h.cache.Tracks.Fetch(ctx, id, func(ctx context.Context) (spotify.Track, error) {
		return h.spotify.TrackByID(ctx, id)
	})
	if nil != err {
		if spotify.IsNotFound(err) {
			logger.Debug().Str("track_id", id).Msg("Track not found")
			return h.reply(ctx, chat, trackNotFoundText, nil)
		}
		return err
	}
	return h.sendTrack(ctx, chat, userID, track)
}

func (h *Handler) sendTrack(ctx context.Context, chat Chat, userID int64, t spotify.Track) error {
	cover, hasCover := t.CoverURL()
	return h.sendContent(ctx, chat, userID, h.renderer.Track(t), cover, hasCover, h.trackKeyboard(t))
}

// showAlbum fetches the album and its track listing concurrently and sends the
// rendered result.
func (h *Handler) showAlbum(ctx context.Context, chat Chat, logger zerolog.Logger, userID int64, id string) error {
	var (
		album  spotify.Album
		tracks []spotify.Track
	)
	wg, wgCtx := errgroup.WithContext(ctx)
	wg.Go(func() (err error) {
		album, err = h.cache.Albums.Fetch(wgCtx, id, func(ctx context.Context) (spotify.Album, error) {
			return h.spotify.AlbumByID(ctx, id)
		})
		return err
	})
	wg.Go(func() (err error) {
		tracks, err = h.cache.AlbumTracks.Fetch(wgCtx, id, func(ctx context.Context) ([]spotify.Track, error) {
			return h.spotify.AlbumTracks(ctx, id)
		})
		return err
	})
	if err := wg.Wait(); nil != err {
		if spotify.IsNotFound(err) {
			logger.Debug().Str("album_id", id).Msg("Album not found")
			return h.reply(ctx, chat, albumNotFoundText, nil)
		}
		return err
	}

	cover, hasCover := album.CoverURL()
	return h.sendContent(ctx, chat, userID, h.renderer.Album(album, tracks), cover, hasCover, h.albumKeyboard(album))
}

func (h *Handler) sendContent(ctx context.Context, chat Chat, userID int64, caption, cover string, hasCover bool, kb Keyboard) error {
	if hasCover && h.settings.ShowCover(userID) && utf8.RuneCountInString(caption) <= maxCaptionLen {
		if _, err := chat.Photo(ctx, cover, caption, kb); nil != err {
			return err
		}
		return nil
	}
	return h.reply(ctx, chat, caption, kb)
}

func (h *Handler) download(ctx context.Context, chat Chat, logger zerolog.Logger, url string) error {
	noticeID, err := chat.Text(ctx, downloadingText, nil)
	if nil != err {
		return err
	}

	logger = logger.With().Str("url", url).Logger()
	defer h.deleteNotice(ctx, chat, logger, noticeID)

	logger.Info().Msg("Starting track download")
	file, err := h.downloader.Track(ctx, url)
	if nil != err {
		if timeoutErr, ok := errutil.As[*download.TimeoutError](err); ok {
			logger.Warn().Dur("timeout", timeoutErr.Timeout).Msg("Track download timed out")
			return h.reply(ctx, chat, downloadTimeoutText, nil)
		}
		return err
	}

	audio := Audio{
		FileName:  file.FileName,
		Title:     file.Title,
		Performer: file.Performer,
		Bytes:     file.Bytes,
	}
	if err := chat.Audio(ctx, audio); nil != err {
		return err
	}
	logger.Info().Str("file", file.FileName).Msg("Track sent")
	return nil
}

// deleteNotice removes the download notice whatever the outcome was. It runs detached
// from ctx so a canceled request still cleans up after itself.
func (h *Handler) deleteNotice(ctx context.Context, chat Chat, logger zerolog.Logger, noticeID int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), noticeDeleteTimeout)
	defer cancel()
	if err := chat.Delete(ctx, noticeID); nil != err {
		logger.Warn().Err(err).Int("message_id", noticeID).Msg("Failed to delete download notice")
	}
}

// guard is the request boundary. It turns panics into errors and answers every
// unexpected failure with a single apology.
func (h *Handler) guard(ctx context.Context, chat Chat, logger zerolog.Logger, fn func(ctx context.Context) error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); nil != r {
				logger.Error().Func(log.Panic(r)).Msg("Recovered from panic while handling request")
				err = flaw.From(&errutil.PanicError{Value: r})
			}
		}()
		return fn(ctx)
	}()
	if nil == err {
		return
	}

	switch {
	case errutil.IsContext(ctx):
		logger.Debug().Err(err).Msg("Request context ended before handling finished")
		return
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error().Err(err).Msg("Request timed out")
	default:
		logger.Error().Func(log.Flaw(errutil.AsFlaw(err))).Msg("Failed to handle request")
	}

	if _, sendErr := chat.Text(ctx, apologyText, nil); nil != sendErr {
		logger.Error().Err(sendErr).Msg("Failed to send apology message")
	}
	if nil != h.reporter {
		h.reporter.Report(ctx, err)
	}
}
