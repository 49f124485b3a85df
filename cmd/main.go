package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/tg"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/tgsd/bot"
	"github.com/xeptore/tgsd/cache"
	"github.com/xeptore/tgsd/config"
	"github.com/xeptore/tgsd/constant"
	"github.com/xeptore/tgsd/ctxutil"
	"github.com/xeptore/tgsd/download"
	"github.com/xeptore/tgsd/errutil"
	"github.com/xeptore/tgsd/httputil"
	"github.com/xeptore/tgsd/log"
	"github.com/xeptore/tgsd/ratelimit"
	"github.com/xeptore/tgsd/settings"
	"github.com/xeptore/tgsd/spotify"
	"github.com/xeptore/tgsd/tgutil"
	"github.com/xeptore/tgsd/waitqueue"
)

const (
	flagConfigFilePath = "config"
)

func main() {
	logger := log.NewPretty(os.Stdout).Level(zerolog.TraceLevel)
	if err := godotenv.Load(); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Msg(".env file was not found")
		} else {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	//nolint:exhaustruct
	app := &cli.App{
		Name:     constant.BotName,
		Version:  constant.Version,
		Compiled: constant.CompileTime,
		Suggest:  true,
		Usage:    "Telegram Spotify search and download bot",
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:    "run",
				Aliases: []string{"r"},
				Usage:   "Run the bot",
				Action:  run,
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:     flagConfigFilePath,
						Aliases:  []string{"c"},
						Usage:    "Config file path",
						Required: false,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			return
		}
		if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
			logger.Fatal().Func(log.Flaw(flawErr)).Msg("Application exited with flaw")
			return
		}
		logger.Fatal().Err(err).Msg("Application exited with error")
	}
}

func loadConfig(cliCtx *cli.Context, logger zerolog.Logger) (*config.Config, error) {
	cfgEnv := os.Getenv("CONFIG")
	cfgFilePath := cliCtx.String(flagConfigFilePath)
	switch {
	case cfgFilePath != "" && cfgEnv != "":
		return nil, errors.New("config file path and config environment variable are both set. specify only one")
	case cfgFilePath == "" && cfgEnv == "":
		return nil, errors.New("config file path and config environment variable are both empty. specify one")
	case cfgFilePath != "":
		logger.Debug().Str("config_file_path", cfgFilePath).Msg("Loading config from file")
		cfg, err := config.FromFile(cfgFilePath)
		if nil != err {
			return nil, fmt.Errorf("failed to load config file: %v", err)
		}
		return cfg, nil
	default:
		logger.Debug().Msg("Loading config from environment variable")
		cfg, err := config.FromString(cfgEnv)
		if nil != err {
			return nil, fmt.Errorf("failed to load config from environment variable: %v", err)
		}
		return cfg, nil
	}
}

func run(cliCtx *cli.Context) (err error) {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.NewPretty(os.Stdout).Level(zerolog.TraceLevel)
	cfg, err := loadConfig(cliCtx, logger)
	if nil != err {
		return err
	}
	logger = log.New(os.Stdout, cfg.LogFormat).Level(zerolog.TraceLevel)

	secrets, err := config.SecretsFromEnv()
	if nil != err {
		return fmt.Errorf("failed to load secrets: %v", err)
	}

	for _, dir := range []string{cfg.DownloadBaseDir, cfg.DataDir} {
		if err := os.MkdirAll(dir, 0o0755); nil != err {
			return fmt.Errorf("failed to create directory %q: %v", dir, err)
		}
	}

	settingsStore, err := settings.Open(cfg.DataDir)
	if nil != err {
		return err
	}

	lookupCache := cache.New()
	defer lookupCache.Stop()

	spotifyClient := spotify.NewClient(
		secrets.SpotifyClientID,
		secrets.SpotifyClientSecret,
		spotify.WithHTTPClient(httputil.NewClient(cfg.HTTPTimeout.Std())),
		spotify.WithLogger(logger.With().Str("module", "spotify").Logger()),
	)

	downloader := download.NewDownloader(
		download.SpotDL{Binary: cfg.Downloader.Binary, Logger: logger.With().Str("module", "spotdl").Logger()},
		cfg.DownloadBaseDir,
		cfg.Downloader.Timeout.Std(),
		ratelimit.New(cfg.Downloader.Concurrency),
		logger.With().Str("module", "downloader").Logger(),
	)

	d := tg.NewUpdateDispatcher()
	client := telegram.NewClient(
		secrets.AppID,
		secrets.AppHash,
		//nolint:exhaustruct
		telegram.Options{
			SessionStorage: &session.FileStorage{Path: filepath.Join(cfg.DataDir, "session.json")},
			UpdateHandler:  d,
			MaxRetries:     -1,
			AckBatchSize:   100,
			AckInterval:    10 * time.Second,
			RetryInterval:  5 * time.Second,
			DialTimeout:    10 * time.Second,
			Device:         tgutil.Device(),
			Middlewares:    tgutil.DefaultMiddlewares(ctx),
		},
	)
	logger.Debug().Msg("Telegram client initialized.")

	clientCtx, cancel := ctxutil.WithDelayedTimeout(ctx, config.ShutdownGracePeriod)
	defer cancel()

	queue := waitqueue.New(clientCtx, waitqueue.DefaultOptions)
	defer queue.Close()
	up := &uploads{client: client, queue: queue}

	// Intentionally ignore client-inherited context, which is inherited from clientCtx
	// for the run function to force it to use the parent context, which is inherited
	// from cli context. This allows in-flight requests to still reply a bit after
	// parent context cancellation.
	return client.Run(clientCtx, func(_ context.Context) error {
		status, err := client.Auth().Status(ctx)
		if nil != err {
			if errors.Is(ctx.Err(), context.Canceled) {
				return context.Canceled
			}
			return fmt.Errorf("failed to get Telegram client auth status: %v", err)
		}
		if !status.Authorized {
			if _, authErr := client.Auth().Bot(ctx, secrets.BotToken); nil != authErr {
				if errors.Is(ctx.Err(), context.Canceled) {
					return context.Canceled
				}
				return fmt.Errorf("failed to authorize Telegram bot: %v", authErr)
			}
			logger.Debug().Msg("Telegram client authorized.")
		} else {
			logger.Debug().Msg("Telegram client has already been authorized.")
		}

		api := tg.NewClient(client)
		sender := message.NewSender(api)

		var rep bot.Reporter
		if cfg.ReportPeerID != "" {
			rep = &reporter{sender: sender, peer: cfg.ReportPeerID, uploads: up, logger: logger.With().Str("module", "reporter").Logger()}
			if _, err := sender.Resolve(cfg.ReportPeerID).StyledText(clientCtx, styling.Italic("Bot has started!")); nil != err {
				switch {
				case errutil.IsContext(clientCtx):
					logger.Error().Msg("Failed to send bot startup message to report peer due to context cancellation")
				default:
					return fmt.Errorf("failed to send bot startup message to report peer: %v", err)
				}
			}
		}

		handler := bot.NewHandler(bot.Options{
			Spotify:     spotifyClient,
			Cache:       lookupCache,
			Downloader:  downloader,
			Settings:    settingsStore,
			BotUsername: cfg.BotUsername,
			Reporter:    rep,
			Logger:      logger.With().Str("module", "bot").Logger(),
		})

		var wg sync.WaitGroup
		defer wg.Wait()

		d.OnNewMessage(buildOnMessage(&wg, clientCtx, cfg, sender, api, up, handler, logger))
		d.OnBotCallbackQuery(buildOnCallback(&wg, clientCtx, cfg, sender, api, up, handler, logger))

		logger.Info().Msg("Bot is running")
		<-ctx.Done()

		logger.Debug().Msg("Stopping bot due to received signal")
		if cfg.ReportPeerID != "" {
			if _, err = sender.Resolve(cfg.ReportPeerID).StyledText(clientCtx, styling.Italic("Bot is shutting down...")); nil != err {
				switch {
				case errutil.IsContext(clientCtx):
					logger.Error().Msg("Failed to send shutdown message to report peer due to context cancellation")
				default:
					return fmt.Errorf("failed to send bot shutdown message to report peer: %v", err)
				}
			}
		}
		return nil
	})
}

// buildOnMessage handles every private message on its own goroutine so slow downloads
// never hold up other chats. msgCtx outlives the update context to let replies finish
// during shutdown.
func buildOnMessage(
	wg *sync.WaitGroup,
	msgCtx context.Context,
	cfg *config.Config,
	sender *message.Sender,
	api *tg.Client,
	up *uploads,
	handler *bot.Handler,
	logger zerolog.Logger,
) func(context.Context, tg.Entities, *tg.UpdateNewMessage) error {
	return func(_ context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
		m, ok := update.Message.(*tg.Message)
		if !ok || m.Out {
			return nil
		}
		u, ok := m.PeerID.(*tg.PeerUser)
		if !ok {
			return nil
		}
		if !cfg.IsAllowed(u.UserID) {
			logger.Debug().Int64("user_id", u.UserID).Msg("Ignoring message from user not in allowlist")
			return nil
		}

		c := &chat{
			api:     api,
			to:      func() *message.Builder { return &sender.Answer(e, update).Builder },
			uploads: up,
			peer:    fmt.Sprintf("user:%d", u.UserID),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.HandleMessage(msgCtx, c, u.UserID, m.Message)
		}()
		return nil
	}
}

func buildOnCallback(
	wg *sync.WaitGroup,
	msgCtx context.Context,
	cfg *config.Config,
	sender *message.Sender,
	api *tg.Client,
	up *uploads,
	handler *bot.Handler,
	logger zerolog.Logger,
) func(context.Context, tg.Entities, *tg.UpdateBotCallbackQuery) error {
	return func(ctx context.Context, e tg.Entities, update *tg.UpdateBotCallbackQuery) error {
		logger := logger.With().Int64("user_id", update.UserID).Int64("query_id", update.QueryID).Logger()

		//nolint:exhaustruct
		if _, err := api.MessagesSetBotCallbackAnswer(ctx, &tg.MessagesSetBotCallbackAnswerRequest{QueryID: update.QueryID}); nil != err {
			if errutil.IsContext(ctx) {
				return nil
			}
			logger.Warn().Err(err).Msg("Failed to answer callback query")
		}

		if !cfg.IsAllowed(update.UserID) {
			logger.Debug().Msg("Ignoring callback from user not in allowlist")
			return nil
		}
		user, ok := e.Users[update.UserID]
		if !ok {
			logger.Warn().Msg("Callback query user was not found in update entities")
			return nil
		}

		peer := user.AsInputPeer()
		c := &chat{
			api:     api,
			to:      func() *message.Builder { return &sender.To(peer).Builder },
			uploads: up,
			peer:    fmt.Sprintf("user:%d", update.UserID),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.HandleCallback(msgCtx, c, update.UserID, string(update.Data))
		}()
		return nil
	}
}
