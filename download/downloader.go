package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/tgsd/errutil"
	"github.com/xeptore/tgsd/log"
	"github.com/xeptore/tgsd/ratelimit"
)

// Downloader gives every request its own scratch directory under a shared base
// directory and bounds how many downloads run at once.
type Downloader struct {
	runner  Runner
	baseDir string
	timeout time.Duration
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
}

func NewDownloader(runner Runner, baseDir string, timeout time.Duration, limiter *ratelimit.Limiter, logger zerolog.Logger) *Downloader {
	return &Downloader{
		runner:  runner,
		baseDir: baseDir,
		timeout: timeout,
		limiter: limiter,
		logger:  logger,
	}
}

func (d *Downloader) Track(ctx context.Context, url string) (res *TrackFile, err error) {
	release, err := d.limiter.Acquire(ctx)
	if nil != err {
		return nil, err
	}
	defer release()

	dir := filepath.Join(d.baseDir, uuid.New().String())
	logger := d.logger.With().Str("url", url).Str("dir", dir).Logger()
	defer func() {
		if removeErr := os.RemoveAll(dir); nil != removeErr {
			flawP := flaw.P{"err_debug_tree": errutil.Tree(removeErr).FlawP(), "dir": dir}
			removeErr = flaw.From(fmt.Errorf("failed to remove scratch directory: %v", removeErr)).Append(flawP)
			if nil == err {
				res, err = nil, removeErr
			} else {
				logger.Error().Func(log.Flaw(removeErr)).Msg("Failed to remove scratch directory")
			}
		}
	}()

	logger.Debug().Msg("Starting track download")
	start := time.Now()
	res, err = Track(ctx, d.runner, url, dir, d.timeout)
	if nil != err {
		return nil, err
	}
	logger.Info().Dur("took", time.Since(start)).Str("file", res.FileName).Int("size", len(res.Bytes)).Msg("Track downloaded")
	return res, nil
}
