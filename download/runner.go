package download

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/tgsd/errutil"
)

// Runner downloads the content behind url into dir.
type Runner interface {
	Run(ctx context.Context, url, dir string) error
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context, url, dir string) error

func (f RunnerFunc) Run(ctx context.Context, url, dir string) error {
	return f(ctx, url, dir)
}

const DefaultBinary = "spotdl"

// SpotDL runs the spotdl command line tool.
type SpotDL struct {
	Binary string
	Logger zerolog.Logger
}

// pipeDrainTimeout bounds how long Wait keeps reading the pipes after the process group
// was killed.
const pipeDrainTimeout = 5 * time.Second

func (s SpotDL) Run(ctx context.Context, url, dir string) error {
	bin := s.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "download", url, "--output", dir)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = pipeDrainTimeout
	killProcessGroup(cmd)

	s.Logger.Debug().Str("cmd", cmd.String()).Msg("Starting downloader")
	if err := cmd.Run(); nil != err {
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		flawP := flaw.P{
			"err_debug_tree": errutil.Tree(err).FlawP(),
			"cmd":            cmd.String(),
			"output":         out.String(),
		}
		return flaw.From(fmt.Errorf("downloader exited with error: %v", err)).Append(flawP)
	}
	s.Logger.Debug().Str("output", out.String()).Msg("Downloader finished")
	return nil
}
