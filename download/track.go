package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/samber/lo"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/tgsd/errutil"
)

const (
	DefaultTimeout = 250 * time.Second

	// BadOutputFileName is a file the downloader is known to leave behind for some
	// requests regardless of what was asked for.
	BadOutputFileName = "Faceless 1-7 - Download My Conscious.mp3"

	DefaultPerformer = "Spotify"

	audioExt = ".mp3"
)

type TrackFile struct {
	Path      string
	FileName  string
	Title     string
	Performer string
	Bytes     []byte
}

// Track runs runner for url inside dir and returns the produced audio file. dir is
// emptied before the run and always emptied again before Track returns, so the caller
// only ever owns the returned bytes.
func Track(ctx context.Context, runner Runner, url, dir string, timeout time.Duration) (res *TrackFile, err error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if err := os.MkdirAll(dir, 0o0755); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "dir": dir}
		return nil, flaw.From(fmt.Errorf("failed to create download directory: %v", err)).Append(flawP)
	}
	if err := purge(dir); nil != err {
		return nil, err
	}
	defer func() {
		if purgeErr := purge(dir); nil != purgeErr {
			switch {
			case nil == err:
				res, err = nil, purgeErr
			case errutil.IsFlaw(err):
				err = errutil.AsFlaw(err).Join(purgeErr)
			default:
				err = errors.Join(err, purgeErr)
			}
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := runner.Run(runCtx, url, dir); nil != err {
		switch {
		case errutil.IsContext(ctx):
			return nil, ctx.Err()
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return nil, &TimeoutError{URL: url, Timeout: timeout}
		default:
			return nil, &Error{URL: url, Err: err}
		}
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &TimeoutError{URL: url, Timeout: timeout}
	}

	path, err := pickFile(dir)
	if nil != err {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "path": path}
		return nil, flaw.From(fmt.Errorf("failed to read downloaded file: %v", err)).Append(flawP)
	}

	fileName := filepath.Base(path)
	return &TrackFile{
		Path:      path,
		FileName:  fileName,
		Title:     strings.TrimSuffix(fileName, filepath.Ext(fileName)),
		Performer: performer(b),
		Bytes:     b,
	}, nil
}

type candidate struct {
	path    string
	name    string
	modTime time.Time
}

// pickFile selects the newest non-empty audio file in dir. Ties on modification time go
// to the lexicographically greatest name so the choice never depends on directory order.
func pickFile(dir string) (string, error) {
	notFound := &FilesNotFoundError{ExpectedPaths: []string{filepath.Join(dir, "*"+audioExt)}}

	entries, err := os.ReadDir(dir)
	if nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "dir": dir}
		return "", flaw.From(fmt.Errorf("failed to list download directory: %v", err)).Append(flawP)
	}

	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != audioExt {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if entry.Name() == BadOutputFileName {
			if err := os.Remove(path); nil != err && !errors.Is(err, os.ErrNotExist) {
				flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "path": path}
				return "", flaw.From(fmt.Errorf("failed to remove bad output file: %v", err)).Append(flawP)
			}
			continue
		}
		info, err := entry.Info()
		if nil != err {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "path": path}
			return "", flaw.From(fmt.Errorf("failed to stat downloaded file: %v", err)).Append(flawP)
		}
		if info.Size() == 0 {
			continue
		}
		candidates = append(candidates, candidate{path: path, name: entry.Name(), modTime: info.ModTime()})
	}
	if len(candidates) == 0 {
		return "", notFound
	}

	newest := lo.MaxBy(candidates, func(a, b candidate) bool {
		if a.modTime.Equal(b.modTime) {
			return a.name > b.name
		}
		return a.modTime.After(b.modTime)
	})
	return newest.path, nil
}

func performer(b []byte) string {
	meta, err := tag.ReadFrom(bytes.NewReader(b))
	if nil != err {
		return DefaultPerformer
	}
	if artist := strings.TrimSpace(meta.Artist()); artist != "" {
		return artist
	}
	return DefaultPerformer
}

func purge(dir string) error {
	entries, err := os.ReadDir(dir)
	if nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "dir": dir}
		return flaw.From(fmt.Errorf("failed to list download directory: %v", err)).Append(flawP)
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); nil != err {
			flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "path": path}
			return flaw.From(fmt.Errorf("failed to remove download directory entry: %v", err)).Append(flawP)
		}
	}
	return nil
}
