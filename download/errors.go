package download

import (
	"fmt"
	"strings"
	"time"

	"github.com/xeptore/flaw/v8"
)

// TimeoutError means the downloader did not finish within its time budget. It is
// reported to the user as a friendly message rather than a failure.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("download of %s did not finish within %s", e.URL, e.Timeout)
}

// Error means the downloader process failed.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FilesNotFoundError means the downloader exited cleanly but left no usable file.
type FilesNotFoundError struct {
	ExpectedPaths []string
}

func (e *FilesNotFoundError) Error() string {
	return "no downloaded files found at " + strings.Join(e.ExpectedPaths, ", ")
}

func (e *FilesNotFoundError) FlawP() flaw.P {
	return flaw.P{"expected_paths": e.ExpectedPaths}
}
