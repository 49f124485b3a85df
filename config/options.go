package config

import (
	"time"

	"github.com/xeptore/tgsd/download"
	"github.com/xeptore/tgsd/httputil"
	"github.com/xeptore/tgsd/ratelimit"
)

const (
	DefaultDownloaderBinary    = download.DefaultBinary
	DefaultDownloadTimeout     = download.DefaultTimeout
	DefaultDownloadConcurrency = ratelimit.DefaultDownloadConcurrency
	DefaultHTTPTimeout         = httputil.DefaultTimeout
)

var (
	LookupRequestTimeout = 30 * time.Second
	SendMessageTimeout   = 30 * time.Second
	UploadAudioTimeout   = 5 * time.Minute
	ShutdownGracePeriod  = 10 * time.Second
)
