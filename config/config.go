package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DownloadBaseDir string     `json:"download_base_dir" yaml:"download_base_dir"`
	DataDir         string     `json:"data_dir"          yaml:"data_dir"`
	BotUsername     string     `json:"bot_username"      yaml:"bot_username"`
	ReportPeerID    string     `json:"report_peer_id"    yaml:"report_peer_id"`
	FromIDs         []int64    `json:"from_ids"          yaml:"from_ids"`
	HTTPTimeout     Duration   `json:"http_timeout"      yaml:"http_timeout"`
	LogFormat       string     `json:"log_format"        yaml:"log_format"`
	Downloader      Downloader `json:"downloader"        yaml:"downloader"`
}

type Downloader struct {
	Binary      string   `json:"binary"      yaml:"binary"`
	Timeout     Duration `json:"timeout"     yaml:"timeout"`
	Concurrency int      `json:"concurrency" yaml:"concurrency"`
}

// Duration accepts Go duration strings such as "250s" or "4m10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); nil != err {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if nil != err {
		return fmt.Errorf("invalid duration %q: %v", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// IsAllowed reports whether messages from userID are handled. An empty allowlist lets
// everyone in.
func (cfg *Config) IsAllowed(userID int64) bool {
	if len(cfg.FromIDs) == 0 {
		return true
	}
	for _, id := range cfg.FromIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (cfg *Config) setDefaults() {
	if cfg.Downloader.Binary == "" {
		cfg.Downloader.Binary = DefaultDownloaderBinary
	}
	if cfg.Downloader.Timeout <= 0 {
		cfg.Downloader.Timeout = Duration(DefaultDownloadTimeout)
	}
	if cfg.Downloader.Concurrency <= 0 {
		cfg.Downloader.Concurrency = DefaultDownloadConcurrency
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = Duration(DefaultHTTPTimeout)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "pretty"
	}
}

func (cfg *Config) validate() error {
	if cfg.DownloadBaseDir == "" {
		return errors.New("download base dir is empty")
	}

	if cfg.DataDir == "" {
		return errors.New("data dir is empty")
	}

	if cfg.BotUsername == "" {
		return errors.New("bot username is empty")
	}

	switch cfg.LogFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return nil
}

func FromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %q: %v", filePath, err)
	}

	cfg, err := parse(data)
	if nil != err {
		return nil, fmt.Errorf("config file %q: %v", filePath, err)
	}
	return cfg, nil
}

func FromString(data string) (*Config, error) {
	return parse([]byte(data))
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	cfg.setDefaults()
	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}
