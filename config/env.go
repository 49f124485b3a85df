package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Secrets are never read from the config file.
type Secrets struct {
	BotToken            string
	AppID               int
	AppHash             string
	SpotifyClientID     string
	SpotifyClientSecret string
}

func SecretsFromEnv() (*Secrets, error) {
	var errs []error
	required := func(name string) string {
		v := os.Getenv(name)
		if v == "" {
			errs = append(errs, fmt.Errorf("environment variable %s is empty", name))
		}
		return v
	}

	s := Secrets{
		BotToken:            required("BOT_TOKEN"),
		AppID:               0,
		AppHash:             required("APP_HASH"),
		SpotifyClientID:     required("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: required("SPOTIFY_CLIENT_SECRET"),
	}
	if appID := required("APP_ID"); appID != "" {
		id, err := strconv.Atoi(appID)
		if nil != err {
			errs = append(errs, fmt.Errorf("environment variable APP_ID is not a number: %v", err))
		}
		s.AppID = id
	}

	if err := errors.Join(errs...); nil != err {
		return nil, err
	}
	return &s, nil
}
