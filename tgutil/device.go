package tgutil

import (
	"runtime"
	"strings"

	"github.com/gotd/td/telegram"

	"github.com/xeptore/tgsd/constant"
)

// Device identifies the bot's sessions in the account's active sessions list.
func Device() telegram.DeviceConfig {
	//nolint:exhaustruct
	return telegram.DeviceConfig{
		DeviceModel:    constant.BotName,
		SystemVersion:  runtime.GOOS + "/" + runtime.GOARCH,
		AppVersion:     strings.TrimSpace(constant.Version),
		SystemLangCode: "en",
		LangCode:       "en",
	}
}
