package bot

const (
	greetingText = "Hi!\n" +
		"To get <b>track info</b>, send its <b>name</b> to the chat!\n" +
		"Or use the /menu command."
	helpText = "/track &lt;track name&gt; - find a track\n" +
		"/album &lt;album name&gt; - find an album\n" +
		"/menu - open the menu\n" +
		"/settings - change your settings\n\n" +
		"Send a Spotify track link to download it."
	menuText            = "📋 <b>Menu</b>"
	settingsText        = "⚙️ <b>Settings</b>"
	settingsUpdatedText = "⚙️ <b>Settings updated</b>"
	invalidLinkText     = "Invalid link!"
	unknownCommandText  = "Command not found."
	trackNotFoundText   = "❌ Track not found"
	albumNotFoundText   = "❌ Album not found"
	downloadingText     = "⏳ Downloading track\nThis may take a while..."
	downloadTimeoutText = "❌ Download took too long"
	apologyText         = "Something went wrong while processing your request. Please try again later."
)
