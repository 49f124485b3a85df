package spotify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xeptore/tgsd/spotify"
)

func TestParseLink(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected spotify.Link
		ok       bool
	}{
		{
			name:     "track",
			input:    "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: spotify.Link{Kind: spotify.KindTrack, ID: "4uLU6hMCjMI75M1A2tKUQC"},
			ok:       true,
		},
		{
			name:     "track with query",
			input:    "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123",
			expected: spotify.Link{Kind: spotify.KindTrack, ID: "4uLU6hMCjMI75M1A2tKUQC"},
			ok:       true,
		},
		{
			name:     "locale prefixed",
			input:    "https://open.spotify.com/intl-de/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: spotify.Link{Kind: spotify.KindTrack, ID: "4uLU6hMCjMI75M1A2tKUQC"},
			ok:       true,
		},
		{
			name:     "album",
			input:    "https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3",
			expected: spotify.Link{Kind: spotify.KindAlbum, ID: "1DFixLWuPkv3KT3TnV35m3"},
			ok:       true,
		},
		{
			name:     "uri",
			input:    "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
			expected: spotify.Link{Kind: spotify.KindTrack, ID: "4uLU6hMCjMI75M1A2tKUQC"},
			ok:       true,
		},
		{name: "playlist", input: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M"},
		{name: "other host", input: "https://example.com/track/4uLU6hMCjMI75M1A2tKUQC"},
		{name: "bad locale", input: "https://open.spotify.com/foo/track/4uLU6hMCjMI75M1A2tKUQC"},
		{name: "bad id", input: "https://open.spotify.com/track/abc-def"},
		{name: "plain text", input: "never gonna give you up"},
		{name: "uri too long", input: "spotify:user:me:playlist:1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			link, ok := spotify.ParseLink(tc.input)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.expected, link)
			}
		})
	}
}

func TestKind(t *testing.T) {
	t.Parallel()

	for _, k := range []spotify.Kind{spotify.KindTrack, spotify.KindAlbum} {
		parsed, ok := spotify.ParseKind(k.String())
		require.True(t, ok)
		require.Equal(t, k, parsed)
	}
	_, ok := spotify.ParseKind("playlist")
	require.False(t, ok)
	require.Equal(t, "https://open.spotify.com/track/abc", spotify.TrackURL("abc"))
}
