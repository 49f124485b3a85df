package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xeptore/tgsd/settings"
)

func TestStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := settings.Open(dir)
	require.NoError(t, err)

	require.True(t, s.ShowCover(1))
	require.NoError(t, s.SetShowCover(1, false))
	require.False(t, s.ShowCover(1))
	require.True(t, s.ShowCover(2))

	reopened, err := settings.Open(dir)
	require.NoError(t, err)
	require.False(t, reopened.ShowCover(1))

	require.NoError(t, reopened.Reset(1))
	require.True(t, reopened.ShowCover(1))
	require.NoError(t, reopened.Reset(42))

	reopened, err = settings.Open(dir)
	require.NoError(t, err)
	require.True(t, reopened.ShowCover(1))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestOpenCorrupted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, settings.FileName), []byte("{not json"), 0o0600))
	_, err := settings.Open(dir)
	require.Error(t, err)
}
