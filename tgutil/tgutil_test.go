package tgutil_test

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/tgsd/constant"
	"github.com/xeptore/tgsd/tgutil"
)

func TestDevice(t *testing.T) {
	t.Parallel()

	d := tgutil.Device()
	require.Equal(t, constant.BotName, d.DeviceModel)
	require.NotEmpty(t, d.AppVersion)
	require.NotContains(t, d.AppVersion, "\n")
}

func TestNewBackoff(t *testing.T) {
	t.Parallel()

	b := tgutil.NewBackoff(time.Minute)
	for range 20 {
		next := b.NextBackOff()
		require.NotEqual(t, backoff.Stop, next)
		require.LessOrEqual(t, next, 15*time.Second)
	}
}

func TestDefaultMiddlewares(t *testing.T) {
	t.Parallel()

	require.Len(t, tgutil.DefaultMiddlewares(context.Background()), 2)
}
