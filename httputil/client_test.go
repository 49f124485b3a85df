package httputil_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xeptore/tgsd/errutil"
	"github.com/xeptore/tgsd/httputil"
)

func TestClientDo(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		t.Cleanup(srv.Close)

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		body, err := httputil.NewClient(0).Do(context.Background(), req)
		require.NoError(t, err)
		require.JSONEq(t, `{"ok":true}`, string(body))
	})

	t.Run("StatusError", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}))
		t.Cleanup(srv.Close)

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		_, err = httputil.NewClient(0).Do(context.Background(), req)
		statusErr, ok := errutil.As[*httputil.StatusError](err)
		require.True(t, ok)
		require.Equal(t, http.StatusBadGateway, statusErr.Code)
		require.Equal(t, "upstream down", statusErr.Body)
		require.Equal(t, http.MethodGet, statusErr.Method)
		require.False(t, httputil.IsRetryable(err))
	})

	t.Run("Timeout", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(release) })

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		_, err = httputil.NewClient(50*time.Millisecond).Do(context.Background(), req)
		_, ok := errutil.As[*httputil.TimeoutError](err)
		require.True(t, ok, "got %T: %v", err, err)
		require.True(t, httputil.IsRetryable(err))
	})

	t.Run("ConnectionRefused", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		req, err := http.NewRequest(http.MethodGet, addr, nil)
		require.NoError(t, err)
		_, err = httputil.NewClient(0).Do(context.Background(), req)
		_, ok := errutil.As[*httputil.ConnectionError](err)
		require.True(t, ok, "got %T: %v", err, err)
		require.True(t, httputil.IsRetryable(err))
	})

	t.Run("CallerCanceled", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		t.Cleanup(srv.Close)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		_, err = httputil.NewClient(0).Do(ctx, req)
		require.ErrorIs(t, err, context.Canceled)
	})
}
