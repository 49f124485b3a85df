package spotify_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xeptore/tgsd/errutil"
	"github.com/xeptore/tgsd/httputil"
	"github.com/xeptore/tgsd/spotify"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeAPI struct {
	tokenCalls  atomic.Int32
	tokenBody   string
	tokenDelay  time.Duration
	routes      map[string]string
	lastQueries chan string
}

func newFakeAPI(t *testing.T, routes map[string]string) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{
		tokenBody:   `{"access_token": "tok", "token_type": "Bearer", "expires_in": 3600}`,
		routes:      routes,
		lastQueries: make(chan string, 16),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/token" {
			api.tokenCalls.Add(1)
			expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("id:secret"))
			if r.Header.Get("Authorization") != expectedAuth || r.FormValue("grant_type") != "client_credentials" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			time.Sleep(api.tokenDelay)
			_, _ = w.Write([]byte(api.tokenBody))
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := api.routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": {"status": 404, "message": "Non existing id"}}`))
			return
		}
		select {
		case api.lastQueries <- r.URL.RawQuery:
		default:
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func newClient(srv *httptest.Server, c *clock) *spotify.Client {
	return spotify.NewClient(
		"id",
		"secret",
		spotify.WithBaseURLs(srv.URL, srv.URL),
		spotify.WithClock(c.Now),
		spotify.WithHTTPClient(httputil.NewClient(5*time.Second)),
	)
}

func TestAccessToken(t *testing.T) {
	t.Parallel()

	t.Run("CachedUntilExpiry", func(t *testing.T) {
		t.Parallel()
		api, srv := newFakeAPI(t, nil)
		c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		client := newClient(srv, c)

		token, err := client.AccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "tok", token)
		require.EqualValues(t, 1, api.tokenCalls.Load())

		c.Advance(3589 * time.Second)
		_, err = client.AccessToken(context.Background())
		require.NoError(t, err)
		require.EqualValues(t, 1, api.tokenCalls.Load())

		c.Advance(time.Second)
		_, err = client.AccessToken(context.Background())
		require.NoError(t, err)
		require.EqualValues(t, 2, api.tokenCalls.Load())
	})

	t.Run("SingleRefreshUnderConcurrency", func(t *testing.T) {
		t.Parallel()
		api, srv := newFakeAPI(t, nil)
		api.tokenDelay = 50 * time.Millisecond
		client := newClient(srv, &clock{now: time.Now()})

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				token, err := client.AccessToken(context.Background())
				require.NoError(t, err)
				require.Equal(t, "tok", token)
			}()
		}
		wg.Wait()
		require.EqualValues(t, 1, api.tokenCalls.Load())
	})

	t.Run("WaiterSurvivesStarterCancel", func(t *testing.T) {
		t.Parallel()
		api, srv := newFakeAPI(t, nil)
		api.tokenDelay = 200 * time.Millisecond
		client := newClient(srv, &clock{now: time.Now()})

		starterCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		starterErr := make(chan error, 1)
		go func() {
			_, err := client.AccessToken(starterCtx)
			starterErr <- err
		}()
		require.Eventually(t, func() bool { return api.tokenCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

		type result struct {
			token string
			err   error
		}
		waiter := make(chan result, 1)
		go func() {
			token, err := client.AccessToken(context.Background())
			waiter <- result{token, err}
		}()
		time.Sleep(30 * time.Millisecond)
		cancel()

		require.ErrorIs(t, <-starterErr, context.Canceled)
		res := <-waiter
		require.NoError(t, res.err)
		require.Equal(t, "tok", res.token)
		require.EqualValues(t, 1, api.tokenCalls.Load())
	})

	t.Run("MissingAccessToken", func(t *testing.T) {
		t.Parallel()
		api, srv := newFakeAPI(t, nil)
		api.tokenBody = `{"expires_in": 3600}`
		client := newClient(srv, &clock{now: time.Now()})

		_, err := client.AccessToken(context.Background())
		authErr, ok := errutil.As[*spotify.AuthError](err)
		require.True(t, ok)
		require.Contains(t, authErr.Reason, "access_token")
	})

	t.Run("MissingExpiresIn", func(t *testing.T) {
		t.Parallel()
		api, srv := newFakeAPI(t, nil)
		api.tokenBody = `{"access_token": "tok"}`
		client := newClient(srv, &clock{now: time.Now()})

		_, err := client.AccessToken(context.Background())
		authErr, ok := errutil.As[*spotify.AuthError](err)
		require.True(t, ok)
		require.Contains(t, authErr.Reason, "expires_in")
	})

	t.Run("BadCredentials", func(t *testing.T) {
		t.Parallel()
		api, srv := newFakeAPI(t, nil)
		client := spotify.NewClient("id", "wrong", spotify.WithBaseURLs(srv.URL, srv.URL))

		_, err := client.AccessToken(context.Background())
		statusErr, ok := errutil.As[*httputil.StatusError](err)
		require.True(t, ok)
		require.Equal(t, http.StatusUnauthorized, statusErr.Code)
		require.EqualValues(t, 1, api.tokenCalls.Load())
	})
}

func TestSearch(t *testing.T) {
	t.Parallel()

	t.Run("Tracks", func(t *testing.T) {
		t.Parallel()
		api, srv := newFakeAPI(t, map[string]string{
			"/v1/search": `{"tracks": {"items": [{"id": "t1", "name": "One"}, null, {"id": "t2", "name": "Two"}]}}`,
		})
		tracks, err := newClient(srv, &clock{now: time.Now()}).SearchTracks(context.Background(), "some song", 5)
		require.NoError(t, err)
		require.Len(t, tracks, 2)
		require.Equal(t, "Two", tracks[1].Name)
		require.Equal(t, spotify.Placeholder, tracks[0].Album.Name)
		require.Equal(t, "limit=5&q=some+song&type=track", <-api.lastQueries)
	})

	t.Run("LimitOmitted", func(t *testing.T) {
		t.Parallel()
		api, srv := newFakeAPI(t, map[string]string{
			"/v1/search": `{"albums": {"items": [{"id": "al1"}]}}`,
		})
		albums, err := newClient(srv, &clock{now: time.Now()}).SearchAlbums(context.Background(), "x", 0)
		require.NoError(t, err)
		require.Len(t, albums, 1)
		require.Equal(t, "q=x&type=album", <-api.lastQueries)
	})

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		_, srv := newFakeAPI(t, map[string]string{
			"/v1/search": `{"tracks": {"items": []}}`,
		})
		tracks, err := newClient(srv, &clock{now: time.Now()}).SearchTracks(context.Background(), "nothing", 1)
		require.NoError(t, err)
		require.NotNil(t, tracks)
		require.Empty(t, tracks)
	})

	t.Run("MissingItems", func(t *testing.T) {
		t.Parallel()
		_, srv := newFakeAPI(t, map[string]string{
			"/v1/search": `{"albums": {"items": []}}`,
		})
		_, err := newClient(srv, &clock{now: time.Now()}).SearchTracks(context.Background(), "x", 1)
		_, ok := errutil.As[*httputil.ResponseDataError](err)
		require.True(t, ok)
	})
}

func TestLookup(t *testing.T) {
	t.Parallel()

	_, srv := newFakeAPI(t, map[string]string{
		"/v1/tracks/t1":        `{"id": "t1", "name": "One", "duration_ms": 1000, "album": {"id": "al1", "name": "Record"}}`,
		"/v1/tracks/bad":       `[]`,
		"/v1/albums/al1":       `{"id": "al1", "name": "Record", "total_tracks": 2}`,
		"/v1/albums/al1/tracks": `{"items": [{"id": "t1", "name": "One"}, {"id": "t2", "name": "Two"}]}`,
		"/v1/albums/al2/tracks": `{"total": 0}`,
	})
	client := newClient(srv, &clock{now: time.Now()})
	ctx := context.Background()

	track, err := client.TrackByID(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "Record", track.Album.Name)
	require.Equal(t, "1 sec.", track.DurationDisplay())

	_, err = client.TrackByID(ctx, "bad")
	_, ok := errutil.As[*httputil.ResponseDataError](err)
	require.True(t, ok)

	_, err = client.TrackByID(ctx, "missing")
	require.True(t, spotify.IsNotFound(err))

	album, err := client.AlbumByID(ctx, "al1")
	require.NoError(t, err)
	require.Equal(t, 2, album.TotalTracks)

	tracks, err := client.AlbumTracks(ctx, "al1")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	require.Equal(t, spotify.PlaceholderAlbum(), tracks[0].Album)

	_, err = client.AlbumTracks(ctx, "al2")
	_, ok = errutil.As[*httputil.ResponseDataError](err)
	require.True(t, ok)
}
