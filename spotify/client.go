package spotify

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
	"gopkg.in/matryer/try.v1"

	"github.com/xeptore/tgsd/errutil"
	"github.com/xeptore/tgsd/httputil"
)

const (
	DefaultAccountsURL = "https://accounts.spotify.com"
	DefaultAPIURL      = "https://api.spotify.com"

	// tokenExpiryMargin is subtracted from the advertised lifetime so that a token is
	// never used right at its expiry.
	tokenExpiryMargin = 10 * time.Second
	maxTokenAttempts  = 3
)

// AuthError means the token endpoint answered without a usable token.
type AuthError struct {
	Reason string
	Body   string
}

func (e *AuthError) Error() string {
	return "spotify authentication failed: " + e.Reason
}

type Client struct {
	basicAuth   string
	accountsURL string
	apiURL      string
	http        *httputil.Client
	now         func() time.Time
	logger      zerolog.Logger

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	refresh   singleflight.Group
}

type Option func(*Client)

func WithBaseURLs(accountsURL, apiURL string) Option {
	return func(c *Client) {
		c.accountsURL = strings.TrimRight(accountsURL, "/")
		c.apiURL = strings.TrimRight(apiURL, "/")
	}
}

func WithHTTPClient(h *httputil.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{ //nolint:exhaustruct
		basicAuth:   "Basic " + base64.StdEncoding.EncodeToString([]byte(clientID+":"+clientSecret)),
		accountsURL: DefaultAccountsURL,
		apiURL:      DefaultAPIURL,
		http:        httputil.NewClient(httputil.DefaultTimeout),
		now:         time.Now,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) cachedToken() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, true
	}
	return "", false
}

// AccessToken returns a valid bearer token, exchanging client credentials for a new
// one when the cached token is missing or expired. Concurrent callers share a single
// exchange, and each caller stops waiting only when its own ctx is done.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if token, ok := c.cachedToken(); ok {
		return token, nil
	}

	// The shared exchange must outlive whichever caller started it. Each attempt is
	// still bounded by the gateway timeout.
	exchangeCtx := context.WithoutCancel(ctx)
	ch := c.refresh.DoChan("token", func() (any, error) {
		if token, ok := c.cachedToken(); ok {
			return token, nil
		}
		return c.exchangeToken(exchangeCtx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if nil != res.Err {
			return "", res.Err
		}
		return res.Val.(string), nil //nolint:forcetypeassert
	}
}

func (c *Client) exchangeToken(ctx context.Context) (string, error) {
	var body []byte
	err := try.Do(func(attempt int) (retry bool, err error) {
		body, err = c.postToken(ctx)
		if nil != err {
			switch {
			case errutil.IsContext(ctx):
				return false, ctx.Err()
			case httputil.IsRetryable(err):
				c.logger.Warn().Err(err).Int("attempt", attempt).Msg("Token exchange failed")
				return attempt < maxTokenAttempts, err
			default:
				return false, err
			}
		}
		return false, nil
	})
	if nil != err {
		return "", err
	}

	accessToken, expiresIn := gjson.GetBytes(body, "access_token"), gjson.GetBytes(body, "expires_in")
	if accessToken.Type != gjson.String || accessToken.Str == "" {
		return "", &AuthError{Reason: "response has no access_token", Body: string(body)}
	}
	if expiresIn.Type != gjson.Number {
		return "", &AuthError{Reason: "response has no expires_in", Body: string(body)}
	}

	expiresAt := c.now().Add(time.Duration(expiresIn.Int())*time.Second - tokenExpiryMargin)
	c.mu.Lock()
	c.token, c.expiresAt = accessToken.Str, expiresAt
	c.mu.Unlock()
	c.logger.Debug().Time("expires_at", expiresAt).Msg("Access token refreshed")

	return accessToken.Str, nil
}

func (c *Client) postToken(ctx context.Context) ([]byte, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accountsURL+"/api/token", strings.NewReader(form.Encode()))
	if nil != err {
		return nil, &httputil.RequestError{Method: http.MethodPost, URL: c.accountsURL + "/api/token", Err: err}
	}
	req.Header.Set("Authorization", c.basicAuth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.http.Do(ctx, req)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	token, err := c.AccessToken(ctx)
	if nil != err {
		return nil, err
	}

	reqURL := c.apiURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		return nil, &httputil.RequestError{Method: http.MethodGet, URL: reqURL, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return c.http.Do(ctx, req)
}

func (c *Client) search(ctx context.Context, kind Kind, query string, limit int) ([]byte, error) {
	params := url.Values{"q": {query}, "type": {kind.String()}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.get(ctx, "/v1/search", params)
	if nil != err {
		return nil, err
	}

	path := kind.searchKey() + ".items"
	items := gjson.GetBytes(body, path)
	if !items.IsArray() {
		return nil, &httputil.ResponseDataError{URL: c.apiURL + "/v1/search", Reason: "missing " + path + " array", Body: string(body)}
	}
	return []byte(items.Raw), nil
}

// SearchTracks returns an empty slice, not an error, when nothing matched.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	items, err := c.search(ctx, KindTrack, query, limit)
	if nil != err {
		return nil, err
	}
	tracks, err := parseTracks(items)
	if nil != err {
		return nil, &httputil.ResponseDataError{URL: c.apiURL + "/v1/search", Reason: fmt.Sprintf("invalid track items: %v", err), Body: string(items)}
	}
	return tracks, nil
}

func (c *Client) SearchAlbums(ctx context.Context, query string, limit int) ([]Album, error) {
	items, err := c.search(ctx, KindAlbum, query, limit)
	if nil != err {
		return nil, err
	}
	albums, err := parseAlbums(items)
	if nil != err {
		return nil, &httputil.ResponseDataError{URL: c.apiURL + "/v1/search", Reason: fmt.Sprintf("invalid album items: %v", err), Body: string(items)}
	}
	return albums, nil
}

func (c *Client) object(ctx context.Context, path string) ([]byte, error) {
	body, err := c.get(ctx, path, nil)
	if nil != err {
		return nil, err
	}
	if !gjson.ParseBytes(body).IsObject() {
		return nil, &httputil.ResponseDataError{URL: c.apiURL + path, Reason: "response is not an object", Body: string(body)}
	}
	return body, nil
}

func (c *Client) TrackByID(ctx context.Context, id string) (Track, error) {
	path := "/v1/tracks/" + url.PathEscape(id)
	body, err := c.object(ctx, path)
	if nil != err {
		return Track{}, err //nolint:exhaustruct
	}
	track, err := ParseTrack(body)
	if nil != err {
		return Track{}, &httputil.ResponseDataError{URL: c.apiURL + path, Reason: err.Error(), Body: string(body)}
	}
	return track, nil
}

func (c *Client) AlbumByID(ctx context.Context, id string) (Album, error) {
	path := "/v1/albums/" + url.PathEscape(id)
	body, err := c.object(ctx, path)
	if nil != err {
		return Album{}, err //nolint:exhaustruct
	}
	album, err := ParseAlbum(body)
	if nil != err {
		return Album{}, &httputil.ResponseDataError{URL: c.apiURL + path, Reason: err.Error(), Body: string(body)}
	}
	return album, nil
}

// AlbumTracks returns the first page of an album's track listing. Listed tracks carry
// PlaceholderAlbum since the API omits it.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]Track, error) {
	path := "/v1/albums/" + url.PathEscape(albumID) + "/tracks"
	body, err := c.get(ctx, path, nil)
	if nil != err {
		return nil, err
	}
	items := gjson.GetBytes(body, "items")
	if !items.IsArray() {
		return nil, &httputil.ResponseDataError{URL: c.apiURL + path, Reason: "missing items array", Body: string(body)}
	}
	tracks, err := parseTracks([]byte(items.Raw))
	if nil != err {
		return nil, &httputil.ResponseDataError{URL: c.apiURL + path, Reason: fmt.Sprintf("invalid track items: %v", err), Body: string(body)}
	}
	return tracks, nil
}

// IsNotFound reports whether err is the API's answer for an unknown id.
func IsNotFound(err error) bool {
	var statusErr *httputil.StatusError
	return errors.As(err, &statusErr) && (statusErr.Code == http.StatusNotFound || statusErr.Code == http.StatusBadRequest)
}
