package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/tgsd/errutil"
)

// DefaultTimeout is generous because the remote may be slow, not because any
// operation relies on it.
const DefaultTimeout = 250 * time.Second

// maxErrorBodySize caps how much of a failed response body is kept for diagnostics.
const maxErrorBodySize = 4 * 1024

type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}} //nolint:exhaustruct
}

// WithHTTPClient wraps an already configured client, mostly for tests.
func WithHTTPClient(c *http.Client) *Client {
	return &Client{http: c}
}

// Do sends req and returns the body of a 2xx response. Any failure is reported as one
// of TimeoutError, ConnectionError, StatusError or RequestError, except caller
// cancellation which is returned as the context error.
func (c *Client) Do(ctx context.Context, req *http.Request) (body []byte, err error) {
	req = req.WithContext(ctx)
	method, reqURL := req.Method, req.URL.String()

	resp, err := c.http.Do(req)
	if nil != err {
		return nil, classify(ctx, method, reqURL, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr && nil == err {
			err = &RequestError{Method: method, URL: reqURL, Err: fmt.Errorf("failed to close response body: %v", closeErr)}
		}
	}()

	if code := resp.StatusCode; code < 200 || code > 299 {
		respBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &StatusError{
			Method:   method,
			URL:      reqURL,
			Code:     code,
			Body:     string(respBytes),
			Response: errutil.HTTPResponseFlawPayload(resp),
		}
	}

	respBytes, err := io.ReadAll(resp.Body)
	if nil != err {
		return nil, classify(ctx, method, reqURL, err)
	}
	return respBytes, nil
}

func classify(ctx context.Context, method, reqURL string, err error) error {
	if errutil.IsContext(ctx) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Method: method, URL: reqURL}
	}
	if netErr := net.Error(nil); errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Method: method, URL: reqURL}
	}
	if opErr := new(net.OpError); errors.As(err, &opErr) {
		return &ConnectionError{Method: method, URL: reqURL, Err: opErr}
	}
	if dnsErr := new(net.DNSError); errors.As(err, &dnsErr) {
		return &ConnectionError{Method: method, URL: reqURL, Err: dnsErr}
	}

	flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
	return &RequestError{Method: method, URL: reqURL, Err: flaw.From(err).Append(flawP)}
}

// IsRetryable reports whether err is a transient transport failure that is safe to
// retry for a stateless request.
func IsRetryable(err error) bool {
	if _, ok := errutil.As[*TimeoutError](err); ok {
		return true
	}
	_, ok := errutil.As[*ConnectionError](err)
	return ok
}
