package httputil

import (
	"fmt"

	"github.com/xeptore/flaw/v8"
)

// TimeoutError is returned when the request did not complete within the gateway timeout.
type TimeoutError struct {
	Method string
	URL    string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: request timed out", e.Method, e.URL)
}

// ConnectionError is returned when the remote could not be reached at all.
type ConnectionError struct {
	Method string
	URL    string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: connection failed: %v", e.Method, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method   string
	URL      string
	Code     int
	Body     string
	Response flaw.P
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code: %d", e.Method, e.URL, e.Code)
}

// RequestError covers every other transport failure.
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: request failed: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ResponseDataError means the remote answered successfully but broke its response contract.
type ResponseDataError struct {
	URL    string
	Reason string
	Body   string
}

func (e *ResponseDataError) Error() string {
	return fmt.Sprintf("%s: unexpected response data: %s", e.URL, e.Reason)
}

// FlawP implements the payload attached when the error reaches the report boundary.
func (e *ResponseDataError) FlawP() flaw.P {
	return flaw.P{"url": e.URL, "reason": e.Reason, "response_body": e.Body}
}

func (e *StatusError) FlawP() flaw.P {
	return flaw.P{"method": e.Method, "url": e.URL, "response": e.Response, "response_body": e.Body}
}
