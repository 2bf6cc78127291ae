// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the model backends that
// speak plain HTTP.
package httputil

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/internal/invoke"
)

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 2048

// StatusError reports a non-2xx response from an API.
type StatusError struct {
	API        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.API, e.StatusCode, e.Body)
}

// ClassifyStatus maps an HTTP status to a retry class. 429 is a rate limit;
// 408, 409, and 5xx are transient; every other 4xx (bad request, auth,
// not found) is fatal.
func ClassifyStatus(code int) invoke.Class {
	switch {
	case code == http.StatusTooManyRequests:
		return invoke.ClassRateLimited
	case code == http.StatusRequestTimeout, code == http.StatusConflict, code >= 500:
		return invoke.ClassTransient
	default:
		return invoke.ClassFatal
	}
}

// CheckResponse returns nil for a 2xx response. Otherwise it drains up to
// maxErrorBody bytes of the body and returns a classified *invoke.CallError
// wrapping a *StatusError, with any Retry-After hint attached.
func CheckResponse(api string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &StatusError{
		API:        api,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
	return &invoke.CallError{
		Class:      ClassifyStatus(resp.StatusCode),
		Err:        statusErr,
		RetryAfter: RetryAfter(resp.Header, time.Now()),
	}
}

// RetryAfter parses a Retry-After header given in seconds or as an HTTP
// date. It returns 0 when the header is absent, malformed, or in the past.
func RetryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
