/*
  Copyright 2019, 2026 Tamás Gulácsi

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

  Unless required by applicable law or agreed to in writing, software
  distributed under the License is distributed on an "AS IS" BASIS,
  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
  See the License for the specific language governing permissions and
  limitations under the License.
*/

// Package httpclient provides a retrying circuit-breaked http.Client,
// for fetching UTF-8 response bodies realigned to sequence boundaries.
package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/UNO-SOFT/zlog/v2"
	"github.com/hashicorp/go-retryablehttp"
	perrors "github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"
	"github.com/tgulacsi/utf8align/iohlp"
	"github.com/tgulacsi/utf8align/text"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultInterval     = 10 * time.Minute
	DefaultFailureRatio = 0.6
)

// New returns a *retryablehttp.Client, with the default http.Client, DefaultTimeout, DefaultInterval and DefaultFailureRatio.
func New(name string) *retryablehttp.Client {
	return NewWithClient(name, nil, DefaultTimeout, DefaultInterval, DefaultFailureRatio)
}

// NewWithClient returns a *retryablehttp.Client based on the given *http.Client.
// The accompanying circuit breaker is set with the given timeout and interval.
func NewWithClient(name string, cl *http.Client, timeout, interval time.Duration, failureRatio float64) *retryablehttp.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if failureRatio <= 0 {
		failureRatio = DefaultFailureRatio
	}
	rc := retryablehttp.NewClient()
	if cl != nil {
		c := *cl
		rc.HTTPClient = &c
	}
	rc.RetryWaitMin = timeout / 2
	rc.RetryWaitMax = 2 * timeout
	rc.RetryMax = 4
	rc.Logger = nil // see SetLogger
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return true, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	rc.HTTPClient.Transport = NewBreakingTransport(gobreaker.Settings{
		Name:     name,
		Interval: interval,
		Timeout:  timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= failureRatio
		},
	}, rc.HTTPClient.Transport)
	return rc
}

// BreakingTransport shrink-wraps a http.RoundTripper with a circuit breaker.
type BreakingTransport struct {
	http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

var _ http.RoundTripper = BreakingTransport{}

// NewBreakingTransport returns a BreakingTransport around rt (http.DefaultTransport if nil).
//
// 5xx responses count as failures.
func NewBreakingTransport(settings gobreaker.Settings, rt http.RoundTripper) BreakingTransport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return BreakingTransport{
		RoundTripper: rt,
		breaker:      gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

func (btr BreakingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	_, err := btr.breaker.Execute(func() (*http.Response, error) {
		var err error
		if resp, err = btr.RoundTripper.RoundTrip(req); err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServer
		}
		return resp, nil
	})
	if errors.Is(err, errServer) {
		// let retryablehttp see the response
		return resp, nil
	}
	return resp, err
}

// Opened reports whether the breaker is open at the moment.
func (btr BreakingTransport) Opened() bool { return btr.breaker.State() == gobreaker.StateOpen }

var errServer = errors.New("server error")

// GetAligned GETs the URL, and returns its body which reads only whole sequences
// (see text.NewStringReader).
func GetAligned(ctx context.Context, cl *retryablehttp.Client, URL string) (io.ReadCloser, error) {
	body, err := Get(ctx, cl, URL)
	if err != nil {
		return nil, err
	}
	return iohlp.ReadCloser{
		Reader:      text.NewStringReader(body),
		MultiCloser: iohlp.NewMultiCloser(body),
	}, nil
}

// Get GETs the URL, and returns its body as is.
// Responses with status >= 300 are errors.
func Get(ctx context.Context, cl *retryablehttp.Client, URL string) (io.ReadCloser, error) {
	if cl == nil {
		cl = New("utf8align")
	}
	logger := zlog.SFromContext(ctx)
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", URL, nil)
	if err != nil {
		return nil, perrors.Wrap(err, URL)
	}
	start := time.Now()
	resp, err := cl.Do(req)
	if err != nil {
		return nil, perrors.Wrapf(err, "GET %s", URL)
	}
	logger.Debug("GET", "url", URL, "status", resp.Status, "dur", time.Since(start).String(),
		slog.String("contentType", resp.Header.Get("Content-Type")))
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, perrors.Errorf("GET %s: %s", URL, resp.Status)
	}
	return resp.Body, nil
}

// SetLogger sets the logger of the retrying client.
func SetLogger(cl *retryablehttp.Client, logger *slog.Logger) {
	if logger == nil {
		cl.Logger = nil
		return
	}
	cl.Logger = retryablehttp.LeveledLogger(logger)
}
