// Copyright 2026 Commonwealth Scientific and Industrial Research Organisation (CSIRO) ABN 41 687 119 230
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sse

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	log "go.uber.org/zap"
)

// RequestParams carries everything a ConnectStrategy needs to know to
// connect to a stream: the URL and any caller-supplied headers. It has no
// field for other transport-specific options.
type RequestParams struct {
	URL     string
	Headers http.Header
}

// Connection is what a ConnectStrategy hands back on a successful
// connect: a source of raw byte chunks, a Close that is safe to call from
// any goroutine (including concurrently with a blocked read), and the
// response headers captured at connect time.
type Connection struct {
	Chunks  chunkSource
	Close   func()
	Headers http.Header
}

// ConnectStrategy abstracts the transport. It is consulted once per
// connection attempt; reconnection policy lives entirely in Client.
type ConnectStrategy interface {
	Connect(ctx context.Context, lastEventID string) (Connection, error)
}

const defaultChunkSize = 10000

// maxRedirects bounds the HTTP connect strategy's redirect following, per
// the wire contract in spec.md §6.2.
const maxRedirects = 3

// HTTPConnectStrategy is the reference ConnectStrategy backend: a GET
// request with the SSE-mandated headers, bounded redirect following, and
// status/content-type validation before the body is handed back as a
// stream of chunks.
type HTTPConnectStrategy struct {
	params RequestParams
	client *http.Client
	logger *log.Logger
}

// NewHTTPConnectStrategy builds a ConnectStrategy for params. client is
// borrowed: the strategy never closes it. A nil client gets a private
// *http.Client configured with the redirect cap; a non-nil client is
// shallow-copied and the copy's CheckRedirect enforces the same cap,
// leaving the caller's client unchanged.
func NewHTTPConnectStrategy(params RequestParams, client *http.Client, logger *log.Logger) *HTTPConnectStrategy {
	if logger == nil {
		logger = log.NewNop()
	}
	if client == nil {
		client = &http.Client{}
	} else {
		shared := *client
		client = &shared
	}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > maxRedirects {
			return fmt.Errorf("sse: stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	return &HTTPConnectStrategy{params: params, client: client, logger: logger}
}

func (s *HTTPConnectStrategy) Connect(ctx context.Context, lastEventID string) (Connection, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.params.URL, nil)
	if err != nil {
		cancel()
		return Connection{}, fmt.Errorf("sse: building request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	for k, vs := range s.params.Headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}

	s.logger.Debug("connecting to stream", log.String("url", s.params.URL))
	resp, err := s.client.Do(req)
	if err != nil {
		cancel()
		return Connection{}, fmt.Errorf("sse: connecting: %w", err)
	}

	if resp.StatusCode >= 400 || resp.StatusCode == http.StatusNoContent {
		headers := resp.Header.Clone()
		resp.Body.Close()
		cancel()
		return Connection{}, NewHTTPStatusError(resp.StatusCode, headers)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "text/event-stream") {
		headers := resp.Header.Clone()
		resp.Body.Close()
		cancel()
		return Connection{}, NewHTTPContentTypeError(contentType, headers)
	}

	buf := make([]byte, defaultChunkSize)
	chunks := func() ([]byte, error) {
		n, err := resp.Body.Read(buf)
		if n == 0 {
			return nil, err
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return out, err
	}

	closeOnce := func() {
		cancel()
		resp.Body.Close()
	}

	return Connection{
		Chunks:  chunks,
		Close:   closeOnce,
		Headers: resp.Header.Clone(),
	}, nil
}
