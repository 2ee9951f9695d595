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
	"errors"
	"io"
	"net/http"
	"testing"
	"time"
)

// scriptedConnect plays its attempts in order: each either fails to
// connect with connErr, or feeds body and then ends with readErr (io.EOF
// when unset). Once the script runs out, the last attempt is repeated for
// every further connect.
type scriptedConnect struct {
	attempts []scriptedAttempt
	calls    int
	lastIDs  []string
}

type scriptedAttempt struct {
	body    string
	connErr error // returned instead of a successful Connection
	readErr error // returned by Chunks once body is exhausted, instead of io.EOF
}

func (s *scriptedConnect) Connect(ctx context.Context, lastEventID string) (Connection, error) {
	s.lastIDs = append(s.lastIDs, lastEventID)
	i := s.calls
	if i >= len(s.attempts) {
		i = len(s.attempts) - 1
	}
	s.calls++
	a := s.attempts[i]
	if a.connErr != nil {
		return Connection{}, a.connErr
	}
	body := []byte(a.body)
	sent := false
	chunks := func() ([]byte, error) {
		if sent {
			if a.readErr != nil {
				return nil, a.readErr
			}
			return nil, io.EOF
		}
		sent = true
		return body, nil
	}
	return Connection{
		Chunks:  chunks,
		Close:   func() {},
		Headers: http.Header{"X-Test": []string{"1"}},
	}, nil
}

func TestClientStartThenEventsInOrder(t *testing.T) {
	cs := &scriptedConnect{attempts: []scriptedAttempt{{body: "data: one\n\nevent: ping\ndata: two\n\n"}}}
	c := New(RequestParams{URL: "http://example.invalid"},
		WithConnectStrategy(cs),
		WithErrorStrategy(AlwaysFail()),
	)

	ctx := context.Background()
	occ, ok := c.All(ctx)
	if !ok {
		t.Fatalf("expected a Start occurrence")
	}
	if _, isStart := occ.(Start); !isStart {
		t.Fatalf("first occurrence = %T, want Start", occ)
	}

	ev, err := c.Events(ctx)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if ev.Data != "one" || ev.Type != "message" {
		t.Fatalf("first event = %+v", ev)
	}

	ev, err = c.Events(ctx)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if ev.Data != "two" || ev.Type != "ping" {
		t.Fatalf("second event = %+v", ev)
	}
}

func TestClientLastEventIDCarriesAcrossReconnect(t *testing.T) {
	cs := &scriptedConnect{attempts: []scriptedAttempt{
		{body: "data: one\nid: 7\n\n", readErr: errors.New("dropped")},
		{body: "data: two\n\n"},
	}}
	c := New(RequestParams{URL: "http://example.invalid"},
		WithConnectStrategy(cs),
		WithErrorStrategy(AlwaysContinue()),
		WithRetryDelayStrategy(func(p retryDelayParams) retryDelayResult {
			return retryDelayResult{delaySeconds: 0, next: noJitterState(0, 0)}
		}),
	)

	ctx := context.Background()
	ev, err := c.Events(ctx)
	if err != nil || ev.Data != "one" {
		t.Fatalf("first event = %+v, err = %v", ev, err)
	}
	ev, err = c.Events(ctx)
	if err != nil || ev.Data != "two" {
		t.Fatalf("second event = %+v, err = %v", ev, err)
	}
	if len(cs.lastIDs) != 2 || cs.lastIDs[1] != "7" {
		t.Fatalf("lastIDs = %v, want second attempt to carry id 7", cs.lastIDs)
	}
}

func TestClientEventsEndsSilentlyOnOrderlyEOFWithAlwaysFail(t *testing.T) {
	cs := &scriptedConnect{attempts: []scriptedAttempt{{body: "data: only\n\n"}}}
	c := New(RequestParams{URL: "http://example.invalid"},
		WithConnectStrategy(cs),
		WithErrorStrategy(AlwaysFail()),
	)

	ctx := context.Background()
	if _, err := c.Events(ctx); err != nil {
		t.Fatalf("first Events() error = %v", err)
	}
	_, err := c.Events(ctx)
	if err != io.EOF {
		t.Fatalf("second Events() error = %v, want io.EOF", err)
	}
}

func TestClientEventsRaisesErrorOnFail(t *testing.T) {
	boom := errors.New("connect refused")
	cs := &scriptedConnect{attempts: []scriptedAttempt{{connErr: boom}}}
	c := New(RequestParams{URL: "http://example.invalid"},
		WithConnectStrategy(cs),
		WithErrorStrategy(AlwaysFail()),
	)

	_, err := c.Events(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestClientAllYieldsFaultBeforeEnding(t *testing.T) {
	boom := errors.New("connect refused")
	cs := &scriptedConnect{attempts: []scriptedAttempt{{connErr: boom}}}
	c := New(RequestParams{URL: "http://example.invalid"},
		WithConnectStrategy(cs),
		WithErrorStrategy(AlwaysFail()),
	)

	ctx := context.Background()
	occ, ok := c.All(ctx)
	if !ok {
		t.Fatalf("expected the terminal Fault itself to be delivered")
	}
	fault, isFault := occ.(Fault)
	if !isFault || !errors.Is(fault.Err, boom) {
		t.Fatalf("occurrence = %+v, want Fault wrapping %v", occ, boom)
	}

	_, ok = c.All(ctx)
	if ok {
		t.Fatalf("expected no further occurrences after a terminal Fault")
	}
}

func TestClientCloseIsIdempotent(t *testing.T) {
	cs := &scriptedConnect{attempts: []scriptedAttempt{{body: "data: x\n\n"}}}
	c := New(RequestParams{URL: "http://example.invalid"}, WithConnectStrategy(cs))
	c.Close()
	c.Close()
}

func TestClientNextRetryDelayObservableAfterFault(t *testing.T) {
	cs := &scriptedConnect{attempts: []scriptedAttempt{{connErr: errors.New("boom")}}}
	c := New(RequestParams{URL: "http://example.invalid"},
		WithConnectStrategy(cs),
		WithErrorStrategy(AlwaysFail()),
		WithInitialRetryDelay(3),
	)
	if _, err := c.Events(context.Background()); err == nil {
		t.Fatalf("expected an error")
	}
	if c.NextRetryDelay() <= 0 {
		t.Fatalf("NextRetryDelay() = %v, want > 0", c.NextRetryDelay())
	}
}

func TestClientInterruptForcesReconnectWithoutClosing(t *testing.T) {
	released := make(chan struct{})
	attempt := 0
	cs := &fnConnect{fn: func(ctx context.Context, lastEventID string) (Connection, error) {
		attempt++
		if attempt == 1 {
			chunks := func() ([]byte, error) {
				<-released
				return nil, context.Canceled
			}
			return Connection{Chunks: chunks, Close: func() { close(released) }, Headers: http.Header{}}, nil
		}
		sent := false
		chunks := func() ([]byte, error) {
			if sent {
				return nil, io.EOF
			}
			sent = true
			return []byte("data: two\n\n"), nil
		}
		return Connection{Chunks: chunks, Close: func() {}, Headers: http.Header{}}, nil
	}}
	c := New(RequestParams{URL: "http://example.invalid"},
		WithConnectStrategy(cs),
		WithErrorStrategy(AlwaysContinue()),
		WithRetryDelayStrategy(func(p retryDelayParams) retryDelayResult {
			return retryDelayResult{delaySeconds: 0, next: noJitterState(0, 0)}
		}),
	)

	ctx := context.Background()
	type result struct {
		ev  Event
		err error
	}
	done := make(chan result, 1)
	go func() {
		ev, err := c.Events(ctx) // blocks in the first connection's Chunks() read until Interrupt
		done <- result{ev, err}
	}()
	time.Sleep(20 * time.Millisecond)
	c.Interrupt()

	select {
	case r := <-done:
		if r.err != nil || r.ev.Data != "two" {
			t.Fatalf("Events() = %+v, %v, want data=two, nil error", r.ev, r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Interrupt() did not unblock the pull")
	}
	if attempt < 2 {
		t.Fatalf("attempt = %d, want a reconnect after Interrupt", attempt)
	}
}

type fnConnect struct {
	fn func(ctx context.Context, lastEventID string) (Connection, error)
}

func (f *fnConnect) Connect(ctx context.Context, lastEventID string) (Connection, error) {
	return f.fn(ctx, lastEventID)
}

// TestClientSleepsBeforeRetryAfterConnectFailure guards against DELAYING
// measuring its sleep from a disconnect time that was never recorded: a
// connect failure (as opposed to a mid-stream fault) must still set
// disconnectAt, or the computed delay is measured against the zero time
// and sleepBeforeReconnect returns immediately.
func TestClientSleepsBeforeRetryAfterConnectFailure(t *testing.T) {
	boom := errors.New("connection refused")
	cs := &scriptedConnect{attempts: []scriptedAttempt{{connErr: boom}}}

	var fixedDelay RetryDelayStrategy
	fixedDelay = func(p retryDelayParams) retryDelayResult {
		return retryDelayResult{delaySeconds: 0.05, next: fixedDelay}
	}

	c := New(RequestParams{URL: "http://example.invalid"},
		WithConnectStrategy(cs),
		WithErrorStrategy(AlwaysContinue()),
		WithRetryDelayStrategy(fixedDelay),
	)

	ctx := context.Background()
	if occ, ok := c.All(ctx); !ok {
		t.Fatalf("expected a fault occurrence from the first failed connect")
	} else if _, isFault := occ.(Fault); !isFault {
		t.Fatalf("expected Fault, got %T", occ)
	}

	start := time.Now()
	occ, ok := c.All(ctx)
	elapsed := time.Since(start)
	if !ok {
		t.Fatalf("expected a fault occurrence from the second failed connect")
	}
	if _, isFault := occ.(Fault); !isFault {
		t.Fatalf("expected Fault, got %T", occ)
	}
	if elapsed < 30*time.Millisecond {
		t.Fatalf("DELAYING returned after %v, want it to honor the ~50ms computed delay after a connect failure", elapsed)
	}
}
