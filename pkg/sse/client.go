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
	"sync"
	"time"

	log "go.uber.org/zap"
)

// clientState names the position of the state machine described in
// spec.md §4.6: IDLE -> CONNECTING -> STREAMING -> DELAYING -> CONNECTING,
// or ENDED once the error strategy decides to Fail or the client is
// closed. FAULTED has no state of its own: onFault runs it in place, after
// a failed CONNECTING attempt as well as after a mid-stream fault.
type clientState int

const (
	stateIdle clientState = iota
	stateConnecting
	stateStreaming
	stateDelaying
	stateEnded
)

// Client is a long-lived Server-Sent Events consumer. A single Client may
// span many underlying connections; callers observe one ordered stream via
// Events or All. Client is not safe for concurrent use by multiple
// goroutines pulling from the same view, but Close and Interrupt may be
// called from any goroutine while a pull is in flight.
type Client struct {
	params  RequestParams
	connect ConnectStrategy
	logger  *log.Logger

	baseDelaySeconds         float64
	retryDelayResetThreshold time.Duration
	baseErrorStrategy        ErrorStrategy
	currentErrorStrategy     ErrorStrategy
	retryDelay               RetryDelayStrategy

	lastEventID string

	mu          sync.Mutex
	closed      bool
	current     *Connection
	interruptCh chan struct{}

	state        clientState
	pendingStart bool
	reader       *sseReader
	connectedAt  time.Time
	haveConnAt   bool
	disconnectAt time.Time

	nextRetryDelaySeconds float64
	startedAny            bool
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithInitialRetryDelay sets the base delay, in seconds, used before the
// first retry delay computation. Default 1.0.
func WithInitialRetryDelay(seconds float64) Option {
	return func(c *Client) { c.baseDelaySeconds = seconds }
}

// WithRetryDelayStrategy overrides the default exponential-backoff +
// jitter composition.
func WithRetryDelayStrategy(s RetryDelayStrategy) Option {
	return func(c *Client) { c.retryDelay = s }
}

// WithRetryDelayResetThreshold sets how long a connection must stay up
// before the backoff progression resets. Default 60s.
func WithRetryDelayResetThreshold(d time.Duration) Option {
	return func(c *Client) { c.retryDelayResetThreshold = d }
}

// WithErrorStrategy overrides the default AlwaysFail policy.
func WithErrorStrategy(s ErrorStrategy) Option {
	return func(c *Client) { c.baseErrorStrategy = s }
}

// WithLastEventID seeds the Last-Event-ID sent on the first connection
// attempt, letting a caller resume a stream across process restarts.
func WithLastEventID(id string) Option {
	return func(c *Client) { c.lastEventID = id }
}

// WithConnectStrategy overrides the default HTTP connect strategy. Useful
// for tests and for non-HTTP transports.
func WithConnectStrategy(s ConnectStrategy) Option {
	return func(c *Client) { c.connect = s }
}

// WithLogger attaches a zap logger; advisory only, never consulted for
// error-handling decisions.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a Client for params. By default it connects over HTTP, fails
// (does not retry) on every fault, and uses the default backoff+jitter
// retry delay strategy with a 1 second base delay and 30 second cap.
func New(params RequestParams, opts ...Option) *Client {
	c := &Client{
		params:                   params,
		baseDelaySeconds:         1.0,
		retryDelayResetThreshold: 60 * time.Second,
		baseErrorStrategy:        AlwaysFail(),
		logger:                   log.NewNop(),
		interruptCh:              make(chan struct{}, 1),
		state:                    stateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retryDelay == nil {
		c.retryDelay = DefaultRetryDelayStrategy(30, c.retryDelayResetThreshold, time.Now().UnixNano())
	}
	if c.connect == nil {
		c.connect = NewHTTPConnectStrategy(params, nil, c.logger)
	}
	c.currentErrorStrategy = c.baseErrorStrategy
	return c
}

// Start performs the first connection attempt synchronously, returning any
// error raised by the connect strategy. Calling Start is optional: Events
// and All connect lazily on first pull if Start was not called.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.startedAny {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.doConnect(ctx)
}

// Close is idempotent: the first call tears down the current connection
// and wakes any blocked sleep; later calls are no-ops.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cur := c.current
	c.mu.Unlock()

	if cur != nil {
		cur.Close()
	}
	select {
	case c.interruptCh <- struct{}{}:
	default:
	}
}

// Interrupt forcibly closes the current connection without closing the
// Client: reconnection proceeds exactly as if the connection had failed
// naturally. It is a no-op if there is no live connection.
func (c *Client) Interrupt() {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur != nil {
		cur.Close()
	}
}

// NextRetryDelay reports the most recently computed reconnection delay,
// observable after a fault.
func (c *Client) NextRetryDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return durationFromSeconds(c.nextRetryDelaySeconds)
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// doConnect runs the CONNECTING state once: consult the connect strategy,
// and on success set up STREAMING state with a fresh reader.
func (c *Client) doConnect(ctx context.Context) error {
	c.mu.Lock()
	c.startedAny = true
	c.state = stateConnecting
	lastEventID := c.lastEventID
	c.mu.Unlock()

	conn, err := c.connect.Connect(ctx, lastEventID)
	if err != nil {
		return err
	}
	// Close or Interrupt may already have closed the connection when
	// teardownConnection runs, so the closer is made to run only once.
	var closeOnce sync.Once
	closeConn := conn.Close
	conn.Close = func() { closeOnce.Do(closeConn) }

	c.mu.Lock()
	c.current = &conn
	c.connectedAt = time.Now()
	c.haveConnAt = true
	c.currentErrorStrategy = c.baseErrorStrategy
	c.pendingStart = true
	c.reader = newSSEReader(newLineReader(conn.Chunks).Next, c.lastEventID)
	c.state = stateStreaming
	c.mu.Unlock()
	return nil
}

// teardownConnection closes the current connection, if any.
func (c *Client) teardownConnection() {
	c.mu.Lock()
	cur := c.current
	c.current = nil
	c.mu.Unlock()
	if cur != nil {
		cur.Close()
	}
}

// computeNextDelay asks the current RetryDelayStrategy for the delay
// before the next reconnection attempt, supplying the time the most
// recent connection entered a good state (if any) so a strategy built
// with DefaultRetryDelayStrategy can reset its backoff progression once a
// connection has stayed up long enough.
func (c *Client) computeNextDelay() {
	c.mu.Lock()
	p := retryDelayParams{baseDelaySeconds: c.baseDelaySeconds, now: time.Now()}
	if c.haveConnAt {
		p.lastSuccess = c.connectedAt
		p.haveLastSuccess = true
	}
	strategy := c.retryDelay
	c.mu.Unlock()

	res := strategy(p)

	c.mu.Lock()
	c.nextRetryDelaySeconds = res.delaySeconds
	c.retryDelay = res.next
	c.mu.Unlock()
}

// sleepBeforeReconnect implements the DELAYING state: sleep for whatever
// remains of the computed delay after accounting for time already spent
// since disconnecting, cancellable by Close or ctx.
func (c *Client) sleepBeforeReconnect(ctx context.Context) {
	c.mu.Lock()
	remaining := durationFromSeconds(c.nextRetryDelaySeconds) - time.Since(c.disconnectAt)
	c.mu.Unlock()
	if remaining <= 0 {
		return
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-c.interruptCh:
	case <-ctx.Done():
	}
}

// onFault runs the shared FAULTED logic for both a failed connect attempt
// and a mid-stream fault: record the fault time so DELAYING's sleep is
// measured from here regardless of which path faulted, compute the next
// delay, consult the current ErrorStrategy, and either end the session
// (Fail) or arrange for the caller to sleep and retry (Continue). The
// returned Fault always carries connHeaders as a fallback for errors that
// don't implement HeaderedError.
func (c *Client) onFault(err error, connHeaders http.Header) (Fault, bool) {
	if c.isClosed() {
		c.mu.Lock()
		c.state = stateEnded
		c.mu.Unlock()
		return Fault{}, false
	}

	c.mu.Lock()
	c.disconnectAt = time.Now()
	c.mu.Unlock()

	c.computeNextDelay()
	c.mu.Lock()
	strategy := c.currentErrorStrategy
	c.mu.Unlock()
	outcome, next := strategy(err)
	c.mu.Lock()
	c.currentErrorStrategy = next
	c.mu.Unlock()

	fault := Fault{Err: err, connHeaders: connHeaders}

	if outcome == Fail {
		c.mu.Lock()
		c.state = stateEnded
		c.mu.Unlock()
		return fault, true
	}

	c.mu.Lock()
	c.state = stateDelaying
	c.mu.Unlock()
	return fault, true
}

// nextOccurrence advances the shared state machine by exactly one step,
// returning the next value to emit and whether the session has more to
// give after it. Both All and Events are built on top of this.
func (c *Client) nextOccurrence(ctx context.Context) (Occurrence, bool) {
	for {
		if c.isClosed() {
			c.mu.Lock()
			c.state = stateEnded
			c.mu.Unlock()
		}

		c.mu.Lock()
		state := c.state
		c.mu.Unlock()

		switch state {
		case stateEnded:
			return nil, false

		case stateIdle, stateConnecting:
			if err := c.doConnect(ctx); err != nil {
				fault, ok := c.onFault(err, nil)
				if !ok {
					return nil, false
				}
				return fault, true
			}
			continue

		case stateDelaying:
			c.sleepBeforeReconnect(ctx)
			if c.isClosed() {
				c.mu.Lock()
				c.state = stateEnded
				c.mu.Unlock()
				return nil, false
			}
			c.mu.Lock()
			c.state = stateConnecting
			c.mu.Unlock()
			continue

		case stateStreaming:
			c.mu.Lock()
			pendingStart := c.pendingStart
			c.pendingStart = false
			headers := c.current.Headers
			c.mu.Unlock()
			if pendingStart {
				return Start{Headers: headers}, true
			}

			occ, err := c.reader.Next()
			if retryMs, ok := c.reader.TakeRetryMillis(); ok {
				c.mu.Lock()
				c.baseDelaySeconds = float64(retryMs) / 1000.0
				c.mu.Unlock()
			}
			if err == nil {
				if ev, ok := occ.(Event); ok {
					c.mu.Lock()
					c.lastEventID = ev.LastEventID
					c.mu.Unlock()
				}
				return occ, true
			}

			var streamErr error
			if !errors.Is(err, io.EOF) {
				streamErr = err
			}
			c.mu.Lock()
			c.lastEventID = c.reader.LastEventID()
			connHeaders := c.current.Headers
			closing := c.closed
			c.mu.Unlock()
			c.teardownConnection()

			if closing {
				c.mu.Lock()
				c.state = stateEnded
				c.mu.Unlock()
				return nil, false
			}

			fault, ok := c.onFault(streamErr, connHeaders)
			if !ok {
				return nil, false
			}
			return fault, true
		}
	}
}

// All returns the next occurrence on the stream: Start, Event, Comment, or
// Fault. It connects lazily on first call and transparently reconnects
// after a non-terminal Fault. It ends by returning ok=false once the
// client has been closed or the error strategy has decided to Fail; the
// terminal Fault itself is still delivered first.
func (c *Client) All(ctx context.Context) (Occurrence, bool) {
	return c.nextOccurrence(ctx)
}

// Events returns the next Event on the stream, skipping Start and Comment
// occurrences and absorbing non-terminal Faults transparently. It returns
// io.EOF once the session ends without error (an orderly close, or a Fail
// decision over a nil fault), and any other error once the session ends
// because the error strategy decided to Fail over a non-nil fault.
func (c *Client) Events(ctx context.Context) (Event, error) {
	for {
		occ, more := c.nextOccurrence(ctx)
		if !more {
			return Event{}, io.EOF
		}
		switch v := occ.(type) {
		case Event:
			return v, nil
		case Fault:
			c.mu.Lock()
			ended := c.state == stateEnded
			c.mu.Unlock()
			if !ended {
				// Continue decision: absorbed, reconnection already queued.
				continue
			}
			if v.Err != nil {
				return Event{}, v.Err
			}
			return Event{}, io.EOF
		default:
			// Start, Comment: not part of the Events view.
			continue
		}
	}
}
