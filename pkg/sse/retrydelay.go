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

import "time"

// retryDelayParams is what the client passes to a RetryDelayStrategy on
// every fault.
type retryDelayParams struct {
	baseDelaySeconds float64
	now              time.Time
	lastSuccess      time.Time
	haveLastSuccess  bool
}

type retryDelayResult struct {
	delaySeconds float64
	next         RetryDelayStrategy
}

// RetryDelayStrategy computes the next reconnection delay from the current
// base delay, the current time, and (if available) the time the previous
// connection entered a good state. It returns the delay alongside the
// strategy to use on the following attempt, so state evolves by
// replacement rather than mutation.
type RetryDelayStrategy func(retryDelayParams) retryDelayResult

type defaultRetryDelayState struct {
	maxDelaySeconds float64
	resetInterval   time.Duration
	haveReset       bool
	backoff         backoffStrategy
	jitter          jitterStrategy
	retryCount      int
}

// DefaultRetryDelayStrategy builds the library's default composition of
// Backoff and Jitter: exponential backoff from base, decreased by jitter,
// clamped to maxDelay, with the retry count optionally reset once a
// connection has stayed up for at least resetInterval. Pass
// resetInterval <= 0 to disable the reset.
func DefaultRetryDelayStrategy(maxDelaySeconds float64, resetInterval time.Duration, jitterSeed int64) RetryDelayStrategy {
	if maxDelaySeconds <= 0 {
		maxDelaySeconds = 30
	}
	st := &defaultRetryDelayState{
		maxDelaySeconds: maxDelaySeconds,
		resetInterval:   resetInterval,
		haveReset:       resetInterval > 0,
		backoff:         defaultBackoffStrategy(),
		jitter:          defaultJitterStrategy(0.5, jitterSeed),
	}
	return st.apply
}

func (s *defaultRetryDelayState) apply(p retryDelayParams) retryDelayResult {
	newCount := s.retryCount
	if s.haveReset && p.haveLastSuccess && p.now.Sub(p.lastSuccess) >= s.resetInterval {
		newCount = 0
	}
	newCount++

	bp := backoffParams{baseDelaySeconds: p.baseDelaySeconds, retryCount: newCount}
	br := s.backoff(bp)

	jp := jitterParams{delaySeconds: p.baseDelaySeconds + br.offsetSeconds, backoff: bp}
	jr := s.jitter(jp)

	delay := jr.delaySeconds
	if delay > s.maxDelaySeconds {
		delay = s.maxDelaySeconds
		// Don't let the count keep growing once we're pinned at the max;
		// it would only make a future backoff computation likelier to
		// overflow for no observable benefit.
		newCount--
	}

	next := &defaultRetryDelayState{
		maxDelaySeconds: s.maxDelaySeconds,
		resetInterval:   s.resetInterval,
		haveReset:       s.haveReset,
		backoff:         br.next,
		jitter:          jr.next,
		retryCount:      newCount,
	}
	return retryDelayResult{delaySeconds: delay, next: next.apply}
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func secondsFromDuration(d time.Duration) float64 {
	return d.Seconds()
}
