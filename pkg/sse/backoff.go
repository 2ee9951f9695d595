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
	"time"

	"github.com/cenkalti/backoff/v4"
)

// backoffParams mirrors the reference design's BackoffParams: the current
// base delay (which a "retry:" field may have overridden) and how many
// attempts have been made.
type backoffParams struct {
	baseDelaySeconds float64
	retryCount       int
}

// backoffResult is the offset to add to baseDelaySeconds, plus the
// strategy to use on the next call.
type backoffResult struct {
	offsetSeconds float64
	next          backoffStrategy
}

// backoffStrategy is a pure function from backoffParams to backoffResult.
// Implementations must not retain mutable state between calls; any state
// they need to carry forward goes into the returned backoffResult.next.
type backoffStrategy func(backoffParams) backoffResult

// defaultBackoffStrategy doubles the base delay on every attempt:
// delay(n) = base * 2^(n-1). It is grounded on cenkalti/backoff/v4's
// ExponentialBackOff: each call builds a fresh instance seeded with the
// current base delay, replays it forward retryCount steps with
// RandomizationFactor disabled, and returns the resulting interval. This
// stays value-like (nothing escapes the call except the small retry
// count) while still exercising the real library's doubling arithmetic
// rather than reimplementing math.Pow by hand.
func defaultBackoffStrategy() backoffStrategy {
	return func(p backoffParams) backoffResult {
		if p.baseDelaySeconds <= 0 || p.retryCount <= 1 {
			return backoffResult{offsetSeconds: 0, next: defaultBackoffStrategy()}
		}
		eb := backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(durationFromSeconds(p.baseDelaySeconds)),
			backoff.WithMultiplier(2),
			backoff.WithRandomizationFactor(0),
			backoff.WithMaxInterval(24*time.Hour),
			backoff.WithMaxElapsedTime(0),
		)
		eb.Reset()
		var last float64
		for i := 0; i < p.retryCount; i++ {
			d := eb.NextBackOff()
			last = d.Seconds()
		}
		return backoffResult{
			offsetSeconds: last - p.baseDelaySeconds,
			next:          defaultBackoffStrategy(),
		}
	}
}

// noBackoff never adds to the base delay; jitter may still apply.
func noBackoff() backoffStrategy {
	return func(backoffParams) backoffResult {
		return backoffResult{offsetSeconds: 0, next: noBackoff()}
	}
}
