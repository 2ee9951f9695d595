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

import "math/rand"

// jitterParams carries the backoff-computed delay and the backoff
// parameters that produced it, in case a custom jitter strategy wants to
// vary behavior by retry count.
type jitterParams struct {
	delaySeconds float64
	backoff      backoffParams
}

type jitterResult struct {
	delaySeconds float64
	next         jitterStrategy
}

// jitterStrategy is a pure function from jitterParams to jitterResult.
type jitterStrategy func(jitterParams) jitterResult

// jitterState is the value-like state a defaultJitterStrategy closure
// carries forward: the fixed seed and how many draws have been consumed so
// far. Apply reconstructs the generator and fast-forwards to the same
// point rather than sharing a *rand.Rand across calls, so the strategy
// stays referentially transparent.
type jitterState struct {
	ratio float64
	seed  int64
	draws int
}

// defaultJitterStrategy decreases the delay by a pseudo-random proportion
// in [0, ratio). seed pins the sequence: the same seed always gives the
// same sequence, and 0 is an ordinary seed. New supplies a time-derived
// seed for the default strategy it builds.
func defaultJitterStrategy(ratio float64, seed int64) jitterStrategy {
	return (&jitterState{ratio: ratio, seed: seed}).apply
}

func (s *jitterState) apply(p jitterParams) jitterResult {
	rng := rand.New(rand.NewSource(s.seed))
	for i := 0; i < s.draws; i++ {
		rng.Float64()
	}
	u := rng.Float64()

	next := &jitterState{ratio: s.ratio, seed: s.seed, draws: s.draws + 1}
	return jitterResult{
		delaySeconds: p.delaySeconds - u*s.ratio*p.delaySeconds,
		next:         next.apply,
	}
}

// noJitter returns the computed delay unchanged.
func noJitter() jitterStrategy {
	return func(p jitterParams) jitterResult {
		return jitterResult{delaySeconds: p.delaySeconds, next: noJitter()}
	}
}
