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
	"math"
	"testing"
)

func TestDefaultBackoffDoubling(t *testing.T) {
	strategy := defaultBackoffStrategy()

	r2 := strategy(backoffParams{baseDelaySeconds: 1, retryCount: 2})
	want2 := 1*math.Pow(2, 1) - 1
	if math.Abs(r2.offsetSeconds-want2) > 0.01 {
		t.Fatalf("retryCount=2 offset = %v, want ~%v", r2.offsetSeconds, want2)
	}

	r3 := strategy(backoffParams{baseDelaySeconds: 1, retryCount: 3})
	want3 := 1*math.Pow(2, 2) - 1
	if math.Abs(r3.offsetSeconds-want3) > 0.01 {
		t.Fatalf("retryCount=3 offset = %v, want ~%v", r3.offsetSeconds, want3)
	}
}

func TestDefaultBackoffFirstAttemptIsZero(t *testing.T) {
	strategy := defaultBackoffStrategy()
	r := strategy(backoffParams{baseDelaySeconds: 1, retryCount: 1})
	if r.offsetSeconds != 0 {
		t.Fatalf("offset = %v, want 0", r.offsetSeconds)
	}
}

func TestNoBackoffAlwaysZero(t *testing.T) {
	strategy := noBackoff()
	for n := 1; n <= 5; n++ {
		r := strategy(backoffParams{baseDelaySeconds: 3, retryCount: n})
		if r.offsetSeconds != 0 {
			t.Fatalf("retryCount=%d offset = %v, want 0", n, r.offsetSeconds)
		}
	}
}
