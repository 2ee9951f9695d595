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

import "net/http"

// Event is a single dispatched Server-Sent Event.
type Event struct {
	// Type is the event's "event:" field, defaulting to "message".
	Type string
	// Data is the joined "data:" field(s), newline-separated, with the
	// final trailing newline stripped.
	Data string
	// ID is the literal "id:" value for this event, if any.
	ID string
	// HasID reports whether ID was set by the stream for this event.
	HasID bool
	// LastEventID is the most recent non-NUL "id:" value seen on the
	// stream up to and including this event.
	LastEventID string
}

// Comment is the text of a line beginning with ':'.
type Comment struct {
	Text string
}

// Start marks a successful connection. It is emitted exactly once per
// connection, before any Event or Comment from that connection.
type Start struct {
	Headers http.Header
}

// Fault marks the loss of a connection, or end of stream. Err is nil for
// an orderly EOF.
type Fault struct {
	Err error

	// connHeaders holds the headers captured at connect time, used when
	// Err itself carries no headers (e.g. a transport I/O error mid-stream).
	connHeaders http.Header
}

// Headers returns the response headers associated with the fault: those
// carried by Err when it implements HeaderedError, falling back to the
// headers of the connection that faulted.
func (f Fault) Headers() http.Header {
	var he HeaderedError
	if AsHeaderedError(f.Err, &he) {
		if h := he.Headers(); h != nil {
			return h
		}
	}
	return f.connHeaders
}

// Occurrence is implemented by every value the All view can yield: Start,
// Event, Comment, and Fault.
type Occurrence interface {
	isOccurrence()
}

func (Event) isOccurrence()   {}
func (Comment) isOccurrence() {}
func (Start) isOccurrence()   {}
func (Fault) isOccurrence()   {}
