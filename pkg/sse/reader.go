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
	"strconv"
	"strings"
)

// lineSource yields logical lines, returning io.EOF once exhausted.
type lineSource func() (string, error)

// sseReader consumes lines per the Server-Sent Events field-dispatch rules
// and produces Event/Comment notifications. It tracks lastEventID
// monotonically and surfaces "retry:" values through a side channel the
// client polls between pulls, since a retry directive never itself
// produces a notification.
type sseReader struct {
	lines lineSource

	pendingType string
	pendingData strings.Builder
	haveData    bool
	pendingID   string
	havePendingID bool

	lastEventID string

	retryMillis    int
	haveRetryMillis bool
}

func newSSEReader(lines lineSource, lastEventID string) *sseReader {
	return &sseReader{lines: lines, lastEventID: lastEventID}
}

// LastEventID returns the most recent non-NUL id: value seen so far.
func (r *sseReader) LastEventID() string { return r.lastEventID }

// TakeRetryMillis returns the latest "retry:" value seen since the last
// call, if any, clearing it so it is not reported twice.
func (r *sseReader) TakeRetryMillis() (int, bool) {
	if !r.haveRetryMillis {
		return 0, false
	}
	r.haveRetryMillis = false
	return r.retryMillis, true
}

// Next returns the next Event or Comment, skipping blank lines that don't
// terminate an in-progress event and dropping any unterminated event at
// EOF (this library does not dispatch on implicit EOF, per the reference
// implementation it is ported from).
func (r *sseReader) Next() (Occurrence, error) {
	for {
		line, err := r.lines()
		if err != nil {
			return nil, err
		}

		if line == "" {
			if n, ok := r.dispatch(); ok {
				return n, nil
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			text := line[1:]
			text = strings.TrimPrefix(text, " ")
			return Comment{Text: text}, nil
		}

		field, value := splitField(line)
		switch field {
		case "event":
			r.pendingType = value
		case "data":
			r.pendingData.WriteString(value)
			r.pendingData.WriteByte('\n')
			r.haveData = true
		case "id":
			if strings.ContainsRune(value, 0) {
				continue
			}
			r.pendingID = value
			r.havePendingID = true
			r.lastEventID = value
		case "retry":
			if ms, ok := parseNonNegativeInt(value); ok {
				r.retryMillis = ms
				r.haveRetryMillis = true
			}
		default:
			// unknown field names are ignored
		}
	}
}

// dispatch emits the accumulated event, if any data was seen, and resets
// per-event state. Returns ok=false when there was nothing to dispatch.
func (r *sseReader) dispatch() (Occurrence, bool) {
	if !r.haveData {
		r.resetPending()
		return nil, false
	}
	data := strings.TrimSuffix(r.pendingData.String(), "\n")
	evType := r.pendingType
	if evType == "" {
		evType = "message"
	}
	ev := Event{
		Type:        evType,
		Data:        data,
		ID:          r.pendingID,
		HasID:       r.havePendingID,
		LastEventID: r.lastEventID,
	}
	r.resetPending()
	return ev, true
}

func (r *sseReader) resetPending() {
	r.pendingType = ""
	r.pendingData.Reset()
	r.haveData = false
	r.pendingID = ""
	r.havePendingID = false
}

// splitField splits a field line at its first colon. A line with no colon
// is the field name with an empty value; a leading single space in the
// value is stripped.
func splitField(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx == -1 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	value = strings.TrimPrefix(value, " ")
	return field, value
}

func parseNonNegativeInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
