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
	"errors"
	"fmt"
	"net/http"
)

// HeaderedError is implemented by errors that carry the response headers
// of the HTTP exchange that produced them.
type HeaderedError interface {
	error
	Headers() http.Header
}

// AsHeaderedError is the errors.As-style accessor for HeaderedError,
// letting callers (and Fault.Headers) avoid a type switch.
func AsHeaderedError(err error, target *HeaderedError) bool {
	return errors.As(err, target)
}

// HTTPStatusError indicates the connect attempt reached the server but got
// back a non-2xx (or 204) status.
type HTTPStatusError struct {
	Status     int
	StatusText string
	headers    http.Header
}

func NewHTTPStatusError(status int, headers http.Header) *HTTPStatusError {
	return &HTTPStatusError{Status: status, StatusText: http.StatusText(status), headers: headers}
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("sse: http status %d: %s", e.Status, e.StatusText)
}

func (e *HTTPStatusError) Headers() http.Header { return e.headers }

// HTTPContentTypeError indicates the response was 2xx but not
// "text/event-stream".
type HTTPContentTypeError struct {
	ContentType string
	headers     http.Header
}

func NewHTTPContentTypeError(contentType string, headers http.Header) *HTTPContentTypeError {
	return &HTTPContentTypeError{ContentType: contentType, headers: headers}
}

func (e *HTTPContentTypeError) Error() string {
	return fmt.Sprintf("sse: unexpected content type %q", e.ContentType)
}

func (e *HTTPContentTypeError) Headers() http.Header { return e.headers }

// ErrClosed is not returned by Client: after Close, Events ends with
// io.EOF and All with ok=false.
var ErrClosed = errors.New("sse: client closed")
