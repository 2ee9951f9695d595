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

// Package sse implements a Server-Sent Events (text/event-stream) client
// with transparent, policy-driven reconnection.
//
// The client exposes two lazy views of the stream, Events and All, backed
// by the same underlying state machine: connect, stream lines into SSE
// occurrences, and on fault consult an ErrorStrategy and a
// RetryDelayStrategy before reconnecting with Last-Event-ID continuity.
package sse
