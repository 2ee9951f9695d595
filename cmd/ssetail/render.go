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

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	bytesize "github.com/inhies/go-bytesize"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/nimbusgrid/sse/pkg/sse"
)

// eventDoc is the serializable shape printed for --output json|yaml; it
// flattens sse.Event into plain fields so the encoders don't need to know
// about the package's internal representation.
type eventDoc struct {
	Type        string `json:"type" yaml:"type"`
	Data        string `json:"data" yaml:"data"`
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	LastEventID string `json:"lastEventId,omitempty" yaml:"lastEventId,omitempty"`
}

func renderEvent(ev sse.Event, output string) (string, error) {
	switch output {
	case "json":
		b, err := json.Marshal(toDoc(ev))
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "yaml":
		b, err := yaml.Marshal(toDoc(ev))
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		if ev.Type != "" && ev.Type != "message" {
			return fmt.Sprintf("[%s] %s", ev.Type, ev.Data), nil
		}
		return ev.Data, nil
	}
}

func toDoc(ev sse.Event) eventDoc {
	return eventDoc{Type: ev.Type, Data: ev.Data, ID: ev.ID, LastEventID: ev.LastEventID}
}

// runSummary accumulates across a tail session for the final report.
type runSummary struct {
	startedAt   time.Time
	events      int
	bytes       int64
	reconnects  int
	lastEventID string
}

func printSummary(s runSummary) {
	elapsed := time.Since(s.startedAt)
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateColumns = false
	t.AppendRows([]table.Row{
		{"Duration", humanize.RelTime(s.startedAt, time.Now(), "", "")},
		{"Elapsed", elapsed.Round(time.Second)},
		{"Events", s.events},
		{"Bytes received", fmt.Sprintf("%s (%s)", humanize.Bytes(uint64(s.bytes)), bytesize.New(float64(s.bytes)))},
		{"Reconnects", s.reconnects},
		{"Last-Event-ID", orDash(s.lastEventID)},
	})
	t.Render()
}

func printProfiles(cfg *Config) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "Name", "URL"})
	for _, p := range cfg.Profiles {
		mark := ""
		if p.Name == cfg.ActiveProfile {
			mark = "*"
		}
		t.AppendRow(table.Row{mark, p.Name, p.URL})
	}
	t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
