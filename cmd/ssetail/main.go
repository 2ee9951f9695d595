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

// Command ssetail connects to a Server-Sent Events endpoint and prints the
// events it receives, reconnecting transparently on faults. It exists to
// exercise pkg/sse end to end and as a manual test harness; it is not part
// of the library's public surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"
	log "go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nimbusgrid/sse/pkg/sse"
)

var (
	debug        bool
	profileName  string
	headerFlags  []string
	sinceFlag    string
	outputFormat string

	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ssetail",
	Short: "Tail a Server-Sent Events endpoint",
	Long:  "ssetail connects to a text/event-stream endpoint and prints the events it receives, reconnecting automatically on faults.",
}

func main() {
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Set logging level to DEBUG")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Named endpoint profile to use")
	rootCmd.PersistentFlags().StringArrayVar(&headerFlags, "header", nil, "Extra request header, as Key=Value (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Set format for printing events [json, yaml]")

	tailCmd.Flags().StringVar(&sinceFlag, "since", "", "Resume from a Last-Event-ID; a value that parses as a timestamp is only logged, not sent")
	rootCmd.AddCommand(tailCmd)

	profileCmd.AddCommand(profileAddCmd, profileListCmd, profileUseCmd)
	rootCmd.AddCommand(profileCmd)
}

func initLogger() {
	cfg := log.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	cfg.Level = log.NewAtomicLevelAt(level)
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	logger = l
}

var tailCmd = &cobra.Command{
	Use:   "tail <url>",
	Short: "Stream events from an SSE endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runTail,
}

func runTail(cmd *cobra.Command, args []string) error {
	profile, err := findProfile(profileName)
	if err != nil {
		return err
	}

	u, err := resolveURL(args[0], profile)
	if err != nil {
		return err
	}

	headers := http.Header{}
	if profile != nil {
		for k, v := range profile.Headers {
			headers.Set(k, v)
		}
	}
	for _, h := range headerFlags {
		k, v, ok := strings.Cut(h, "=")
		if !ok {
			return fmt.Errorf("invalid --header %q, want Key=Value", h)
		}
		headers.Set(strings.TrimSpace(k), strings.TrimSpace(v))
	}

	var lastEventID string
	if sinceFlag != "" {
		if _, err := dateparse.ParseAny(sinceFlag); err == nil {
			logger.Debug("--since parsed as a timestamp, not a Last-Event-ID", log.String("since", sinceFlag))
		} else {
			lastEventID = sinceFlag
		}
	}

	client := sse.New(
		sse.RequestParams{URL: u.String(), Headers: headers},
		sse.WithLastEventID(lastEventID),
		sse.WithErrorStrategy(sse.AlwaysContinue()),
		sse.WithLogger(logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		client.Close()
		cancel()
	}()

	summary := runSummary{startedAt: time.Now()}
	sawStart := false
	var faultErr error
	for {
		occ, more := client.All(ctx)
		if !more {
			break
		}
		switch v := occ.(type) {
		case sse.Start:
			if sawStart {
				summary.reconnects++
			}
			sawStart = true
			faultErr = nil
		case sse.Event:
			summary.events++
			summary.bytes += int64(len(v.Data))
			summary.lastEventID = v.LastEventID

			line, err := renderEvent(v, outputFormat)
			if err != nil {
				return err
			}
			fmt.Println(line)
		case sse.Fault:
			faultErr = v.Err
		}
	}
	printSummary(summary)
	if ctx.Err() != nil {
		return nil
	}
	return faultErr
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage named endpoint profiles",
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add or update a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		headers := map[string]string{}
		for _, h := range headerFlags {
			k, v, ok := strings.Cut(h, "=")
			if !ok {
				return fmt.Errorf("invalid --header %q, want Key=Value", h)
			}
			headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		return upsertProfile(Profile{Name: args[0], URL: args[1], Headers: headers}, false)
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		printProfiles(cfg)
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActiveProfile(args[0])
	},
}
