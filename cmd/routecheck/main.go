// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command routecheck classifies request text and prints the routing
// decision as JSON. It is a thin consumer of the router library, useful for
// inspecting how a given input would route.
//
// Usage:
//
//	routecheck [-config path] [-tool-id id] [-events n] "request text"
//	echo "request text" | routecheck
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/rigrun-router/internal/config"
	"github.com/jeranaias/rigrun-router/internal/route"
	"github.com/jeranaias/rigrun-router/internal/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file path (TOML or JSON)")
		toolID     = flag.String("tool-id", "", "caller tool id hint")
		events     = flag.Int("events", 0, "print the N most recent telemetry events and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "routecheck: %v\n", err)
		os.Exit(1)
	}

	if *events > 0 {
		if err := printRecentEvents(cfg, *events); err != nil {
			fmt.Fprintf(os.Stderr, "routecheck: %v\n", err)
			os.Exit(1)
		}
		return
	}

	text := strings.Join(flag.Args(), " ")
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "routecheck: read stdin: %v\n", err)
			os.Exit(1)
		}
		text = string(data)
	}

	req := route.Request{Text: text}
	if *toolID != "" {
		req.ToolContext = map[string]string{route.ToolContextKeyToolID: *toolID}
	}

	classifier := route.New(cfg.RouteOptions())
	result := classifier.Classify(req)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "routecheck: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func printRecentEvents(cfg config.Config, limit int) error {
	store, err := telemetry.OpenStore(cfg.Telemetry.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	evs, err := store.Recent(limit)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(evs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
