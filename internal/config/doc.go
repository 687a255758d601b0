// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the content router.
//
// Supports both TOML and JSON formats with built-in defaults, environment
// variable overrides, and load-time validation. Configuration is loaded once
// at process start; the resulting snapshot is immutable for the process
// lifetime. A malformed margin or an empty keyword table is a load error,
// never a classify-time error.
//
// Configuration file locations (in order of precedence):
//   - explicit path passed to Load
//   - ~/.rigrun/router.toml
//   - ~/.rigrun/router.json
//   - Built-in defaults
//
// Environment overrides (applied after file loading):
//   - RIGRUN_ROUTER_CONFLICT_MARGIN
//   - RIGRUN_ROUTER_PREFER_CODE
//   - RIGRUN_ROUTER_ESCALATION_TARGET
//   - RIGRUN_ROUTER_ENTRY_TIER
//   - RIGRUN_ROUTER_TELEMETRY_DB
package config
