// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chain drives one request through classification, backend
// invocation, and tier fallback until success or terminal failure.
//
// The backend itself stays a black box behind the Backend interface; this
// package owns the retry loop the tier router was designed for: it
// categorizes each backend failure, asks the tier router for the next tier,
// and threads the per-chain attempt context between calls.
//
// # Usage
//
//	d := chain.NewDriver(chain.DriverOptions{Backend: backend})
//	res, err := d.Execute(ctx, chain.Request{Text: "Review invoice INV-2041"})
//	if err != nil {
//	    // terminal: every fallback tier was exhausted
//	}
package chain
