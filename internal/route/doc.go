// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package route classifies incoming request text into a semantic content
// route before the request is handed to a retriever or enrichment chain.
//
// Routes: code -> source-aware handling, record -> structured record lookup,
// narrative -> plain prose handling (the default when nothing matches).
//
// # Key Types
//
//   - Classifier: Configured classifier; Classify is pure and never errors
//   - Request: Input text (any value, coerced) plus optional tool context
//   - Result: Route, confidence in [0,1], and an ordered provenance trail
//   - ConflictPolicy: Pluggable tie-break applied inside the conflict margin
//
// # Evaluation Order
//
// A caller-context override (tool id hint) short-circuits everything else.
// Otherwise code and record signals are scored independently and the winner
// is selected against the configured conflict margin; ties inside the margin
// go to the conflict policy.
//
// # Usage
//
//	c := route.New(route.DefaultOptions())
//	res := c.Classify(route.Request{Text: "Review invoice INV-2041"})
//	switch res.Route {
//	case route.RouteCode:
//	    // source-aware retrieval
//	case route.RouteRecord:
//	    // record lookup
//	case route.RouteNarrative:
//	    // prose handling
//	}
//
// Classify accepts any input shape, including empty strings, non-string
// values, multi-hundred-kilobyte payloads, and injection-style text. All of
// them classify; none of them error.
package route
