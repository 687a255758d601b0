// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package route

import "fmt"

// ============================================================================
// ROUTE TYPE
// ============================================================================

// Route is the semantic content category assigned to a request.
type Route string

const (
	// RouteCode routes to source-aware retrieval and enrichment.
	RouteCode Route = "code"
	// RouteRecord routes to structured record (ERP-style) lookup.
	RouteRecord Route = "record"
	// RouteNarrative is the prose default when no stronger signal applies.
	RouteNarrative Route = "narrative"
)

// String returns the string representation of the route.
func (r Route) String() string {
	return string(r)
}

// Valid returns true if the route is one of the three known values.
func (r Route) Valid() bool {
	switch r {
	case RouteCode, RouteRecord, RouteNarrative:
		return true
	default:
		return false
	}
}

// ============================================================================
// SIGNAL TYPE
// ============================================================================

// SignalKind ranks the qualitative strength of a matched signal.
// Higher kinds outrank lower kinds when the conflict policy compares the
// two competing top signals.
type SignalKind int

const (
	// SignalNone means no signal matched for the category.
	SignalNone SignalKind = iota
	// SignalKeyword is a fixed-list keyword match.
	SignalKeyword
	// SignalStructure is a call/definition shape match (code only).
	SignalStructure
	// SignalKeyPattern is a record-key identifier match (record only).
	SignalKeyPattern
	// SignalFence is a fenced-block delimiter match (code only).
	SignalFence
)

// String returns the human-readable name of the signal kind.
func (k SignalKind) String() string {
	switch k {
	case SignalNone:
		return "None"
	case SignalKeyword:
		return "Keyword"
	case SignalStructure:
		return "Structure"
	case SignalKeyPattern:
		return "KeyPattern"
	case SignalFence:
		return "Fence"
	default:
		return fmt.Sprintf("SignalKind(%d)", k)
	}
}

// Signal is one scored pattern match contributing toward a route category.
type Signal struct {
	// Kind is the qualitative strength class of the match.
	Kind SignalKind
	// Score is the fixed confidence weight contributed by the match.
	Score float64
	// Reason is the provenance token recorded for the match.
	Reason string
}

// ============================================================================
// REQUEST / RESULT
// ============================================================================

// ToolContextKeyToolID is the tool context key carrying the caller's tool
// identifier hint.
const ToolContextKeyToolID = "tool_id"

// Request is the immutable classification input.
//
// Text may be any value: strings are used as-is, byte slices and numbers are
// coerced, and everything else is treated as absent input. ToolContext is an
// optional key-value map; a non-empty ToolContextKeyToolID entry triggers
// the caller-context override.
type Request struct {
	Text        any
	ToolContext map[string]string
}

// Result is the classification output.
//
// Invariants: Route is always one of the three known values, Confidence is
// always within [0,1], and Reasons is never empty. Reasons preserves
// evaluation order.
type Result struct {
	Route      Route    `json:"route"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// String returns a human-readable summary of the classification result.
func (r Result) String() string {
	return fmt.Sprintf("%s (confidence=%.2f, reasons=%d)", r.Route, r.Confidence, len(r.Reasons))
}
