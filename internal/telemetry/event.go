// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// EVENT KIND
// ============================================================================

// EventKind distinguishes the routing stages that emit events.
type EventKind string

const (
	// KindClassification records a classifier result.
	KindClassification EventKind = "classification"
	// KindTierDecision records a tier transition decision.
	KindTierDecision EventKind = "tier_decision"
	// KindInvocation records one backend attempt outcome.
	KindInvocation EventKind = "invocation"
)

// ============================================================================
// EVENT
// ============================================================================

// Event is one routing observability record. Fields not applicable to the
// event kind stay zero.
type Event struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`
	// SpanID ties all events of one logical request chain together.
	SpanID string `json:"span_id"`
	// Kind is the routing stage that emitted the event.
	Kind EventKind `json:"kind"`
	// Timestamp is when the event was created.
	Timestamp time.Time `json:"timestamp"`

	// Classification fields
	Route      string   `json:"route,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Reasons    []string `json:"reasons,omitempty"`

	// Tier fields
	CurrentTier string `json:"current_tier,omitempty"`
	NextTier    string `json:"next_tier,omitempty"`
	Terminal    bool   `json:"terminal,omitempty"`
	Category    string `json:"category,omitempty"`

	// Outcome fields
	Success    bool  `json:"success,omitempty"`
	DurationMs int64 `json:"duration_ms,omitempty"`
}

// NewEvent creates an event with a fresh ID and the current timestamp.
// An empty spanID gets its own fresh identifier.
func NewEvent(kind EventKind, spanID string) Event {
	if spanID == "" {
		spanID = uuid.NewString()
	}
	return Event{
		ID:        uuid.NewString(),
		SpanID:    spanID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}
