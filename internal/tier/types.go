// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tier

import "fmt"

// ============================================================================
// CANONICAL TIERS
// ============================================================================

// Canonical tier names, ordered by capability ascending.
// The tier identifier is an open string: arbitrary configured names are
// accepted without validation, these three just have fixed transitions.
const (
	// TierBaseline is the cheapest tier and the demotion floor.
	TierBaseline = "baseline"
	// TierStandard is the entry tier for every fresh request chain.
	TierStandard = "standard"
	// TierPremium is the highest-capability tier.
	TierPremium = "premium"
)

// ============================================================================
// FAILURE CATEGORY
// ============================================================================

// FailureCategory is the typed failure signal driving a tier transition.
type FailureCategory string

const (
	// CategoryContentDefect marks output that was produced but unusable
	// (malformed, truncated, off-contract).
	CategoryContentDefect FailureCategory = "content_defect"
	// CategoryResourceExhaustion marks quota, rate, timeout, or capacity
	// failures.
	CategoryResourceExhaustion FailureCategory = "resource_exhaustion"
	// CategoryUnclassified is every failure that fits neither bucket.
	CategoryUnclassified FailureCategory = "unclassified"
)

// String returns the string representation of the category.
func (c FailureCategory) String() string {
	return string(c)
}

// NormalizeCategory folds an arbitrary category string onto the three known
// values. Unrecognized categories are treated as unclassified, never as an
// error.
func NormalizeCategory(s string) FailureCategory {
	switch FailureCategory(s) {
	case CategoryContentDefect:
		return CategoryContentDefect
	case CategoryResourceExhaustion:
		return CategoryResourceExhaustion
	default:
		return CategoryUnclassified
	}
}

// ============================================================================
// ATTEMPT CONTEXT
// ============================================================================

// attemptKeyEscalationUsed marks that the chain has consumed its single
// generic escalation.
const attemptKeyEscalationUsed = "escalation_used"

// AttemptContext carries per-chain retry state. The caller's retry loop owns
// one context per logical request chain and threads it through successive
// NextTier calls; the router only reads it and returns an updated copy.
// A context must never be shared across concurrent chains.
type AttemptContext map[string]any

// EscalationUsed reports whether the chain has already consumed its single
// generic escalation.
func (a AttemptContext) EscalationUsed() bool {
	v, ok := a[attemptKeyEscalationUsed].(bool)
	return ok && v
}

// clone returns a copy with the escalation flag optionally set. The input
// map is never mutated.
func (a AttemptContext) clone(markEscalated bool) AttemptContext {
	out := make(AttemptContext, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	if markEscalated {
		out[attemptKeyEscalationUsed] = true
	}
	return out
}

// ============================================================================
// FAILURE EVENT / DECISION
// ============================================================================

// FailureEvent is the input to a tier transition decision.
type FailureEvent struct {
	// Category is the typed failure signal. Unknown values fold to
	// CategoryUnclassified.
	Category FailureCategory
	// CurrentTier is the tier that produced the failure. Open string.
	CurrentTier string
	// PromoteOnce allows one generic escalation for tiers outside the
	// canonical table. It never affects the canonical table itself.
	PromoteOnce bool
	// Attempt is the caller-owned per-chain retry state.
	Attempt AttemptContext
}

// NewFailureEvent creates a failure event with the documented defaults:
// promotion enabled and a fresh attempt context.
func NewFailureEvent(category FailureCategory, currentTier string) FailureEvent {
	return FailureEvent{
		Category:    category,
		CurrentTier: currentTier,
		PromoteOnce: true,
		Attempt:     AttemptContext{},
	}
}

// Decision is the output of a tier transition decision.
type Decision struct {
	// NextTier is the tier to retry on. Empty when Terminal.
	NextTier string `json:"next_tier,omitempty"`
	// Terminal means no further fallback exists; the caller must surface
	// the failure.
	Terminal bool `json:"terminal,omitempty"`
	// Reasons is the provenance trail. May be empty for known-tier table
	// hits.
	Reasons []string `json:"reasons,omitempty"`
	// Attempt is the updated copy of the chain's attempt context. The
	// caller threads it into the next FailureEvent of the same chain.
	Attempt AttemptContext `json:"-"`
}

// String returns a human-readable summary of the decision.
func (d Decision) String() string {
	if d.Terminal {
		return "terminal (no further fallback)"
	}
	return fmt.Sprintf("next=%s", d.NextTier)
}
