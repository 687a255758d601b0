// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tier decides which capability tier a failed request retries on.
//
// Tiers are open strings, not a closed enum: the three canonical tiers
// (baseline < standard < premium) have a fixed transition table, and any
// other configured name falls back to a promote-once policy. The router
// itself is stateless; per-chain escalation state travels in an
// AttemptContext owned by the caller's retry loop.
//
// # Canonical Transitions
//
//	standard + content_defect        -> premium  (escalate)
//	standard + resource_exhaustion   -> baseline (demote to floor)
//	standard + unclassified          -> baseline (demote to floor)
//	premium  + any                   -> baseline (demote to floor)
//	baseline + any                   -> terminal (no further fallback)
//
// Resource and format failures never retry the same cost tier: the safety
// rule demotes to the floor rather than one step.
//
// # Usage
//
//	r := tier.NewRouter(tier.DefaultOptions())
//	ev := tier.NewFailureEvent(tier.CategoryContentDefect, tier.TierStandard)
//	dec := r.NextTier(ev)
//	if dec.Terminal {
//	    // surface the failure to the caller
//	}
//	// retry on dec.NextTier, threading dec.Attempt into the next event
package tier
