// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tier

import "strings"

// ============================================================================
// OPTIONS
// ============================================================================

// Options configures a Router.
type Options struct {
	// Table maps a known tier to its per-category transition. An empty
	// target string means terminal. Nil falls back to the canonical table.
	Table map[string]map[FailureCategory]string
	// EscalationTarget is where a single generic escalation for an unknown
	// tier lands. Empty falls back to TierPremium.
	EscalationTarget string
}

// DefaultOptions returns the canonical three-tier configuration.
func DefaultOptions() Options {
	return Options{
		Table:            CanonicalTable(),
		EscalationTarget: TierPremium,
	}
}

// CanonicalTable returns the fixed transition table for the three canonical
// tiers. Resource and unclassified failures on standard demote all the way
// to the floor rather than retrying the same cost tier; premium demotes to
// the floor on any failure because no higher tier exists.
func CanonicalTable() map[string]map[FailureCategory]string {
	return map[string]map[FailureCategory]string{
		TierStandard: {
			CategoryContentDefect:      TierPremium,
			CategoryResourceExhaustion: TierBaseline,
			CategoryUnclassified:       TierBaseline,
		},
		TierPremium: {
			CategoryContentDefect:      TierBaseline,
			CategoryResourceExhaustion: TierBaseline,
			CategoryUnclassified:       TierBaseline,
		},
		TierBaseline: {
			CategoryContentDefect:      "",
			CategoryResourceExhaustion: "",
			CategoryUnclassified:       "",
		},
	}
}

// ============================================================================
// ROUTER
// ============================================================================

// Router decides the next tier after a failure. It is stateless, pure, and
// safe for concurrent use; all per-chain state lives in the caller's
// AttemptContext.
type Router struct {
	table            map[string]map[FailureCategory]string
	escalationTarget string
}

// NewRouter creates a tier router from options. A nil table and an empty
// escalation target take their canonical defaults.
func NewRouter(opts Options) *Router {
	r := &Router{
		table:            opts.Table,
		escalationTarget: opts.EscalationTarget,
	}
	if r.table == nil {
		r.table = CanonicalTable()
	}
	if r.escalationTarget == "" {
		r.escalationTarget = TierPremium
	}
	return r
}

// NextTier returns the tier to retry on, or a terminal decision when no
// further fallback exists. Never errors for any input: unknown categories
// fold to unclassified and unknown tier names take the promote-once policy.
//
// PromoteOnce gates only tiers outside the table. The canonical
// standard -> premium escalation on a content defect happens regardless of
// the flag.
func (r *Router) NextTier(ev FailureEvent) Decision {
	category := NormalizeCategory(string(ev.Category))
	current := strings.ToLower(strings.TrimSpace(ev.CurrentTier))

	if row, ok := r.table[current]; ok {
		next := row[category]
		if next == "" {
			return Decision{
				Terminal: true,
				Attempt:  ev.Attempt.clone(false),
			}
		}
		return Decision{
			NextTier: next,
			Attempt:  ev.Attempt.clone(false),
		}
	}

	// Unknown tier: at most one generic escalation per chain.
	if !ev.PromoteOnce {
		return Decision{
			Terminal: true,
			Reasons:  []string{"open-tier:promotion-disabled"},
			Attempt:  ev.Attempt.clone(false),
		}
	}
	if ev.Attempt.EscalationUsed() {
		return Decision{
			Terminal: true,
			Reasons:  []string{"open-tier:promotion-exhausted"},
			Attempt:  ev.Attempt.clone(false),
		}
	}
	return Decision{
		NextTier: r.escalationTarget,
		Reasons:  []string{"open-tier:promote-once=" + r.escalationTarget},
		Attempt:  ev.Attempt.clone(true),
	}
}
