// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package route

// ============================================================================
// CONFLICT POLICY
// ============================================================================

// ConflictPolicy resolves a tie between the top code and record signals when
// their scores fall inside the conflict margin. Implementations must be pure:
// the same pair of signals always resolves the same way.
//
// The returned reason token is appended to the result's provenance trail.
type ConflictPolicy interface {
	Resolve(code, record Signal) (Route, string)
}

// DefaultPolicy is the documented tie-break: a qualitatively stronger record
// signal (for example a key-pattern match against a single keyword match)
// wins outright; otherwise the PreferCode flag decides.
type DefaultPolicy struct {
	// PreferCode resolves kind-equal (or code-stronger) ties to code.
	PreferCode bool
}

// Resolve applies the default tie-break.
func (p DefaultPolicy) Resolve(code, record Signal) (Route, string) {
	if record.Kind > code.Kind {
		return RouteRecord, "conflict-policy:record-stronger"
	}
	if p.PreferCode {
		return RouteCode, "conflict-policy:prefer-code"
	}
	if code.Kind > record.Kind {
		return RouteCode, "conflict-policy:code-stronger"
	}
	return RouteRecord, "conflict-policy:prefer-record"
}
