// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package route

import "testing"

// =============================================================================
// DEFAULT POLICY TESTS
// =============================================================================

func TestDefaultPolicy_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		preferCode bool
		code       Signal
		record     Signal
		expect     Route
		reason     string
	}{
		{
			name:       "record_kind_stronger_wins",
			preferCode: true,
			code:       Signal{Kind: SignalKeyword, Score: 0.8},
			record:     Signal{Kind: SignalKeyPattern, Score: 0.85},
			expect:     RouteRecord,
			reason:     "conflict-policy:record-stronger",
		},
		{
			name:       "equal_kinds_prefer_code",
			preferCode: true,
			code:       Signal{Kind: SignalKeyword, Score: 0.8},
			record:     Signal{Kind: SignalKeyword, Score: 0.70},
			expect:     RouteCode,
			reason:     "conflict-policy:prefer-code",
		},
		{
			name:       "code_kind_stronger_without_preference",
			preferCode: false,
			code:       Signal{Kind: SignalStructure, Score: 0.85},
			record:     Signal{Kind: SignalKeyword, Score: 0.70},
			expect:     RouteCode,
			reason:     "conflict-policy:code-stronger",
		},
		{
			name:       "equal_kinds_without_preference",
			preferCode: false,
			code:       Signal{Kind: SignalKeyword, Score: 0.8},
			record:     Signal{Kind: SignalKeyword, Score: 0.70},
			expect:     RouteRecord,
			reason:     "conflict-policy:prefer-record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy{PreferCode: tt.preferCode}
			got, reason := p.Resolve(tt.code, tt.record)
			if got != tt.expect || reason != tt.reason {
				t.Errorf("Resolve = (%s, %s), want (%s, %s)", got, reason, tt.expect, tt.reason)
			}
		})
	}
}

// =============================================================================
// POLICY INJECTION TESTS
// =============================================================================

// alwaysRecordPolicy is a substitute conflict policy used to verify the
// tie-break is pluggable without touching the scoring core.
type alwaysRecordPolicy struct{}

func (alwaysRecordPolicy) Resolve(code, record Signal) (Route, string) {
	return RouteRecord, "conflict-policy:always-record"
}

func TestClassify_CustomConflictPolicy(t *testing.T) {
	opts := DefaultOptions()
	opts.Policy = alwaysRecordPolicy{}
	c := New(opts)

	// structure (0.85) vs key pattern (0.85): inside the margin, so the
	// injected policy decides.
	res := c.Classify(Request{Text: "run fetchRow(x) against ORD-1234"})
	if res.Route != RouteRecord {
		t.Fatalf("route = %s, want record via injected policy (reasons=%v)", res.Route, res.Reasons)
	}
	found := false
	for _, r := range res.Reasons {
		if r == "conflict-policy:always-record" {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons %v missing injected policy reason", res.Reasons)
	}
}

// A policy returning an unexpected route folds to code: the policy only
// arbitrates between the two competing categories.
type narrativePolicy struct{}

func (narrativePolicy) Resolve(code, record Signal) (Route, string) {
	return RouteNarrative, "conflict-policy:bogus"
}

func TestClassify_BogusPolicyFoldsToCode(t *testing.T) {
	opts := DefaultOptions()
	opts.Policy = narrativePolicy{}
	c := New(opts)

	res := c.Classify(Request{Text: "run fetchRow(x) against ORD-1234"})
	if res.Route != RouteCode {
		t.Fatalf("route = %s, want code fold for bogus policy route", res.Route)
	}
}
