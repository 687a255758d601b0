// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package route

import (
	"strings"
)

// ============================================================================
// OPTIONS
// ============================================================================

// DefaultConflictMargin is the score-difference threshold below which the
// two competing top signals are considered a tie.
const DefaultConflictMargin = 0.1

// defaultNarrativeConfidence is the confidence reported when no signal
// matched at all.
const defaultNarrativeConfidence = 0.2

// marginEpsilon absorbs float rounding so that scores differing by exactly
// the margin (e.g. 0.95 vs 0.85 with margin 0.1) take the strict-winner
// path, not the conflict policy.
const marginEpsilon = 1e-9

// Options configures a Classifier. The zero value is not usable directly;
// call DefaultOptions and override fields as needed.
type Options struct {
	// CodeKeywords is the code-category keyword list.
	CodeKeywords []string
	// RecordKeywords is the record-category keyword list.
	RecordKeywords []string
	// ConflictMargin is the tie threshold between the top code and record
	// scores. Values <= 0 fall back to DefaultConflictMargin.
	ConflictMargin float64
	// PreferCodeOnConflict selects code on kind-equal ties (the documented
	// default). Ignored when Policy is set.
	PreferCodeOnConflict bool
	// Policy overrides the built-in conflict tie-break.
	Policy ConflictPolicy
}

// DefaultOptions returns the built-in classifier configuration.
func DefaultOptions() Options {
	return Options{
		CodeKeywords:         DefaultCodeKeywords(),
		RecordKeywords:       DefaultRecordKeywords(),
		ConflictMargin:       DefaultConflictMargin,
		PreferCodeOnConflict: true,
	}
}

// ============================================================================
// CLASSIFIER
// ============================================================================

// Caller-context override token families. A tool id containing any of these
// tokens (substring match, lower-cased) short-circuits signal scoring.
var (
	codeToolTokens   = []string{"code", "refactor", "analyze"}
	recordToolTokens = []string{"erp", "product", "lookup"}
)

// Classifier assigns a semantic content route to request text.
// It is pure and reentrant: no I/O, no shared mutable state, safe for
// concurrent use from any number of goroutines.
type Classifier struct {
	codeKeywords   []string
	recordKeywords []string
	margin         float64
	policy         ConflictPolicy
}

// New creates a classifier from options. Missing keyword lists, a
// non-positive margin, and a nil policy take their defaults.
func New(opts Options) *Classifier {
	c := &Classifier{
		codeKeywords:   opts.CodeKeywords,
		recordKeywords: opts.RecordKeywords,
		margin:         opts.ConflictMargin,
		policy:         opts.Policy,
	}
	if len(c.codeKeywords) == 0 {
		c.codeKeywords = DefaultCodeKeywords()
	}
	if len(c.recordKeywords) == 0 {
		c.recordKeywords = DefaultRecordKeywords()
	}
	if c.margin <= 0 {
		c.margin = DefaultConflictMargin
	}
	if c.policy == nil {
		c.policy = DefaultPolicy{PreferCode: opts.PreferCodeOnConflict}
	}
	return c
}

// Classify assigns a route to the request.
//
// Never errors and never panics for any input shape: empty or whitespace
// text, non-string values, multi-hundred-kilobyte payloads, and
// injection-style text all yield a result, typically RouteNarrative at low
// confidence when nothing matches.
//
// Evaluation is strict priority order: caller-context override first, then
// independent code/record signal scoring, then winner selection against the
// conflict margin.
func (c *Classifier) Classify(req Request) Result {
	// 1. Caller-context override short-circuits all signal evaluation.
	if res, ok := c.toolContextOverride(req.ToolContext); ok {
		return res
	}

	// 2. Coerce input to text. Absent, whitespace-only, and
	// non-text-coercible input all count as "no signal".
	text, ok := CoerceText(req.Text)
	if !ok || strings.TrimSpace(text) == "" {
		return Result{
			Route:      RouteNarrative,
			Confidence: defaultNarrativeConfidence,
			Reasons:    []string{"empty-or-none-input"},
		}
	}

	// 3. Score both categories independently.
	normalized := normalizeForKeywords(text)
	code := codeSignals(text, normalized, c.codeKeywords)
	record := recordSignals(text, normalized, c.recordKeywords)

	bestCode := bestSignal(code)
	bestRecord := bestSignal(record)

	if bestCode.Score <= 0 && bestRecord.Score <= 0 {
		return Result{
			Route:      RouteNarrative,
			Confidence: defaultNarrativeConfidence,
			Reasons:    []string{"default=narrative"},
		}
	}

	// 4. Winner selection: a strict winner outside the margin, the conflict
	// policy inside it.
	diff := bestCode.Score - bestRecord.Score
	switch {
	case diff+marginEpsilon >= c.margin:
		return Result{
			Route:      RouteCode,
			Confidence: clampConfidence(bestCode.Score),
			Reasons:    reasonsOf(code),
		}
	case -diff+marginEpsilon >= c.margin:
		return Result{
			Route:      RouteRecord,
			Confidence: clampConfidence(bestRecord.Score),
			Reasons:    reasonsOf(record),
		}
	}

	winner, policyReason := c.policy.Resolve(bestCode, bestRecord)
	res := Result{Route: winner}
	if winner == RouteRecord {
		res.Confidence = clampConfidence(bestRecord.Score)
		res.Reasons = append(reasonsOf(record), policyReason)
	} else {
		// Unknown policy routes fold to code: the conflict policy only
		// arbitrates between the two competing categories.
		res.Route = RouteCode
		res.Confidence = clampConfidence(bestCode.Score)
		res.Reasons = append(reasonsOf(code), policyReason)
	}
	return res
}

// toolContextOverride applies the caller-context override. Only a non-empty
// tool id matching one of the two fixed token families triggers it; any
// other context shape falls through to signal scoring.
func (c *Classifier) toolContextOverride(ctx map[string]string) (Result, bool) {
	toolID := strings.ToLower(strings.TrimSpace(ctx[ToolContextKeyToolID]))
	if toolID == "" {
		return Result{}, false
	}
	for _, tok := range codeToolTokens {
		if strings.Contains(toolID, tok) {
			return Result{
				Route:      RouteCode,
				Confidence: 1.0,
				Reasons:    []string{"tool-context=code"},
			}, true
		}
	}
	for _, tok := range recordToolTokens {
		if strings.Contains(toolID, tok) {
			return Result{
				Route:      RouteRecord,
				Confidence: 1.0,
				Reasons:    []string{"tool-context=record"},
			}, true
		}
	}
	return Result{}, false
}

// reasonsOf collects the provenance tokens of the matched signals in
// evaluation order.
func reasonsOf(signals []Signal) []string {
	reasons := make([]string, 0, len(signals))
	for _, s := range signals {
		reasons = append(reasons, s.Reason)
	}
	return reasons
}

// clampConfidence bounds a confidence value to [0,1].
func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
