// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package route

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/rigrun-router/internal/util"
)

// ============================================================================
// SIGNAL WEIGHTS
// ============================================================================

// Fixed signal weights. Each category takes the maximum contributing signal.
const (
	scoreFencedBlock   = 0.95
	scoreCodeStructure = 0.85
	scoreRecordKey     = 0.85

	scoreCodeKeywordSingle = 0.4
	scoreCodeKeywordMulti  = 0.8

	scoreRecordKeywordSingle = 0.55
	scoreRecordKeywordMulti  = 0.70
)

// maxReasonRunes bounds the matched-text fragment embedded in a reason token.
const maxReasonRunes = 48

// ============================================================================
// DEFAULT KEYWORD LISTS
// ============================================================================

// DefaultCodeKeywords returns the built-in code keyword list.
func DefaultCodeKeywords() []string {
	return []string{
		"function", "refactor", "compile", "debug", "implement",
		"algorithm", "regex", "stack trace", "unit test", "variable",
		"method", "syntax",
	}
}

// DefaultRecordKeywords returns the built-in record keyword list.
func DefaultRecordKeywords() []string {
	return []string{
		"order", "invoice", "sku", "customer", "erp",
		"product", "inventory", "shipment", "warehouse", "catalog",
		"lookup", "purchase order",
	}
}

// ============================================================================
// TEXT COERCION AND NORMALIZATION
// ============================================================================

// CoerceText converts an arbitrary input value to text.
// Returns ok=false for nil and non-text-coercible values; callers treat that
// the same as empty input. Never panics for any input shape.
func CoerceText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	case fmt.Stringer:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		// Structured values (maps, slices, structs) carry no usable text.
		return "", false
	}
}

// normalizeForKeywords lowers the text and applies NFKC folding so that
// width and compatibility variants of a keyword still match.
func normalizeForKeywords(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}

// ============================================================================
// FENCED BLOCK DETECTION
// ============================================================================

// hasFencedRun reports whether the text contains a run of three identical
// punctuation marks preceded by start-of-text or a non-alphanumeric boundary
// character. The boundary deliberately does not require a line break: an
// earlier line-start-only rule missed common phrasings such as
// "Here's the code: ```".
//
// Implemented as a single scan because Go's regexp (RE2) has no
// backreferences for the "three identical marks" constraint.
func hasFencedRun(text string) bool {
	const startOfText = rune(-1)
	prev := startOfText // rune immediately before the current run
	last := startOfText
	var runRune rune
	runLen := 0

	for _, r := range text {
		if runLen > 0 && r == runRune {
			runLen++
		} else {
			prev = last
			runRune = r
			runLen = 1
		}
		if runLen == 3 && isFenceMark(runRune) && (prev == startOfText || !isAlnum(prev)) {
			return true
		}
		last = r
	}
	return false
}

// isFenceMark reports whether a rune can delimit a fenced block: any
// punctuation or symbol mark (backtick, tilde, quote, dash, ...).
func isFenceMark(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ============================================================================
// STRUCTURAL AND KEY PATTERNS
// ============================================================================

var (
	// codeStructureRe matches a call/definition shape: an identifier token
	// immediately followed by a parenthesized, possibly empty, argument list.
	// The argument list is bounded so a reason fragment stays small.
	codeStructureRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\([^()]{0,120}\)`)

	// recordKeyRe matches an alphanumeric-prefix/dash/numeric-suffix
	// identifier shape, e.g. "INV-2041" or "sku-88".
	recordKeyRe = regexp.MustCompile(`\b[A-Za-z]{2,4}-[0-9]+\b`)
)

// ============================================================================
// SIGNAL EVALUATION
// ============================================================================

// codeSignals evaluates all code-category signals in order: fenced block,
// structural pattern, keywords. Returns matched signals in evaluation order.
func codeSignals(text, normalized string, keywords []string) []Signal {
	var signals []Signal

	if hasFencedRun(text) {
		signals = append(signals, Signal{
			Kind:   SignalFence,
			Score:  scoreFencedBlock,
			Reason: "heuristic=fenced-code",
		})
	}

	if m := codeStructureRe.FindString(text); m != "" {
		signals = append(signals, Signal{
			Kind:   SignalStructure,
			Score:  scoreCodeStructure,
			Reason: "code-structure=" + util.TruncateRunes(m, maxReasonRunes),
		})
	}

	if s, ok := keywordSignal(normalized, keywords, "code", scoreCodeKeywordSingle, scoreCodeKeywordMulti); ok {
		signals = append(signals, s)
	}

	return signals
}

// recordSignals evaluates all record-category signals in order: key pattern,
// keywords. Returns matched signals in evaluation order.
func recordSignals(text, normalized string, keywords []string) []Signal {
	var signals []Signal

	if m := recordKeyRe.FindString(text); m != "" {
		signals = append(signals, Signal{
			Kind:   SignalKeyPattern,
			Score:  scoreRecordKey,
			Reason: "record:key=" + util.TruncateRunes(m, maxReasonRunes),
		})
	}

	if s, ok := keywordSignal(normalized, keywords, "record", scoreRecordKeywordSingle, scoreRecordKeywordMulti); ok {
		signals = append(signals, s)
	}

	return signals
}

// keywordSignal scores keyword matches for one category. Zero matches
// contribute nothing; one match scores single; two or more distinct matches
// score multi.
func keywordSignal(normalized string, keywords []string, category string, single, multi float64) (Signal, bool) {
	var matched []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if containsKeyword(normalized, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return Signal{}, false
	}

	score := single
	if len(matched) >= 2 {
		score = multi
	}
	return Signal{
		Kind:   SignalKeyword,
		Score:  score,
		Reason: category + ":keywords=" + strings.Join(matched, ","),
	}, true
}

// containsKeyword checks whether the keyword occurs in the text on word
// boundaries, so "order" does not match inside "border".
func containsKeyword(text, keyword string) bool {
	for from := 0; from <= len(text)-len(keyword); {
		idx := strings.Index(text[from:], keyword)
		if idx == -1 {
			return false
		}
		idx += from

		boundedBefore := idx == 0 || !isWordByte(text[idx-1])
		end := idx + len(keyword)
		boundedAfter := end == len(text) || !isWordByte(text[end])
		if boundedBefore && boundedAfter {
			return true
		}
		from = idx + 1
	}
	return false
}

// isWordByte treats ASCII letters, digits, underscore, and all multi-byte
// UTF-8 continuation/lead bytes as word characters, so a boundary never
// falls inside an encoded rune.
func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c >= 0x80
}

// bestSignal returns the highest-scoring signal of the list; ties keep the
// earlier (higher-priority) signal. Returns a zero Signal when empty.
func bestSignal(signals []Signal) Signal {
	var best Signal
	for _, s := range signals {
		if s.Score > best.Score {
			best = s
		}
	}
	return best
}
