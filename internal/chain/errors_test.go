// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jeranaias/rigrun-router/internal/tier"
)

// timeoutError satisfies net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// ============================================================================
// CATEGORIZATION TESTS
// ============================================================================

func TestCategorize(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect tier.FailureCategory
	}{
		{name: "nil", err: nil, expect: tier.CategoryUnclassified},
		{name: "content_defect", err: ContentDefect(errors.New("malformed output")), expect: tier.CategoryContentDefect},
		{name: "resource_exhausted", err: ResourceExhausted(errors.New("429")), expect: tier.CategoryResourceExhaustion},
		{name: "wrapped_backend_error", err: fmt.Errorf("invoke: %w", ContentDefect(errors.New("bad json"))), expect: tier.CategoryContentDefect},
		{name: "deadline_exceeded", err: context.DeadlineExceeded, expect: tier.CategoryResourceExhaustion},
		{name: "wrapped_deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), expect: tier.CategoryResourceExhaustion},
		{name: "net_timeout", err: timeoutError{}, expect: tier.CategoryResourceExhaustion},
		{name: "plain_error", err: errors.New("something broke"), expect: tier.CategoryUnclassified},
		{name: "bogus_typed_category", err: &BackendError{Category: "meltdown"}, expect: tier.CategoryUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.err); got != tt.expect {
				t.Errorf("Categorize(%v) = %s, want %s", tt.err, got, tt.expect)
			}
		})
	}
}

func TestBackendError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := ContentDefect(inner)
	if !errors.Is(err, inner) {
		t.Fatal("wrapped cause must survive errors.Is")
	}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatal("errors.As must find the BackendError")
	}
	if backendErr.Category != tier.CategoryContentDefect {
		t.Errorf("category = %s, want content_defect", backendErr.Category)
	}
}
