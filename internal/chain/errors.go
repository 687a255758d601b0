// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chain

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jeranaias/rigrun-router/internal/tier"
)

// ============================================================================
// BACKEND ERRORS
// ============================================================================

// BackendError wraps a backend failure with its routing category.
type BackendError struct {
	Category tier.FailureCategory
	Err      error
}

func (e *BackendError) Error() string {
	if e == nil {
		return "backend error"
	}
	if e.Err != nil {
		return fmt.Sprintf("backend error (%s): %v", e.Category, e.Err)
	}
	return fmt.Sprintf("backend error (%s)", e.Category)
}

func (e *BackendError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ContentDefect wraps err as a content-defect failure.
func ContentDefect(err error) error {
	return &BackendError{Category: tier.CategoryContentDefect, Err: err}
}

// ResourceExhausted wraps err as a resource-exhaustion failure.
func ResourceExhausted(err error) error {
	return &BackendError{Category: tier.CategoryResourceExhaustion, Err: err}
}

// Categorize maps a backend error onto a failure category. Timeouts count
// as resource exhaustion; anything untyped is unclassified.
func Categorize(err error) tier.FailureCategory {
	if err == nil {
		return tier.CategoryUnclassified
	}
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return tier.NormalizeCategory(string(backendErr.Category))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return tier.CategoryResourceExhaustion
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return tier.CategoryResourceExhaustion
	}
	return tier.CategoryUnclassified
}
