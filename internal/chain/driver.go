// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chain

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/rigrun-router/internal/route"
	"github.com/jeranaias/rigrun-router/internal/telemetry"
	"github.com/jeranaias/rigrun-router/internal/tier"
	"github.com/jeranaias/rigrun-router/internal/util"
)

// ============================================================================
// BACKEND INTERFACE
// ============================================================================

// Backend executes a request on a specific tier. Implementations wrap model
// or retrieval backends; failures should be wrapped with ContentDefect or
// ResourceExhausted so the tier router can act on them.
type Backend interface {
	Invoke(ctx context.Context, tierName string, contentRoute route.Route, text string) (string, error)
}

// ============================================================================
// REQUEST / RESULT
// ============================================================================

// Request is one logical request chain.
type Request struct {
	// Text is the request payload; any value the classifier can coerce.
	Text any
	// ToolContext optionally carries the caller's tool id hint.
	ToolContext map[string]string
	// SpanID ties the chain's telemetry together. Empty gets a fresh id.
	SpanID string
}

// Result is the outcome of a successful chain.
type Result struct {
	// Output is the backend response.
	Output string
	// Route is the classified content route.
	Route route.Route
	// Confidence is the classification confidence.
	Confidence float64
	// Tier is the tier that finally succeeded.
	Tier string
	// Attempts is the number of backend invocations made.
	Attempts int
	// SpanID identifies the chain in telemetry.
	SpanID string
}

// ============================================================================
// DRIVER
// ============================================================================

// DriverOptions configures a Driver.
type DriverOptions struct {
	// Backend executes requests. Required.
	Backend Backend
	// Classifier assigns the content route. Nil uses defaults.
	Classifier *route.Classifier
	// Router decides tier fallback. Nil uses the canonical table.
	Router *tier.Router
	// Sink receives telemetry events. Nil discards them.
	Sink telemetry.Sink
	// EntryTier is where a fresh chain starts. Empty means standard.
	EntryTier string
	// MaxAttempts bounds backend invocations per chain. <= 0 means 4.
	MaxAttempts int
	// RateLimitPerSec paces backend attempts across chains. 0 disables.
	RateLimitPerSec float64
}

// Driver composes classifier, backend, and tier router into the retry loop
// described by the routing design: classify once, invoke, and on failure
// walk tiers until success or a terminal decision.
type Driver struct {
	backend     Backend
	classifier  *route.Classifier
	router      *tier.Router
	sink        telemetry.Sink
	limiter     *rate.Limiter
	entryTier   string
	maxAttempts int
}

// NewDriver creates a chain driver. Options other than Backend fall back to
// sensible defaults.
func NewDriver(opts DriverOptions) *Driver {
	d := &Driver{
		backend:     opts.Backend,
		classifier:  opts.Classifier,
		router:      opts.Router,
		sink:        opts.Sink,
		entryTier:   opts.EntryTier,
		maxAttempts: opts.MaxAttempts,
	}
	if d.classifier == nil {
		d.classifier = route.New(route.DefaultOptions())
	}
	if d.router == nil {
		d.router = tier.NewRouter(tier.DefaultOptions())
	}
	if d.sink == nil {
		d.sink = telemetry.NopSink{}
	}
	if d.entryTier == "" {
		d.entryTier = tier.TierStandard
	}
	if d.maxAttempts <= 0 {
		d.maxAttempts = 4
	}
	if opts.RateLimitPerSec > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitPerSec), 1)
	}
	return d
}

// Execute runs one request chain to completion. It returns the first
// successful backend result, or an error once the tier router reports that
// no further fallback exists (or the attempt bound is hit).
//
// Each chain owns a fresh attempt context; contexts are never shared across
// concurrent chains.
func (d *Driver) Execute(ctx context.Context, req Request) (*Result, error) {
	span := req.SpanID
	if span == "" {
		span = uuid.NewString()
	}

	cls := d.classifier.Classify(route.Request{Text: req.Text, ToolContext: req.ToolContext})
	d.emitClassification(span, cls)

	text, _ := route.CoerceText(req.Text)
	attempt := tier.AttemptContext{}
	current := d.entryTier

	var lastErr error
	for attempts := 1; attempts <= d.maxAttempts; attempts++ {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		out, err := d.backend.Invoke(ctx, current, cls.Route, text)
		elapsed := time.Since(start)
		d.emitInvocation(span, current, err == nil, elapsed)

		if err == nil {
			log.Printf("CHAIN: span=%s route=%s tier=%s attempts=%d ok",
				span, cls.Route, current, attempts)
			return &Result{
				Output:     out,
				Route:      cls.Route,
				Confidence: cls.Confidence,
				Tier:       current,
				Attempts:   attempts,
				SpanID:     span,
			}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		category := Categorize(err)
		ev := tier.FailureEvent{
			Category:    category,
			CurrentTier: current,
			PromoteOnce: true,
			Attempt:     attempt,
		}
		dec := d.router.NextTier(ev)
		d.emitTierDecision(span, current, category, dec)
		attempt = dec.Attempt

		if dec.Terminal {
			log.Printf("CHAIN: span=%s route=%s tier=%s terminal after %d attempts: %v",
				span, cls.Route, current, attempts, util.TruncateRunes(err.Error(), 120))
			return nil, fmt.Errorf("no fallback tier after %q: %w", current, err)
		}
		current = dec.NextTier
	}

	return nil, fmt.Errorf("attempt budget exhausted: %w", lastErr)
}

// ============================================================================
// TELEMETRY EMISSION
// ============================================================================

func (d *Driver) emitClassification(span string, cls route.Result) {
	ev := telemetry.NewEvent(telemetry.KindClassification, span)
	ev.Route = cls.Route.String()
	ev.Confidence = cls.Confidence
	ev.Reasons = cls.Reasons
	d.sink.Emit(ev)
}

func (d *Driver) emitInvocation(span, tierName string, success bool, elapsed time.Duration) {
	ev := telemetry.NewEvent(telemetry.KindInvocation, span)
	ev.CurrentTier = tierName
	ev.Success = success
	ev.DurationMs = elapsed.Milliseconds()
	d.sink.Emit(ev)
}

func (d *Driver) emitTierDecision(span, current string, category tier.FailureCategory, dec tier.Decision) {
	ev := telemetry.NewEvent(telemetry.KindTierDecision, span)
	ev.CurrentTier = current
	ev.NextTier = dec.NextTier
	ev.Terminal = dec.Terminal
	ev.Category = category.String()
	ev.Reasons = dec.Reasons
	d.sink.Emit(ev)
}
