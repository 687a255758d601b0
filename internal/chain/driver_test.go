// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-router/internal/route"
	"github.com/jeranaias/rigrun-router/internal/telemetry"
	"github.com/jeranaias/rigrun-router/internal/tier"
)

// scriptedBackend answers each tier from a fixed script and records the
// order of tiers it was invoked on.
type scriptedBackend struct {
	script map[string]error // tier -> error (nil means success)
	output string
	tiers  []string
	routes []route.Route
}

func (b *scriptedBackend) Invoke(ctx context.Context, tierName string, contentRoute route.Route, text string) (string, error) {
	b.tiers = append(b.tiers, tierName)
	b.routes = append(b.routes, contentRoute)
	if err := b.script[tierName]; err != nil {
		return "", err
	}
	return b.output, nil
}

func eventsOfKind(events []telemetry.Event, kind telemetry.EventKind) []telemetry.Event {
	var out []telemetry.Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// ============================================================================
// HAPPY PATH
// ============================================================================

func TestExecute_FirstAttemptSucceeds(t *testing.T) {
	backend := &scriptedBackend{script: map[string]error{}, output: "done"}
	sink := &telemetry.MemorySink{}
	d := NewDriver(DriverOptions{Backend: backend, Sink: sink})

	res, err := d.Execute(context.Background(), Request{Text: "```go\nfmt.Println()\n```"})
	require.NoError(t, err)
	require.Equal(t, "done", res.Output)
	require.Equal(t, route.RouteCode, res.Route)
	require.Equal(t, tier.TierStandard, res.Tier)
	require.Equal(t, 1, res.Attempts)
	require.NotEmpty(t, res.SpanID)
	require.Equal(t, []string{tier.TierStandard}, backend.tiers)

	events := sink.Events()
	require.Len(t, eventsOfKind(events, telemetry.KindClassification), 1)
	require.Len(t, eventsOfKind(events, telemetry.KindInvocation), 1)
	require.Empty(t, eventsOfKind(events, telemetry.KindTierDecision))
	for _, ev := range events {
		require.Equal(t, res.SpanID, ev.SpanID)
	}
}

// ============================================================================
// FALLBACK WALKS
// ============================================================================

func TestExecute_ContentDefectEscalatesToPremium(t *testing.T) {
	backend := &scriptedBackend{
		script: map[string]error{
			tier.TierStandard: ContentDefect(errors.New("malformed output")),
		},
		output: "premium answer",
	}
	sink := &telemetry.MemorySink{}
	d := NewDriver(DriverOptions{Backend: backend, Sink: sink})

	res, err := d.Execute(context.Background(), Request{Text: "summarize this"})
	require.NoError(t, err)
	require.Equal(t, tier.TierPremium, res.Tier)
	require.Equal(t, 2, res.Attempts)
	require.Equal(t, []string{tier.TierStandard, tier.TierPremium}, backend.tiers)

	decisions := eventsOfKind(sink.Events(), telemetry.KindTierDecision)
	require.Len(t, decisions, 1)
	require.Equal(t, tier.TierStandard, decisions[0].CurrentTier)
	require.Equal(t, tier.TierPremium, decisions[0].NextTier)
	require.Equal(t, "content_defect", decisions[0].Category)
}

func TestExecute_ResourceChainEndsOnBaseline(t *testing.T) {
	backend := &scriptedBackend{
		script: map[string]error{
			tier.TierStandard: ResourceExhausted(errors.New("429")),
		},
		output: "cheap answer",
	}
	d := NewDriver(DriverOptions{Backend: backend})

	res, err := d.Execute(context.Background(), Request{Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, tier.TierBaseline, res.Tier)
	require.Equal(t, []string{tier.TierStandard, tier.TierBaseline}, backend.tiers)
}

func TestExecute_TerminalWhenEveryTierFails(t *testing.T) {
	cause := errors.New("still broken")
	backend := &scriptedBackend{
		script: map[string]error{
			tier.TierStandard: ContentDefect(cause),
			tier.TierPremium:  ContentDefect(cause),
			tier.TierBaseline: ContentDefect(cause),
		},
	}
	sink := &telemetry.MemorySink{}
	d := NewDriver(DriverOptions{Backend: backend, Sink: sink})

	_, err := d.Execute(context.Background(), Request{Text: "hello"})
	require.Error(t, err)
	require.ErrorIs(t, err, cause)
	// standard -> premium -> baseline -> terminal.
	require.Equal(t, []string{tier.TierStandard, tier.TierPremium, tier.TierBaseline}, backend.tiers)

	decisions := eventsOfKind(sink.Events(), telemetry.KindTierDecision)
	require.Len(t, decisions, 3)
	require.True(t, decisions[2].Terminal)
}

func TestExecute_AttemptBudget(t *testing.T) {
	// A table that loops standard <-> premium would retry forever without
	// the budget.
	table := tier.CanonicalTable()
	table[tier.TierStandard][tier.CategoryContentDefect] = tier.TierPremium
	table[tier.TierPremium][tier.CategoryContentDefect] = tier.TierStandard
	router := tier.NewRouter(tier.Options{Table: table, EscalationTarget: tier.TierPremium})

	backend := &scriptedBackend{
		script: map[string]error{
			tier.TierStandard: ContentDefect(errors.New("bad")),
			tier.TierPremium:  ContentDefect(errors.New("bad")),
		},
	}
	d := NewDriver(DriverOptions{Backend: backend, Router: router, MaxAttempts: 3})

	_, err := d.Execute(context.Background(), Request{Text: "hello"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "attempt budget exhausted")
	require.Len(t, backend.tiers, 3)
}

// ============================================================================
// CLASSIFICATION WIRING
// ============================================================================

func TestExecute_ClassifiesOncePerChain(t *testing.T) {
	backend := &scriptedBackend{
		script: map[string]error{
			tier.TierStandard: ResourceExhausted(errors.New("busy")),
		},
		output: "ok",
	}
	sink := &telemetry.MemorySink{}
	d := NewDriver(DriverOptions{Backend: backend, Sink: sink})

	_, err := d.Execute(context.Background(), Request{
		Text:        "look up the invoice",
		ToolContext: map[string]string{route.ToolContextKeyToolID: "erp"},
	})
	require.NoError(t, err)

	cls := eventsOfKind(sink.Events(), telemetry.KindClassification)
	require.Len(t, cls, 1, "route is classified once, not per attempt")
	require.Equal(t, "record", cls[0].Route)
	// Every attempt sees the same route.
	for _, r := range backend.routes {
		require.Equal(t, route.RouteRecord, r)
	}
}

func TestExecute_CallerSpanIDPropagates(t *testing.T) {
	backend := &scriptedBackend{script: map[string]error{}, output: "ok"}
	sink := &telemetry.MemorySink{}
	d := NewDriver(DriverOptions{Backend: backend, Sink: sink})

	res, err := d.Execute(context.Background(), Request{Text: "hi", SpanID: "span-fixed"})
	require.NoError(t, err)
	require.Equal(t, "span-fixed", res.SpanID)
	for _, ev := range sink.Events() {
		require.Equal(t, "span-fixed", ev.SpanID)
	}
}

// ============================================================================
// CANCELLATION
// ============================================================================

func TestExecute_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := &scriptedBackend{
		script: map[string]error{
			tier.TierStandard: ResourceExhausted(errors.New("busy")),
		},
		output: "ok",
	}
	d := NewDriver(DriverOptions{Backend: backend})

	cancel()
	_, err := d.Execute(ctx, Request{Text: "hi"})
	require.ErrorIs(t, err, context.Canceled)
}
