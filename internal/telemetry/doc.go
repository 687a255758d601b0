// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records routing observability events.
//
// Every classification result and tier decision may be emitted as a
// structured event for later analysis. Emission is fire-and-forget: a Sink
// must never block or fail the routing call that produced the event. The
// async SQLite-backed sink drops events when its buffer is full rather than
// applying backpressure.
//
// # Key Types
//
//   - Event: One routing observability record (span id, kind, outcome)
//   - Sink: Fire-and-forget emission interface
//   - MemorySink: In-memory capture for tests
//   - AsyncSink: Buffered, drop-on-full writer pump
//   - Store: SQLite persistence (modernc.org/sqlite, pure Go driver)
//
// # Usage
//
//	store, err := telemetry.OpenStore(path)
//	if err != nil { ... }
//	sink := telemetry.NewAsyncSink(store, 256)
//	defer sink.Close()
//
//	sink.Emit(telemetry.NewEvent(telemetry.KindClassification, spanID))
package telemetry
