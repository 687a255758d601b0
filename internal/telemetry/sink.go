// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"log"
	"sync"
)

// ============================================================================
// SINK INTERFACE
// ============================================================================

// Sink receives routing events. Emit must never block and must never fail
// the routing call that produced the event; implementations drop rather
// than stall.
type Sink interface {
	Emit(Event)
}

// NopSink discards every event.
type NopSink struct{}

// Emit discards the event.
func (NopSink) Emit(Event) {}

// ============================================================================
// MEMORY SINK
// ============================================================================

// MemorySink captures events in memory. Intended for tests and the demo
// binary; safe for concurrent use.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends the event.
func (m *MemorySink) Emit(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a snapshot of all captured events.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// ============================================================================
// ASYNC SINK
// ============================================================================

// Writer persists a single event. Store implements it; tests substitute
// their own.
type Writer interface {
	Write(Event) error
}

// AsyncSink pumps events to a Writer through a buffered channel. Emit is
// non-blocking: when the buffer is full the event is dropped and counted.
type AsyncSink struct {
	ch      chan Event
	done    chan struct{}
	writer  Writer
	mu      sync.Mutex
	dropped uint64
	closed  bool
}

// NewAsyncSink creates an async sink with the given buffer size and starts
// its writer goroutine. A size <= 0 defaults to 256.
func NewAsyncSink(w Writer, size int) *AsyncSink {
	if size <= 0 {
		size = 256
	}
	s := &AsyncSink{
		ch:     make(chan Event, size),
		done:   make(chan struct{}),
		writer: w,
	}
	go s.run()
	return s
}

// Emit queues the event without blocking; drops it when the buffer is full
// or the sink is closed.
func (s *AsyncSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.dropped++
		return
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped++
	}
}

// Dropped returns how many events were discarded because the buffer was
// full or the sink was closed.
func (s *AsyncSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close drains the buffer and stops the writer goroutine. Events emitted
// after Close are dropped.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	<-s.done
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for ev := range s.ch {
		if err := s.writer.Write(ev); err != nil {
			// Telemetry is best-effort; a write failure never propagates.
			log.Printf("telemetry: dropping event %s: %v", ev.ID, err)
		}
	}
}
