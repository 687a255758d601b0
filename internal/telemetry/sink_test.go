// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"errors"
	"sync"
	"testing"
)

// ============================================================================
// MEMORY SINK TESTS
// ============================================================================

func TestMemorySink_Concurrent(t *testing.T) {
	sink := &MemorySink{}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				sink.Emit(NewEvent(KindClassification, "span-1"))
			}
		}()
	}
	wg.Wait()

	if got := len(sink.Events()); got != 320 {
		t.Fatalf("captured %d events, want 320", got)
	}
}

func TestMemorySink_EventsIsSnapshot(t *testing.T) {
	sink := &MemorySink{}
	sink.Emit(NewEvent(KindInvocation, "span-1"))

	snap := sink.Events()
	snap[0].SpanID = "mutated"

	if sink.Events()[0].SpanID != "span-1" {
		t.Fatal("snapshot mutation leaked into the sink")
	}
}

// ============================================================================
// ASYNC SINK TESTS
// ============================================================================

// blockingWriter holds every Write until released, so tests can fill the
// sink buffer deterministically.
type blockingWriter struct {
	gate    chan struct{}
	mu      sync.Mutex
	written []Event
}

func newBlockingWriter() *blockingWriter {
	return &blockingWriter{gate: make(chan struct{})}
}

func (w *blockingWriter) Write(ev Event) error {
	<-w.gate
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = append(w.written, ev)
	return nil
}

func (w *blockingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.written)
}

func TestAsyncSink_DropsWhenFull(t *testing.T) {
	w := newBlockingWriter()
	sink := NewAsyncSink(w, 2)

	// The writer goroutine may pull one event off the channel before
	// blocking, so emit enough to guarantee overflow.
	for i := 0; i < 10; i++ {
		sink.Emit(NewEvent(KindInvocation, "span-1"))
	}
	if sink.Dropped() == 0 {
		t.Fatal("full buffer must drop, not block")
	}

	close(w.gate)
	sink.Close()
}

func TestAsyncSink_CloseDrains(t *testing.T) {
	w := newBlockingWriter()
	close(w.gate) // writer never blocks
	sink := NewAsyncSink(w, 16)

	for i := 0; i < 8; i++ {
		sink.Emit(NewEvent(KindTierDecision, "span-1"))
	}
	sink.Close()

	if got := w.count(); got != 8 {
		t.Fatalf("drained %d events, want 8", got)
	}

	// Emit after Close drops silently.
	sink.Emit(NewEvent(KindTierDecision, "span-1"))
	if sink.Dropped() == 0 {
		t.Fatal("emit after close must count as dropped")
	}

	// Close is idempotent.
	sink.Close()
}

// failingWriter always errors; the sink must swallow the failure.
type failingWriter struct{}

func (failingWriter) Write(Event) error { return errors.New("disk full") }

func TestAsyncSink_WriterErrorDoesNotStop(t *testing.T) {
	sink := NewAsyncSink(failingWriter{}, 4)
	for i := 0; i < 4; i++ {
		sink.Emit(NewEvent(KindInvocation, "span-1"))
	}
	// Close returning at all proves the writer loop survived the errors.
	sink.Close()
}

// ============================================================================
// EVENT CONSTRUCTION TESTS
// ============================================================================

func TestNewEvent(t *testing.T) {
	ev := NewEvent(KindClassification, "span-7")
	if ev.ID == "" {
		t.Error("event must get a fresh id")
	}
	if ev.SpanID != "span-7" {
		t.Errorf("span = %q, want span-7", ev.SpanID)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp must be set")
	}

	// An empty span id gets its own identifier.
	solo := NewEvent(KindInvocation, "")
	if solo.SpanID == "" {
		t.Error("empty span id must be replaced")
	}
	if solo.SpanID == solo.ID {
		t.Error("span id and event id must be distinct")
	}
}
