package onboard

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16, DropIfFull: true}, sink)
	defer d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: "test_event", Token: "tok", Success: true})

	select {
	case event := <-sink.Events():
		if event.EventType != "test_event" || event.Token != "tok" || !event.Success {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("event never reached the sink")
	}
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	var delivered atomic.Uint64
	sink := sinkFunc(func(context.Context, AuditEvent) { delivered.Add(1) })

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64, DropIfFull: true}, sink)
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "burst"})
	}
	d.Close()

	if got := delivered.Load(); got != 10 {
		t.Fatalf("expected 10 delivered after drain, got %d", got)
	}
}

func TestDispatcherDropsWhenSaturated(t *testing.T) {
	block := make(chan struct{})
	sink := sinkFunc(func(context.Context, AuditEvent) { <-block })

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event occupies the sink, one fills the buffer; the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "flood"})
	}

	deadline := time.After(time.Second)
	for d.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected dropped events under saturation")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(block)
	d.Close()
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled audit must produce a nil dispatcher")
	}

	// All operations are nil-safe.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports zero drops")
	}
}

func TestEngineEmitsCreateAudit(t *testing.T) {
	sink := NewChannelSink(16)
	fx := newTestEngineWithSink(t, sink)

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	res, err := fx.engine.CreateOnboarding(ctx, validIntake())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventOnboardingCreate {
			t.Fatalf("expected create event, got %q", event.EventType)
		}
		if event.Token != res.Token || !event.Success {
			t.Fatalf("unexpected event %+v", event)
		}
		if event.IP != "203.0.113.7" {
			t.Fatalf("expected caller ip, got %q", event.IP)
		}
	case <-time.After(time.Second):
		t.Fatal("no audit event observed")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{EventType: "test_event", Success: true})

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("sink output is not json: %v", err)
	}
	if decoded.EventType != "test_event" || !decoded.Success {
		t.Fatalf("unexpected decoded event %+v", decoded)
	}
}

type sinkFunc func(ctx context.Context, event AuditEvent)

func (f sinkFunc) Emit(ctx context.Context, event AuditEvent) { f(ctx, event) }
