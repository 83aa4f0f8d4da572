package logging

import (
	"context"
	"testing"
	"time"
)

type recordingSink struct {
	events chan Event
}

func newRecordingSink() *recordingSink {
	return &recordingSink{events: make(chan Event, 64)}
}

func (s *recordingSink) Write(event Event) error {
	s.events <- event
	return nil
}

func (s *recordingSink) Close(context.Context) error { return nil }

func (s *recordingSink) next(t *testing.T) Event {
	t.Helper()
	select {
	case event := <-s.events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatalf("no event delivered")
		return Event{}
	}
}

func TestRouterDeliversToSink(t *testing.T) {
	sink := newRecordingSink()
	clock := ClockFunc(func() time.Time { return time.UnixMilli(1_700_000_000_000) })
	router, err := NewRouter(clock, DefaultConfig(), []NamedSink{{Name: "test", Sink: sink}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer router.Close(context.Background())

	router.Publish(context.Background(), Event{
		Type:     "canvas.pixel_placed",
		Actor:    EntityRef{ID: "client-1", Kind: EntityKindClient},
		Severity: SeverityInfo,
	})

	event := sink.next(t)
	if event.Type != "canvas.pixel_placed" {
		t.Fatalf("unexpected event type %q", event.Type)
	}
	if event.Time.IsZero() {
		t.Fatalf("expected the router to stamp the event time")
	}
	if event.Actor.ID != "client-1" {
		t.Fatalf("unexpected actor %+v", event.Actor)
	}
}

func TestRouterFiltersBySeverity(t *testing.T) {
	sink := newRecordingSink()
	cfg := DefaultConfig()
	cfg.MinimumSeverity = SeverityWarn
	router, err := NewRouter(nil, cfg, []NamedSink{{Name: "test", Sink: sink}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer router.Close(context.Background())

	router.Publish(context.Background(), Event{Type: "low", Severity: SeverityDebug})
	router.Publish(context.Background(), Event{Type: "high", Severity: SeverityError})

	event := sink.next(t)
	if event.Type != "high" {
		t.Fatalf("expected only the error event, got %q", event.Type)
	}
}

func TestRouterAppliesConfiguredFields(t *testing.T) {
	sink := newRecordingSink()
	cfg := DefaultConfig()
	cfg.Fields = map[string]any{"service": "openplace"}
	router, err := NewRouter(nil, cfg, []NamedSink{{Name: "test", Sink: sink}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer router.Close(context.Background())

	router.Publish(context.Background(), Event{Type: "anything", Severity: SeverityInfo})

	event := sink.next(t)
	if event.Extra["service"] != "openplace" {
		t.Fatalf("expected configured field, got %v", event.Extra)
	}
}

func TestRouterIgnoresAfterClose(t *testing.T) {
	sink := newRecordingSink()
	router, err := NewRouter(nil, DefaultConfig(), []NamedSink{{Name: "test", Sink: sink}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router.Publish(context.Background(), Event{Type: "late", Severity: SeverityInfo})

	select {
	case event := <-sink.events:
		t.Fatalf("unexpected delivery after close: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWithFieldsDoesNotOverrideEventExtra(t *testing.T) {
	var captured Event
	base := PublisherFunc(func(_ context.Context, event Event) { captured = event })
	pub := WithFields(base, map[string]any{"service": "openplace", "region": "eu"})

	pub.Publish(context.Background(), Event{
		Type:  "anything",
		Extra: map[string]any{"service": "override"},
	})

	if captured.Extra["service"] != "override" {
		t.Fatalf("event-level extra must win, got %v", captured.Extra["service"])
	}
	if captured.Extra["region"] != "eu" {
		t.Fatalf("expected configured field, got %v", captured.Extra)
	}
}
