package events

import (
	"testing"
)

func TestBusPublishesToSpecificAndGlobalListeners(t *testing.T) {
	bus := NewBus()

	var received []EventType
	bus.Subscribe(EventTranscriptPartial, func(e *Event) {
		received = append(received, e.Type)
	})
	bus.SubscribeAll(func(e *Event) {
		received = append(received, e.Type)
	})

	bus.Publish(&Event{Type: EventTranscriptPartial, Data: TranscriptData{Text: "hi"}})

	if len(received) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(received))
	}
}

func TestBusDeliveryOrderMatchesPublishOrder(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe(EventTranscriptPartial, func(e *Event) {
		got = append(got, e.Data.(TranscriptData).Text)
	})

	for _, text := range []string{"a", "b", "c"} {
		bus.Publish(&Event{Type: EventTranscriptPartial, Data: TranscriptData{Text: text}})
	}

	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivery order %v, want %v", got, want)
		}
	}
}

func TestBusRecoversFromListenerPanic(t *testing.T) {
	bus := NewBus()

	delivered := false
	bus.Subscribe(EventBackendError, func(*Event) { panic("listener panic") })
	bus.Subscribe(EventBackendError, func(*Event) { delivered = true })

	bus.Publish(&Event{Type: EventBackendError, Data: ErrorData{Message: "boom"}})

	if !delivered {
		t.Error("listener after panicking one was not invoked")
	}
}

func TestBusSkipsUnrelatedTypes(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe(EventSummaryUpdated, func(*Event) { called = true })
	bus.Publish(&Event{Type: EventSessionSaved, Data: SessionData{SessionID: 1}})

	if called {
		t.Error("listener invoked for unrelated event type")
	}
}

func TestBusTimestampFilled(t *testing.T) {
	bus := NewBus()

	var seen *Event
	bus.SubscribeAll(func(e *Event) { seen = e })
	bus.Publish(&Event{Type: EventBackendStatus, Data: StatusData{}})

	if seen == nil || seen.Timestamp.IsZero() {
		t.Error("Publish did not fill zero timestamp")
	}
}
