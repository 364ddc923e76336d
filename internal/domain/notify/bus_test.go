package notify

import (
	"testing"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()

	var got []ObservationEventData
	handler := func(data ObservationEventData) {
		got = append(got, data)
	}

	if err := bus.Subscribe(EventObservationCreated, handler); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	bus.Publish(EventObservationCreated, ObservationEventData{ID: "obs-1"})
	bus.Publish(EventObservationCreated, ObservationEventData{ID: "obs-2"})

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].ID != "obs-1" || got[1].ID != "obs-2" {
		t.Fatalf("unexpected event order: %+v", got)
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := New()

	count := 0
	handler := func(data ObservationEventData) { count++ }

	if err := bus.Subscribe(EventObservationQueued, handler); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	bus.Publish(EventObservationQueued, ObservationEventData{SubmissionID: "a"})

	if err := bus.Unsubscribe(EventObservationQueued, handler); err != nil {
		t.Fatalf("Unsubscribe error: %v", err)
	}
	bus.Publish(EventObservationQueued, ObservationEventData{SubmissionID: "b"})

	if count != 1 {
		t.Fatalf("expected 1 delivery after unsubscribe, got %d", count)
	}
}
