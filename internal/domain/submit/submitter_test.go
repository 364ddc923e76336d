package submit

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"naturelog-go/internal/domain/capture"
	"naturelog-go/internal/domain/geo"
	"naturelog-go/internal/domain/notify"
	"naturelog-go/internal/domain/transport"
	"naturelog-go/internal/domain/uploadqueue"
	"naturelog-go/internal/domain/uploadqueue/store"
)

type scriptedTransport struct {
	calls []transport.Payload
	err   error
}

func (f *scriptedTransport) Submit(_ context.Context, payload transport.Payload) (transport.Result, error) {
	f.calls = append(f.calls, payload)
	if f.err != nil {
		return transport.Result{}, f.err
	}
	return transport.Result{ID: "obs-1", ImageURL: "/uploads/obs-1.jpg"}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSubmitter(tr transport.Transport, geoProvider geo.Provider) (*Submitter, *uploadqueue.Queue, *notify.Bus) {
	bus := notify.New()
	queue := uploadqueue.New(store.NewMemory(), "pending_test", tr, bus, testLogger())
	return New(geoProvider, tr, queue, bus, testLogger()).WithUserID("user-1"), queue, bus
}

var testMedia = capture.MediaHandle{Path: "/captures/heron.jpg", Filename: "heron.jpg"}

func TestSubmitConfirmed(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{}
	provider := geo.NewStatic(true, geo.Position{Latitude: 46.52, Longitude: 6.63}, "Lakeside")
	s, queue, bus := newSubmitter(tr, provider)

	var created []notify.ObservationEventData
	if err := bus.Subscribe(notify.EventObservationCreated, func(data notify.ObservationEventData) {
		created = append(created, data)
	}); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	result, err := s.Submit(ctx, testMedia, "Heron at dawn")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if result.Outcome != OutcomeConfirmed || result.ObservationID != "obs-1" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if len(tr.calls) != 1 {
		t.Fatalf("expected 1 transport call, got %d", len(tr.calls))
	}
	payload := tr.calls[0]
	if payload.Lat == nil || *payload.Lat != 46.52 {
		t.Errorf("expected coordinates in payload, got %+v", payload.Lat)
	}
	if payload.LocationName == nil || *payload.LocationName != "Lakeside" {
		t.Errorf("expected place name in payload, got %+v", payload.LocationName)
	}
	if payload.Legend == nil || *payload.Legend != "Heron at dawn" {
		t.Errorf("expected legend in payload, got %+v", payload.Legend)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 created event, got %d", len(created))
	}
	if got := queue.Snapshot(ctx); len(got) != 0 {
		t.Fatalf("nothing should be queued on success, got %d", len(got))
	}
}

func TestSubmitLocationDenialProceedsWithoutCoordinates(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{}
	s, _, _ := newSubmitter(tr, geo.NewStatic(false, geo.Position{}, ""))

	if _, err := s.Submit(ctx, testMedia, ""); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	payload := tr.calls[0]
	if payload.Lat != nil || payload.Lng != nil || payload.LocationName != nil {
		t.Fatalf("expected absent location data, got %+v", payload)
	}
	if payload.Legend != nil {
		t.Fatalf("empty legend must be absent, got %+v", payload.Legend)
	}
}

func TestSubmitTransientFailureQueues(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{err: &transport.Error{Message: "network is unreachable"}}
	s, queue, bus := newSubmitter(tr, geo.NewStatic(false, geo.Position{}, ""))

	var queued []notify.ObservationEventData
	if err := bus.Subscribe(notify.EventObservationQueued, func(data notify.ObservationEventData) {
		queued = append(queued, data)
	}); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	result, err := s.Submit(ctx, testMedia, "offline capture")
	if err != nil {
		t.Fatalf("a deferred submission must not surface an error, got %v", err)
	}
	if result.Outcome != OutcomeQueued || result.SubmissionID == "" {
		t.Fatalf("unexpected result: %+v", result)
	}

	subs := queue.Snapshot(ctx)
	if len(subs) != 1 || subs[0].ID != result.SubmissionID {
		t.Fatalf("expected queued submission %s, got %v", result.SubmissionID, subs)
	}
	if subs[0].Filename != "heron.jpg" {
		t.Errorf("unexpected filename %q", subs[0].Filename)
	}
	if len(queued) != 1 {
		t.Fatalf("expected 1 queued event, got %d", len(queued))
	}
}

func TestSubmitPermanentRejectionIsTerminal(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{err: &transport.Error{Status: 400, Message: "missing photo"}}
	s, queue, bus := newSubmitter(tr, geo.NewStatic(false, geo.Position{}, ""))

	var rejected []notify.ObservationEventData
	if err := bus.Subscribe(notify.EventObservationRejected, func(data notify.ObservationEventData) {
		rejected = append(rejected, data)
	}); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	if _, err := s.Submit(ctx, testMedia, ""); err == nil {
		t.Fatal("expected terminal error for permanent rejection")
	}
	if got := queue.Snapshot(ctx); len(got) != 0 {
		t.Fatalf("permanent rejection must not be queued, got %d", len(got))
	}
	if len(rejected) != 1 {
		t.Fatalf("expected 1 rejected event, got %d", len(rejected))
	}
	if rejected[0].UserID != "user-1" || rejected[0].Reason == "" {
		t.Fatalf("unexpected rejected event: %+v", rejected[0])
	}
}
