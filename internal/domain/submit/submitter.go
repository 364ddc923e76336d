// Package submit implements the immediate submission path: attempt
// synchronous delivery at capture time, fall back to the durable queue
// on transient failure.
package submit

import (
	"context"
	"log/slog"

	"naturelog-go/internal/domain/capture"
	"naturelog-go/internal/domain/geo"
	"naturelog-go/internal/domain/notify"
	"naturelog-go/internal/domain/transport"
	"naturelog-go/internal/domain/uploadqueue"
)

// Outcome is the per-capture terminal state reported to the caller.
// There is no queued-then-failed state: a queued submission is retried
// on every future flush until delivered or permanently rejected.
type Outcome int

const (
	// OutcomeConfirmed means the server acknowledged the submission.
	OutcomeConfirmed Outcome = iota
	// OutcomeQueued means delivery is deferred, not failed.
	OutcomeQueued
)

// Result reports what happened to one capture.
type Result struct {
	Outcome       Outcome
	ObservationID string
	SubmissionID  string
}

// Submitter orchestrates geolocation, transport and queue fallback for
// a single device user.
type Submitter struct {
	geo       geo.Provider
	transport transport.Transport
	queue     *uploadqueue.Queue
	bus       *notify.Bus
	log       *slog.Logger
	userID    string
}

// New wires a submitter.
func New(geoProvider geo.Provider, tr transport.Transport, queue *uploadqueue.Queue, bus *notify.Bus, log *slog.Logger) *Submitter {
	return &Submitter{
		geo:       geoProvider,
		transport: tr,
		queue:     queue,
		bus:       bus,
		log:       log,
	}
}

// WithUserID stamps submissions with the given account id.
func (s *Submitter) WithUserID(userID string) *Submitter {
	s.userID = userID
	return s
}

// Submit runs the capture through Submitting into Confirmed or Queued.
// Only a permanent server rejection is returned as an error; transient
// failures are absorbed into the queue.
func (s *Submitter) Submit(ctx context.Context, media capture.MediaHandle, legend string) (Result, error) {
	lat, lng, placeName := s.resolveLocation(ctx)

	var legendPtr *string
	if legend != "" {
		legendPtr = &legend
	}

	sub := uploadqueue.NewSubmission(media.Path, lat, lng, placeName, legendPtr, s.userID)

	res, err := s.transport.Submit(ctx, sub.ToPayload())
	if err == nil {
		s.log.Info("observation submitted", "id", res.ID, "filename", sub.Filename)
		if s.bus != nil {
			s.bus.Publish(notify.EventObservationCreated, notify.ObservationEventData{
				ID:       res.ID,
				UserID:   s.userID,
				ImageURL: res.ImageURL,
				Lat:      lat,
				Lng:      lng,
			})
		}
		return Result{Outcome: OutcomeConfirmed, ObservationID: res.ID}, nil
	}

	if !transport.IsTemporary(err) {
		s.log.Error("observation rejected by server", "filename", sub.Filename, "error", err)
		if s.bus != nil {
			s.bus.Publish(notify.EventObservationRejected, notify.ObservationEventData{
				SubmissionID: sub.ID,
				UserID:       s.userID,
				Reason:       err.Error(),
			})
		}
		return Result{}, err
	}

	// deferred, not failed: the queue replays it on the next flush
	s.log.Warn("submission deferred, queueing for retry", "id", sub.ID, "error", err)
	s.queue.Enqueue(ctx, sub)
	return Result{Outcome: OutcomeQueued, SubmissionID: sub.ID}, nil
}

// resolveLocation acquires coordinates and a place name, best effort.
// Denial, timeout or geocoder failure all degrade to absent values.
func (s *Submitter) resolveLocation(ctx context.Context) (lat, lng *float64, placeName *string) {
	if s.geo == nil {
		return nil, nil, nil
	}

	granted, err := s.geo.RequestPermission(ctx)
	if err != nil || !granted {
		return nil, nil, nil
	}

	pos, err := s.geo.CurrentPosition(ctx)
	if err != nil {
		return nil, nil, nil
	}
	lat, lng = &pos.Latitude, &pos.Longitude

	name, err := s.geo.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
	if err == nil && name != "" {
		placeName = &name
	} else if err != nil {
		s.log.Debug("reverse geocode failed", "error", err)
	}
	return lat, lng, placeName
}
