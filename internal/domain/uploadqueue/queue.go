package uploadqueue

import (
	"context"
	"log/slog"

	"naturelog-go/internal/domain/notify"
	"naturelog-go/internal/domain/transport"
	"naturelog-go/internal/domain/uploadqueue/store"
)

// Queue is the durable, ordered set of not-yet-confirmed submissions.
// It owns enqueue, flush and removal-on-success. Callers sequence
// concurrent mutation: flush runs at well-defined triggers (startup,
// reconnect, explicit request) and enqueue only from the capture
// failure path. Removal by id is idempotent, so overlapping flushes at
// worst submit a record twice (at-least-once delivery).
type Queue struct {
	store      store.Store
	key        string
	transport  transport.Transport
	bus        *notify.Bus
	log        *slog.Logger
	maxEntries int
}

// New creates a queue persisting under the given well-known key.
func New(st store.Store, key string, tr transport.Transport, bus *notify.Bus, log *slog.Logger) *Queue {
	if key == "" {
		key = "pending_uploads"
	}
	return &Queue{
		store:     st,
		key:       key,
		transport: tr,
		bus:       bus,
		log:       log,
	}
}

// WithMaxEntries bounds the snapshot size; the oldest entry is dropped
// when the bound is exceeded. Zero means unbounded.
func (q *Queue) WithMaxEntries(n int) *Queue {
	if n >= 0 {
		q.maxEntries = n
	}
	return q
}

// Snapshot returns the current ordered queue contents.
func (q *Queue) Snapshot(ctx context.Context) []PendingSubmission {
	subs, err := q.snapshot(ctx)
	if err != nil {
		q.log.Warn("failed to read pending upload snapshot", "error", err)
		return nil
	}
	return subs
}

func (q *Queue) snapshot(ctx context.Context) ([]PendingSubmission, error) {
	raw, ok, err := q.store.Get(ctx, q.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return DecodeSnapshot(raw, q.log), nil
}

// Enqueue appends the submission to the end of the persisted snapshot.
// A storage failure is logged and swallowed: the immediate attempt has
// already failed, so without a durable copy the item is simply lost.
// A failed read must not turn into a rewrite: overwriting the snapshot
// with only the new item would destroy every persisted submission, so
// only the new item is dropped.
func (q *Queue) Enqueue(ctx context.Context, sub PendingSubmission) {
	subs, err := q.snapshot(ctx)
	if err != nil {
		q.log.Warn("failed to read pending upload snapshot, dropping new submission",
			"id", sub.ID, "error", err)
		return
	}
	subs = append(subs, sub)

	if q.maxEntries > 0 && len(subs) > q.maxEntries {
		dropped := subs[0]
		subs = subs[1:]
		q.log.Warn("pending upload queue full, dropping oldest entry",
			"dropped_id", dropped.ID, "max_entries", q.maxEntries)
	}

	if err := q.write(ctx, subs); err != nil {
		q.log.Warn("failed to persist pending submission, it will be lost",
			"id", sub.ID, "error", err)
		return
	}

	q.log.Info("submission queued for retry", "id", sub.ID, "queued", len(subs))
	if q.bus != nil {
		q.bus.Publish(notify.EventObservationQueued, notify.ObservationEventData{
			SubmissionID: sub.ID,
			UserID:       sub.UserID,
		})
	}
}

// FlushResult summarises one flush pass.
type FlushResult struct {
	Attempted int
	Delivered int
	Rejected  int
	Remaining int
}

// Flush replays queued submissions in FIFO order. A delivered entry is
// removed from the snapshot; a temporarily failing entry stays in place
// without blocking the rest of the pass; a permanently rejected entry
// (validation failure) is removed and reported instead of retrying
// forever. Failures are observed via logs and events only.
func (q *Queue) Flush(ctx context.Context) FlushResult {
	subs := q.Snapshot(ctx)
	if len(subs) == 0 {
		return FlushResult{}
	}

	result := FlushResult{Attempted: len(subs)}
	for _, sub := range subs {
		res, err := q.transport.Submit(ctx, sub.ToPayload())
		if err == nil {
			q.Remove(ctx, sub.ID)
			result.Delivered++
			q.log.Info("queued submission delivered", "id", sub.ID, "observation_id", res.ID)
			if q.bus != nil {
				q.bus.Publish(notify.EventObservationCreated, notify.ObservationEventData{
					ID:           res.ID,
					SubmissionID: sub.ID,
					UserID:       sub.UserID,
					ImageURL:     res.ImageURL,
					Lat:          sub.Lat,
					Lng:          sub.Lng,
				})
			}
			continue
		}

		if transport.IsTemporary(err) {
			result.Remaining++
			q.log.Warn("queued submission still undeliverable", "id", sub.ID, "error", err)
			continue
		}

		// Permanent rejection: retrying can never succeed.
		q.Remove(ctx, sub.ID)
		result.Rejected++
		q.log.Error("queued submission rejected by server, discarding", "id", sub.ID, "error", err)
		if q.bus != nil {
			q.bus.Publish(notify.EventObservationRejected, notify.ObservationEventData{
				SubmissionID: sub.ID,
				UserID:       sub.UserID,
				Reason:       err.Error(),
			})
		}
	}

	if q.bus != nil {
		q.bus.Publish(notify.EventQueueFlushed, notify.FlushEventData{
			Attempted: result.Attempted,
			Delivered: result.Delivered,
			Rejected:  result.Rejected,
			Remaining: result.Remaining,
		})
	}
	return result
}

// Remove filters the entry with the matching id out of the snapshot.
// Removing an absent id is a no-op.
func (q *Queue) Remove(ctx context.Context, id string) {
	subs := q.Snapshot(ctx)
	filtered := subs[:0:0]
	for _, sub := range subs {
		if sub.ID != id {
			filtered = append(filtered, sub)
		}
	}
	if len(filtered) == len(subs) {
		return
	}
	if err := q.write(ctx, filtered); err != nil {
		q.log.Warn("failed to rewrite snapshot after removal", "id", id, "error", err)
	}
}

func (q *Queue) write(ctx context.Context, subs []PendingSubmission) error {
	raw, err := EncodeSnapshot(subs)
	if err != nil {
		return err
	}
	return q.store.Set(ctx, q.key, raw)
}
