package uploadqueue

import (
	"encoding/json"
	"log/slog"

	"github.com/bytedance/sonic"
)

// EncodeSnapshot serializes the ordered queue snapshot.
func EncodeSnapshot(subs []PendingSubmission) (string, error) {
	if subs == nil {
		subs = []PendingSubmission{}
	}
	data, err := sonic.Marshal(subs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeSnapshot deserializes a stored snapshot. Decoding is defensive:
// a malformed record is dropped and logged rather than wedging the whole
// queue, and an unreadable snapshot resets to empty.
func DecodeSnapshot(raw string, log *slog.Logger) []PendingSubmission {
	if raw == "" {
		return nil
	}

	var items []json.RawMessage
	if err := sonic.Unmarshal([]byte(raw), &items); err != nil {
		log.Warn("pending upload snapshot unreadable, resetting queue", "error", err)
		return nil
	}

	subs := make([]PendingSubmission, 0, len(items))
	for _, item := range items {
		var sub PendingSubmission
		if err := sonic.Unmarshal(item, &sub); err != nil {
			log.Warn("dropping malformed queued submission", "error", err)
			continue
		}
		if sub.ID == "" || sub.URI == "" {
			log.Warn("dropping queued submission without id or media handle")
			continue
		}
		subs = append(subs, sub)
	}
	return subs
}
