package notify

// Event topics broadcast across the process.
const (
	// Observation events
	EventObservationCreated  = "observation:created"
	EventObservationQueued   = "observation:queued"
	EventObservationRejected = "observation:rejected"
	EventObservationDeleted  = "observation:deleted"

	// Queue events
	EventQueueFlushed = "queue:flushed"
)

// ObservationEventData accompanies observation topics.
type ObservationEventData struct {
	ID           string   `json:"id,omitempty"`
	SubmissionID string   `json:"submission_id,omitempty"`
	UserID       string   `json:"user_id,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// FlushEventData accompanies queue:flushed.
type FlushEventData struct {
	Attempted int `json:"attempted"`
	Delivered int `json:"delivered"`
	Rejected  int `json:"rejected"`
	Remaining int `json:"remaining"`
}
