// Package uploadqueue keeps captures made while offline until the server
// has confirmed them. Submissions are replayed in FIFO order on every
// flush trigger; delivery is at-least-once.
package uploadqueue

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"naturelog-go/internal/domain/transport"
)

// PendingSubmission is one observation awaiting confirmed delivery. It is
// immutable once created: retries replay the exact same record. The
// referenced media file must stay valid until the submission is removed.
type PendingSubmission struct {
	ID           string   `json:"id"`
	URI          string   `json:"uri"`
	Filename     string   `json:"filename"`
	MimeType     string   `json:"type"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	LocationName *string  `json:"locationName,omitempty"`
	Legend       *string  `json:"legend,omitempty"`
	UserID       string   `json:"userId,omitempty"`
}

// NewSubmission builds a pending submission for a local media file.
// Filename and mime type are derived from the URI.
func NewSubmission(uri string, lat, lng *float64, locationName, legend *string, userID string) PendingSubmission {
	filename := path.Base(uri)
	return PendingSubmission{
		ID:           newSubmissionID(),
		URI:          uri,
		Filename:     filename,
		MimeType:     MimeTypeForFilename(filename),
		Lat:          lat,
		Lng:          lng,
		LocationName: locationName,
		Legend:       legend,
		UserID:       userID,
	}
}

// ToPayload converts the submission into a transport payload.
func (s PendingSubmission) ToPayload() transport.Payload {
	return transport.Payload{
		MediaPath:    s.URI,
		Filename:     s.Filename,
		MimeType:     s.MimeType,
		Lat:          s.Lat,
		Lng:          s.Lng,
		LocationName: s.LocationName,
		Legend:       s.Legend,
		UserID:       s.UserID,
	}
}

// MimeTypeForFilename maps a file extension to an image mime type,
// defaulting to image/jpeg for unrecognised extensions.
func MimeTypeForFilename(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// newSubmissionID generates a creation-time identifier: millisecond
// timestamp plus a random suffix to avoid collision.
func newSubmissionID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
