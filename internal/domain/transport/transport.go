// Package transport performs the actual network submission of
// observations to the API server.
package transport

import (
	"context"
	"fmt"
)

// Payload is one observation submission. Optional fields are nil when
// the data was unavailable at capture time.
type Payload struct {
	MediaPath    string
	Filename     string
	MimeType     string
	Lat          *float64
	Lng          *float64
	LocationName *string
	Legend       *string
	UserID       string
}

// Result is the server acknowledgement of a successful submission.
type Result struct {
	ID       string
	ImageURL string
}

// Transport submits observation payloads.
type Transport interface {
	Submit(ctx context.Context, payload Payload) (Result, error)
}

// Error is a failed submission. A zero Status means the request never
// reached the server (connectivity loss, timeout).
type Error struct {
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("submission failed: %s", e.Message)
	}
	return fmt.Sprintf("submission rejected (%d): %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Temporary reports whether a retry can succeed. Validation rejections
// (4xx) are permanent; connectivity failures and server errors are not.
func (e *Error) Temporary() bool {
	return e.Status == 0 || e.Status >= 500
}

// IsTemporary classifies an arbitrary submission error. Unknown error
// types are treated as temporary so they stay queued rather than being
// dropped.
func IsTemporary(err error) bool {
	if terr, ok := err.(*Error); ok {
		return terr.Temporary()
	}
	return true
}
