// Package geo resolves best-effort location data for submissions. Every
// operation may fail or be denied; callers treat any failure as "no
// location data", never as fatal.
package geo

import (
	"context"
	"errors"
)

// ErrUnavailable indicates location data could not be obtained.
var ErrUnavailable = errors.New("location unavailable")

// Position is a pair of WGS84 coordinates.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Provider supplies location data.
type Provider interface {
	// RequestPermission reports whether location access is granted.
	RequestPermission(ctx context.Context) (bool, error)
	// CurrentPosition returns the device position or ErrUnavailable.
	CurrentPosition(ctx context.Context) (Position, error)
	// ReverseGeocode resolves coordinates into a human-readable place
	// name, or ErrUnavailable.
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}
