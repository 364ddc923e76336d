package geo

import (
	"context"
)

// StaticProvider serves a fixed position from configuration. Used by the
// field agent when the deployment site is known, and by tests.
type StaticProvider struct {
	granted   bool
	position  Position
	placeName string
}

// NewStatic creates a provider reporting the given position.
func NewStatic(granted bool, position Position, placeName string) *StaticProvider {
	return &StaticProvider{
		granted:   granted,
		position:  position,
		placeName: placeName,
	}
}

func (p *StaticProvider) RequestPermission(_ context.Context) (bool, error) {
	return p.granted, nil
}

func (p *StaticProvider) CurrentPosition(_ context.Context) (Position, error) {
	if !p.granted {
		return Position{}, ErrUnavailable
	}
	return p.position, nil
}

func (p *StaticProvider) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	if !p.granted || p.placeName == "" {
		return "", ErrUnavailable
	}
	return p.placeName, nil
}
