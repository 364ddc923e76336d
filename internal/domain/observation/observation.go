package observation

import (
	"time"
)

// Observation is one logged nature sighting: a photo plus optional
// location metadata and caption.
type Observation struct {
	ID           string
	UserID       string
	ImageURL     string
	Lat          *float64
	Lng          *float64
	LocationName *string
	Legend       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Update describes a partial mutation of an existing observation. Nil
// fields are left untouched.
type Update struct {
	Lat          *float64
	Lng          *float64
	LocationName *string
	Legend       *string
	ImageURL     *string
}
