package storage

import (
	"time"
)

// Observation is one photo record with its metadata. Nullable columns use
// pointers so absent values survive round trips without being coerced to
// zero values.
type Observation struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"index" json:"userId"`
	ImageURL     string    `gorm:"not null" json:"imageUrl"`
	Lat          *float64  `json:"lat"`
	Lng          *float64  `json:"lng"`
	LocationName *string   `json:"locationName"`
	Legend       *string   `json:"legend"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Observation) TableName() string {
	return "observations"
}

// User is an account able to submit observations.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Salt         string    `gorm:"not null" json:"-"`
	AvatarURL    *string   `json:"avatarUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
