package user

import (
	"context"
	"time"
)

// User is an account able to submit observations.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Salt         string
	AvatarURL    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository persists users.
type Repository interface {
	Save(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Delete(ctx context.Context, id string) error
}
