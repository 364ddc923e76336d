package observation

import "context"

// Repository persists observations.
type Repository interface {
	Save(ctx context.Context, obs *Observation) error
	Update(ctx context.Context, obs *Observation) error
	FindByID(ctx context.Context, id string) (*Observation, error)
	FindByUser(ctx context.Context, userID string) ([]*Observation, error)
	List(ctx context.Context) ([]*Observation, error)
	Delete(ctx context.Context, id string) error
}
