package storage

import (
	"context"

	"gorm.io/gorm"

	"naturelog-go/internal/domain/observation"
	"naturelog-go/internal/platform/errors"
)

type observationRepository struct {
	db *gorm.DB
}

// NewObservationRepository creates a gorm-backed observation repository.
func NewObservationRepository(db *gorm.DB) observation.Repository {
	return &observationRepository{db: db}
}

func (r *observationRepository) Save(ctx context.Context, obs *observation.Observation) error {
	model := r.toModel(obs)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "observation.save", "failed to save observation", err)
	}
	return nil
}

func (r *observationRepository) Update(ctx context.Context, obs *observation.Observation) error {
	model := r.toModel(obs)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "observation.update", "failed to update observation", err)
	}
	return nil
}

func (r *observationRepository) FindByID(ctx context.Context, id string) (*observation.Observation, error) {
	var model Observation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, "observation.find_by_id", "failed to find observation", err)
	}
	return r.fromModel(&model), nil
}

func (r *observationRepository) FindByUser(ctx context.Context, userID string) ([]*observation.Observation, error) {
	var models []Observation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "observation.find_by_user", "failed to list user observations", err)
	}
	return r.fromModels(models), nil
}

func (r *observationRepository) List(ctx context.Context) ([]*observation.Observation, error) {
	var models []Observation
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "observation.list", "failed to list observations", err)
	}
	return r.fromModels(models), nil
}

func (r *observationRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Observation{})
	if result.Error != nil {
		return errors.Wrap(errors.KindStorage, "observation.delete", "failed to delete observation", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *observationRepository) toModel(obs *observation.Observation) *Observation {
	return &Observation{
		ID:           obs.ID,
		UserID:       obs.UserID,
		ImageURL:     obs.ImageURL,
		Lat:          obs.Lat,
		Lng:          obs.Lng,
		LocationName: obs.LocationName,
		Legend:       obs.Legend,
		CreatedAt:    obs.CreatedAt,
		UpdatedAt:    obs.UpdatedAt,
	}
}

func (r *observationRepository) fromModel(model *Observation) *observation.Observation {
	return &observation.Observation{
		ID:           model.ID,
		UserID:       model.UserID,
		ImageURL:     model.ImageURL,
		Lat:          model.Lat,
		Lng:          model.Lng,
		LocationName: model.LocationName,
		Legend:       model.Legend,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func (r *observationRepository) fromModels(models []Observation) []*observation.Observation {
	out := make([]*observation.Observation, 0, len(models))
	for i := range models {
		out = append(out, r.fromModel(&models[i]))
	}
	return out
}
