package observation

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"naturelog-go/internal/domain/media"
	"naturelog-go/internal/domain/notify"
	"naturelog-go/internal/platform/errors"
)

// ErrNotFound reports a lookup for an observation that does not exist.
var ErrNotFound = stderrors.New("observation not found")

// CreateInput carries everything needed to record a new observation.
type CreateInput struct {
	UserID       string
	Photo        []byte
	Format       string
	Lat          *float64
	Lng          *float64
	LocationName *string
	Legend       *string
}

// Service owns the observation lifecycle: photo validation and storage,
// persistence and event publication.
type Service struct {
	repo      Repository
	validator *media.Validator
	photos    *media.DiskStore
	bus       *notify.Bus
	logger    *slog.Logger
}

// NewService wires the observation service together.
func NewService(
	repo Repository,
	validator *media.Validator,
	photos *media.DiskStore,
	bus *notify.Bus,
	logger *slog.Logger,
) (*Service, error) {
	if repo == nil {
		return nil, errors.New(errors.KindConfig, "observation.new", "repository is required")
	}
	if validator == nil || photos == nil {
		return nil, errors.New(errors.KindConfig, "observation.new", "media validator and store are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		validator: validator,
		photos:    photos,
		bus:       bus,
		logger:    logger,
	}, nil
}

// Create validates and stores the photo, persists the observation and
// publishes observation:created.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Observation, error) {
	const op = "observation.create"

	info, err := s.validator.ValidateBytes(in.Photo, in.Format)
	if err != nil {
		return nil, errors.Wrap(errors.KindMedia, op, "photo rejected", err)
	}

	filename, publicURL, err := s.photos.Save(in.Photo, info.Format)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	obs := &Observation{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		ImageURL:     publicURL,
		Lat:          in.Lat,
		Lng:          in.Lng,
		LocationName: in.LocationName,
		Legend:       in.Legend,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Save(ctx, obs); err != nil {
		if removeErr := s.photos.Remove(filename); removeErr != nil {
			s.logger.Warn("orphaned photo cleanup failed", "filename", filename, "error", removeErr)
		}
		return nil, errors.Wrap(errors.KindDomain, op, "persist observation", err)
	}

	s.logger.Info("observation created",
		"id", obs.ID,
		"user_id", obs.UserID,
		"image_url", obs.ImageURL,
	)
	if s.bus != nil {
		s.bus.Publish(notify.EventObservationCreated, notify.ObservationEventData{
			ID:       obs.ID,
			UserID:   obs.UserID,
			ImageURL: obs.ImageURL,
			Lat:      obs.Lat,
			Lng:      obs.Lng,
		})
	}
	return obs, nil
}

// Get returns one observation by id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Observation, error) {
	obs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.KindDomain, "observation.get", "lookup observation", err)
	}
	if obs == nil {
		return nil, ErrNotFound
	}
	return obs, nil
}

// List returns all observations, newest first.
func (s *Service) List(ctx context.Context) ([]*Observation, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindDomain, "observation.list", "list observations", err)
	}
	return list, nil
}

// ListByUser returns one user's observations, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Observation, error) {
	list, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.KindDomain, "observation.list_by_user", "list observations", err)
	}
	return list, nil
}

// ApplyUpdate mutates the non-nil fields of an existing observation.
func (s *Service) ApplyUpdate(ctx context.Context, id string, upd Update) (*Observation, error) {
	const op = "observation.update"

	obs, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Lat != nil {
		obs.Lat = upd.Lat
	}
	if upd.Lng != nil {
		obs.Lng = upd.Lng
	}
	if upd.LocationName != nil {
		obs.LocationName = upd.LocationName
	}
	if upd.Legend != nil {
		obs.Legend = upd.Legend
	}
	if upd.ImageURL != nil {
		obs.ImageURL = *upd.ImageURL
	}
	obs.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, obs); err != nil {
		return nil, errors.Wrap(errors.KindDomain, op, "persist update", err)
	}
	return obs, nil
}

// Delete removes an observation and its stored photo.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "observation.delete"

	obs, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrap(errors.KindDomain, op, "delete observation", err)
	}

	if filename := filenameFromURL(obs.ImageURL, s.photos.PublicPath()); filename != "" {
		if err := s.photos.Remove(filename); err != nil {
			s.logger.Warn("photo cleanup failed", "id", id, "error", err)
		}
	}

	s.logger.Info("observation deleted", "id", id, "user_id", obs.UserID)
	if s.bus != nil {
		s.bus.Publish(notify.EventObservationDeleted, notify.ObservationEventData{
			ID:     id,
			UserID: obs.UserID,
		})
	}
	return nil
}

func filenameFromURL(imageURL, publicPath string) string {
	prefix := publicPath + "/"
	if len(imageURL) <= len(prefix) || imageURL[:len(prefix)] != prefix {
		return ""
	}
	return imageURL[len(prefix):]
}
