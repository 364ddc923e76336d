package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"naturelog-go/internal/domain/observation"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:obs-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	return db
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestObservationRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewObservationRepository(newTestDB(t))

	obs := &observation.Observation{
		ID:           "obs-1",
		UserID:       "user-1",
		ImageURL:     "/uploads/obs-1.jpg",
		Lat:          floatPtr(46.52),
		Lng:          floatPtr(6.63),
		LocationName: strPtr("Lakeside"),
		Legend:       strPtr("Heron at dawn"),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := repo.Save(ctx, obs); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := repo.FindByID(ctx, obs.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got == nil || got.ID != obs.ID {
		t.Fatalf("unexpected observation: %+v", got)
	}
	if got.Lat == nil || *got.Lat != 46.52 {
		t.Fatalf("latitude not preserved: %+v", got.Lat)
	}
	if got.Legend == nil || *got.Legend != "Heron at dawn" {
		t.Fatalf("legend not preserved: %+v", got.Legend)
	}

	byUser, err := repo.FindByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("FindByUser error: %v", err)
	}
	if len(byUser) != 1 {
		t.Fatalf("expected 1 observation for user, got %d", len(byUser))
	}

	if err := repo.Delete(ctx, obs.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(ctx, obs.ID); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound on second delete, got %v", err)
	}
}

func TestObservationRepositoryNullableFields(t *testing.T) {
	ctx := context.Background()
	repo := NewObservationRepository(newTestDB(t))

	obs := &observation.Observation{
		ID:        "obs-nolocation",
		UserID:    "user-1",
		ImageURL:  "/uploads/obs-nolocation.jpg",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repo.Save(ctx, obs); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := repo.FindByID(ctx, obs.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got.Lat != nil || got.Lng != nil || got.LocationName != nil || got.Legend != nil {
		t.Fatalf("expected nil optional fields, got %+v", got)
	}
}
