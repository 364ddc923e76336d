package observation

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"naturelog-go/internal/domain/media"
	"naturelog-go/internal/domain/notify"
)

type fakeRepo struct {
	mu   sync.Mutex
	byID map[string]*Observation
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]*Observation)}
}

func (r *fakeRepo) Save(_ context.Context, obs *Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *obs
	r.byID[obs.ID] = &copied
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, obs *Observation) error {
	return r.Save(ctx, obs)
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obs, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *obs
	return &copied, nil
}

func (r *fakeRepo) FindByUser(ctx context.Context, userID string) ([]*Observation, error) {
	all, _ := r.List(ctx)
	var out []*Observation
	for _, obs := range all {
		if obs.UserID == userID {
			out = append(out, obs)
		}
	}
	return out, nil
}

func (r *fakeRepo) List(_ context.Context) ([]*Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Observation
	for _, obs := range r.byID {
		copied := *obs
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return errors.New("no rows deleted")
	}
	delete(r.byID, id)
	return nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *notify.Bus, string) {
	t.Helper()
	dir := t.TempDir()
	photos, err := media.NewDiskStore(dir, "/uploads")
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	repo := newFakeRepo()
	bus := notify.New()
	svc, err := NewService(repo, media.NewValidator(1<<20, nil, slog.Default()), photos, bus, slog.Default())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, bus, dir
}

func TestCreatePersistsPhotoAndPublishes(t *testing.T) {
	svc, repo, bus, dir := newTestService(t)

	var created []notify.ObservationEventData
	if err := bus.Subscribe(notify.EventObservationCreated, func(data notify.ObservationEventData) {
		created = append(created, data)
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	lat, lng := 46.52, 6.63
	legend := "Grey heron"
	obs, err := svc.Create(context.Background(), CreateInput{
		UserID: "user-1",
		Photo:  pngBytes(t),
		Format: "png",
		Lat:    &lat,
		Lng:    &lng,
		Legend: &legend,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if obs.ID == "" {
		t.Fatal("expected generated id")
	}

	stored, err := repo.FindByID(context.Background(), obs.ID)
	if err != nil || stored == nil {
		t.Fatalf("expected persisted observation, got %v %v", stored, err)
	}
	if stored.Legend == nil || *stored.Legend != "Grey heron" {
		t.Fatalf("legend not persisted: %+v", stored)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stored photo, got %d", len(entries))
	}
	if obs.ImageURL != "/uploads/"+entries[0].Name() {
		t.Fatalf("image URL %q does not match stored file %q", obs.ImageURL, entries[0].Name())
	}

	if len(created) != 1 || created[0].ID != obs.ID {
		t.Fatalf("expected one created event for %s, got %+v", obs.ID, created)
	}
}

func TestCreateRejectsInvalidPhoto(t *testing.T) {
	svc, repo, _, dir := newTestService(t)

	if _, err := svc.Create(context.Background(), CreateInput{
		UserID: "user-1",
		Photo:  []byte("not an image"),
		Format: "jpeg",
	}); err == nil {
		t.Fatal("expected validation error")
	}

	if list, _ := repo.List(context.Background()); len(list) != 0 {
		t.Fatal("nothing should be persisted after rejection")
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatal("no photo should be stored after rejection")
	}
}

func TestApplyUpdateTouchesOnlyProvidedFields(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	legend := "first"
	obs, err := svc.Create(context.Background(), CreateInput{
		UserID: "user-1",
		Photo:  pngBytes(t),
		Format: "png",
		Legend: &legend,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newLegend := "second"
	updated, err := svc.ApplyUpdate(context.Background(), obs.ID, Update{Legend: &newLegend})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Legend == nil || *updated.Legend != "second" {
		t.Fatalf("legend not updated: %+v", updated)
	}
	if updated.ImageURL != obs.ImageURL {
		t.Fatal("image URL must survive a partial update")
	}
}

func TestDeleteRemovesPhotoAndPublishes(t *testing.T) {
	svc, repo, bus, dir := newTestService(t)

	var deleted []notify.ObservationEventData
	if err := bus.Subscribe(notify.EventObservationDeleted, func(data notify.ObservationEventData) {
		deleted = append(deleted, data)
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	obs, err := svc.Create(context.Background(), CreateInput{
		UserID: "user-1",
		Photo:  pngBytes(t),
		Format: "png",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), obs.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got, _ := repo.FindByID(context.Background(), obs.ID); got != nil {
		t.Fatal("observation should be gone")
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, filepath.Base(e.Name()))
		}
		t.Fatalf("photo should be removed, found %v", names)
	}
	if len(deleted) != 1 || deleted[0].ID != obs.ID {
		t.Fatalf("expected one deleted event, got %+v", deleted)
	}
}

func TestGetUnknownReturnsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}
