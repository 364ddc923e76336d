package observations

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"naturelog-go/internal/domain/media"
	"naturelog-go/internal/domain/notify"
	"naturelog-go/internal/domain/observation"
)

type fakeRepo struct {
	mu   sync.Mutex
	byID map[string]*observation.Observation
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]*observation.Observation)}
}

func (r *fakeRepo) Save(_ context.Context, obs *observation.Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *obs
	r.byID[obs.ID] = &copied
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, obs *observation.Observation) error {
	return r.Save(ctx, obs)
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*observation.Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obs, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *obs
	return &copied, nil
}

func (r *fakeRepo) FindByUser(ctx context.Context, userID string) ([]*observation.Observation, error) {
	all, _ := r.List(ctx)
	var out []*observation.Observation
	for _, obs := range all {
		if obs.UserID == userID {
			out = append(out, obs)
		}
	}
	return out, nil
}

func (r *fakeRepo) List(_ context.Context) ([]*observation.Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*observation.Observation
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
	delete(r.byID, id)
	return nil
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	photos, err := media.NewDiskStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	obsService, err := observation.NewService(
		newFakeRepo(),
		media.NewValidator(1<<20, nil, slog.Default()),
		photos,
		notify.New(),
		slog.Default(),
	)
	if err != nil {
		t.Fatalf("observation service: %v", err)
	}
	svc, err := NewService(obsService, slog.Default())
	if err != nil {
		t.Fatalf("http service: %v", err)
	}

	engine := gin.New()
	api := engine.Group("/api")
	if err := svc.Register(context.Background(), api, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	return engine
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="photo"; filename="heron.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(pngBytes(t)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	writer.Close()
	return &body, writer.FormDataContentType()
}

func postObservation(t *testing.T, engine *gin.Engine, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/observations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCreateObservationEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	rec := postObservation(t, engine, map[string]string{
		"lat":          "46.52",
		"lng":          "6.63",
		"locationName": "Parc de Milan",
		"legend":       "Grey heron",
		"userId":       "user-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !resp.Success || resp.ID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Observation.ID != resp.ID {
		t.Fatalf("observation id mismatch: %+v", resp)
	}
	if !strings.HasPrefix(resp.Observation.ImageURL, "/uploads/") {
		t.Fatalf("unexpected image URL %q", resp.Observation.ImageURL)
	}
}

func TestCreateObservationRequiresPhoto(t *testing.T) {
	engine := newTestEngine(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("legend", "no photo here")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/observations", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateObservationRejectsBadCoordinates(t *testing.T) {
	engine := newTestEngine(t)

	rec := postObservation(t, engine, map[string]string{"lat": "not-a-number"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListAndGetObservations(t *testing.T) {
	engine := newTestEngine(t)

	rec := postObservation(t, engine, map[string]string{"legend": "first", "userId": "user-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	var created createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("parse: %v", err)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/api/observations", nil)
	listRec := httptest.NewRecorder()
	engine.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list: %d", listRec.Code)
	}
	var envelope struct {
		Success bool              `json:"success"`
		Data    []observationJSON `json:"data"`
	}
	if err := json.Unmarshal(listRec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if !envelope.Success || len(envelope.Data) != 1 {
		t.Fatalf("unexpected list: %+v", envelope)
	}
	if envelope.Data[0].Legend == nil || *envelope.Data[0].Legend != "first" {
		t.Fatalf("legend missing from listing: %+v", envelope.Data[0])
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/observations/"+created.ID, nil)
	getRec := httptest.NewRecorder()
	engine.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get: %d", getRec.Code)
	}
}

func TestGetMissingObservation(t *testing.T) {
	engine := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/observations/missing", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateObservationEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	rec := postObservation(t, engine, map[string]string{"legend": "before"})
	var created createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("parse: %v", err)
	}

	update := strings.NewReader(`{"legend":"after"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/observations/"+created.ID, update)
	req.Header.Set("Content-Type", "application/json")
	updRec := httptest.NewRecorder()
	engine.ServeHTTP(updRec, req)
	if updRec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", updRec.Code, updRec.Body.String())
	}

	var envelope struct {
		Data observationJSON `json:"data"`
	}
	if err := json.Unmarshal(updRec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("parse update: %v", err)
	}
	if envelope.Data.Legend == nil || *envelope.Data.Legend != "after" {
		t.Fatalf("legend not updated: %+v", envelope.Data)
	}
}

func TestDeleteObservationEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	rec := postObservation(t, engine, nil)
	var created createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("parse: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/observations/"+created.ID, nil)
	delRec := httptest.NewRecorder()
	engine.ServeHTTP(delRec, req)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", delRec.Code)
	}

	again := httptest.NewRecorder()
	engine.ServeHTTP(again, httptest.NewRequest(http.MethodDelete, "/api/observations/"+created.ID, nil))
	if again.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", again.Code)
	}
}

func TestUnversionedAliasRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	photos, err := media.NewDiskStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	obsService, err := observation.NewService(
		newFakeRepo(),
		media.NewValidator(1<<20, nil, slog.Default()),
		photos,
		notify.New(),
		slog.Default(),
	)
	if err != nil {
		t.Fatalf("observation service: %v", err)
	}
	svc, err := NewService(obsService, slog.Default())
	if err != nil {
		t.Fatalf("http service: %v", err)
	}

	engine := gin.New()
	if err := svc.Register(context.Background(), engine.Group("/api"), nil); err != nil {
		t.Fatalf("register api: %v", err)
	}
	if err := svc.Register(context.Background(), engine.Group(""), nil); err != nil {
		t.Fatalf("register alias: %v", err)
	}

	body, contentType := multipartBody(t, map[string]string{"legend": "via alias"})
	req := httptest.NewRequest(http.MethodPost, "/observations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("alias create: %d %s", rec.Code, rec.Body.String())
	}
	var created createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("parse: %v", err)
	}

	// The same record is visible under the /api prefix.
	getRec := httptest.NewRecorder()
	engine.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/api/observations/"+created.ID, nil))
	if getRec.Code != http.StatusOK {
		t.Fatalf("get via /api: %d", getRec.Code)
	}

	delRec := httptest.NewRecorder()
	engine.ServeHTTP(delRec, httptest.NewRequest(http.MethodDelete, "/observations/"+created.ID, nil))
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("alias delete: %d", delRec.Code)
	}
}
