package observations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"naturelog-go/internal/domain/observation"
	platformerrors "naturelog-go/internal/platform/errors"
	httptransport "naturelog-go/internal/transport/http"
)

// Service exposes the observation REST endpoints.
type Service struct {
	observations *observation.Service
	logger       *slog.Logger
}

// NewService creates the observations HTTP service.
func NewService(observations *observation.Service, logger *slog.Logger) (*Service, error) {
	if observations == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "observations.new", "observation service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{observations: observations, logger: logger}, nil
}

// Register mounts the observation routes. Reads stay public, writes go
// through the secured group when one is provided.
func (s *Service) Register(ctx context.Context, api, secured *gin.RouterGroup) error {
	api.GET("/observations", s.handleList)
	api.GET("/observations/:id", s.handleGet)
	api.GET("/observations/user/:userId", s.handleListByUser)

	writes := secured
	if writes == nil {
		writes = api
	}
	writes.POST("/observations", s.handleCreate)
	writes.PUT("/observations/:id", s.handleUpdate)
	writes.DELETE("/observations/:id", s.handleDelete)

	return nil
}

type observationJSON struct {
	ID           string   `json:"id"`
	UserID       string   `json:"userId,omitempty"`
	ImageURL     string   `json:"imageUrl"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	LocationName *string  `json:"locationName,omitempty"`
	Legend       *string  `json:"legend,omitempty"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func toJSON(obs *observation.Observation) observationJSON {
	return observationJSON{
		ID:           obs.ID,
		UserID:       obs.UserID,
		ImageURL:     obs.ImageURL,
		Lat:          obs.Lat,
		Lng:          obs.Lng,
		LocationName: obs.LocationName,
		Legend:       obs.Legend,
		CreatedAt:    obs.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    obs.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// createResponse matches what the field agent expects back from a submission.
type createResponse struct {
	Success     bool   `json:"success"`
	ID          string `json:"id"`
	Message     string `json:"message"`
	Observation struct {
		ID       string `json:"id"`
		ImageURL string `json:"imageUrl"`
	} `json:"observation"`
}

func (s *Service) handleCreate(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "photo file is required", nil)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "failed to read photo", nil)
		return
	}

	in := observation.CreateInput{
		UserID: c.GetString(httptransport.ContextUserID),
		Photo:  raw,
		Format: formatFromPart(header.Header.Get("Content-Type"), header.Filename),
	}
	if in.UserID == "" {
		in.UserID = c.PostForm("userId")
	}

	if v := c.PostForm("lat"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httptransport.RespondError(c, http.StatusBadRequest, "lat must be a number", nil)
			return
		}
		in.Lat = &lat
	}
	if v := c.PostForm("lng"); v != "" {
		lng, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httptransport.RespondError(c, http.StatusBadRequest, "lng must be a number", nil)
			return
		}
		in.Lng = &lng
	}
	if v := c.PostForm("locationName"); v != "" {
		in.LocationName = &v
	}
	if v := c.PostForm("legend"); v != "" {
		in.Legend = &v
	}

	obs, err := s.observations.Create(c.Request.Context(), in)
	if err != nil {
		if platformerrors.IsKind(err, platformerrors.KindMedia) {
			httptransport.RespondError(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		s.logger.Error("observation create failed", "error", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to create observation", nil)
		return
	}

	resp := createResponse{
		Success: true,
		ID:      obs.ID,
		Message: "observation created",
	}
	resp.Observation.ID = obs.ID
	resp.Observation.ImageURL = obs.ImageURL
	c.JSON(http.StatusCreated, resp)
}

func (s *Service) handleList(c *gin.Context) {
	list, err := s.observations.List(c.Request.Context())
	if err != nil {
		s.logger.Error("observation list failed", "error", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to list observations", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, toJSONList(list), "")
}

func (s *Service) handleListByUser(c *gin.Context) {
	list, err := s.observations.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.logger.Error("observation list by user failed", "error", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to list observations", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, toJSONList(list), "")
}

func (s *Service) handleGet(c *gin.Context) {
	obs, err := s.observations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, observation.ErrNotFound) {
			httptransport.RespondError(c, http.StatusNotFound, "observation not found", nil)
			return
		}
		s.logger.Error("observation get failed", "error", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to load observation", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, toJSON(obs), "")
}

type updateRequest struct {
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	LocationName *string  `json:"locationName"`
	Legend       *string  `json:"legend"`
}

func (s *Service) handleUpdate(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid update payload", nil)
		return
	}

	obs, err := s.observations.ApplyUpdate(c.Request.Context(), c.Param("id"), observation.Update{
		Lat:          req.Lat,
		Lng:          req.Lng,
		LocationName: req.LocationName,
		Legend:       req.Legend,
	})
	if err != nil {
		if errors.Is(err, observation.ErrNotFound) {
			httptransport.RespondError(c, http.StatusNotFound, "observation not found", nil)
			return
		}
		s.logger.Error("observation update failed", "error", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to update observation", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, toJSON(obs), "observation updated")
}

func (s *Service) handleDelete(c *gin.Context) {
	err := s.observations.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, observation.ErrNotFound) {
			httptransport.RespondError(c, http.StatusNotFound, "observation not found", nil)
			return
		}
		s.logger.Error("observation delete failed", "error", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to delete observation", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func toJSONList(list []*observation.Observation) []observationJSON {
	out := make([]observationJSON, 0, len(list))
	for _, obs := range list {
		out = append(out, toJSON(obs))
	}
	return out
}

func formatFromPart(contentType, filename string) string {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if format, ok := strings.CutPrefix(mediaType, "image/"); ok {
				return format
			}
		}
	}
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return strings.ToLower(filename[idx+1:])
	}
	return ""
}
