package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"naturelog-go/internal/domain/user"
	platformerrors "naturelog-go/internal/platform/errors"
	httptransport "naturelog-go/internal/transport/http"
)

// Service exposes account registration and login endpoints.
type Service struct {
	users  *user.Service
	logger *slog.Logger
}

// NewService creates the users HTTP service.
func NewService(users *user.Service, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "users.new", "user service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, logger: logger}, nil
}

// Register mounts the user routes.
func (s *Service) Register(ctx context.Context, api, secured *gin.RouterGroup) error {
	api.POST("/users/register", s.handleRegister)
	api.POST("/users/login", s.handleLogin)
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)

	api.GET("/user/:id", s.handleGet)

	writes := secured
	if writes == nil {
		writes = api
	}
	writes.PUT("/user/:id", s.handleUpdate)
	writes.DELETE("/user/:id", s.handleDelete)

	if secured != nil {
		secured.GET("/users/me", s.handleMe)
	}
	return nil
}

type userJSON struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

type authJSON struct {
	User  userJSON `json:"user"`
	Token string   `json:"token"`
}

func toJSON(u *user.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid registration payload", nil)
		return
	}

	u, token, err := s.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			httptransport.RespondError(c, http.StatusConflict, "email already registered", nil)
		case platformerrors.IsKind(err, platformerrors.KindDomain):
			httptransport.RespondError(c, http.StatusBadRequest, err.Error(), nil)
		default:
			s.logger.Error("registration failed", "error", err)
			httptransport.RespondError(c, http.StatusInternalServerError, "registration failed", nil)
		}
		return
	}
	httptransport.RespondSuccess(c, http.StatusCreated, authJSON{User: toJSON(u), Token: token}, "registered")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid login payload", nil)
		return
	}

	u, token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			httptransport.RespondError(c, http.StatusUnauthorized, "invalid email or password", nil)
			return
		}
		s.logger.Error("login failed", "error", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "login failed", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, authJSON{User: toJSON(u), Token: token}, "logged in")
}

func (s *Service) handleGet(c *gin.Context) {
	u, err := s.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httptransport.RespondError(c, http.StatusNotFound, "user not found", nil)
			return
		}
		s.logger.Error("user lookup failed", "error", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to load user", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, toJSON(u), "")
}

type updateRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	AvatarURL *string `json:"avatarUrl"`
}

func (s *Service) handleUpdate(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid update payload", nil)
		return
	}

	u, err := s.users.UpdateProfile(c.Request.Context(), c.Param("id"), user.UpdateInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			httptransport.RespondError(c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, user.ErrEmailTaken):
			httptransport.RespondError(c, http.StatusConflict, "email already registered", nil)
		case platformerrors.IsKind(err, platformerrors.KindDomain):
			httptransport.RespondError(c, http.StatusBadRequest, err.Error(), nil)
		default:
			s.logger.Error("user update failed", "error", err)
			httptransport.RespondError(c, http.StatusInternalServerError, "failed to update user", nil)
		}
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, toJSON(u), "user updated")
}

func (s *Service) handleDelete(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httptransport.RespondError(c, http.StatusNotFound, "user not found", nil)
			return
		}
		s.logger.Error("user delete failed", "error", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to delete user", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) handleMe(c *gin.Context) {
	userID := c.GetString(httptransport.ContextUserID)
	u, err := s.users.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httptransport.RespondError(c, http.StatusNotFound, "user not found", nil)
			return
		}
		s.logger.Error("profile lookup failed", "error", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to load profile", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, toJSON(u), "")
}
