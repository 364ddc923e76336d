package user

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"naturelog-go/internal/domain/auth"
	"naturelog-go/internal/platform/errors"
)

var (
	// ErrNotFound reports a lookup for a missing account.
	ErrNotFound = stderrors.New("user not found")
	// ErrEmailTaken reports a registration against an existing email.
	ErrEmailTaken = stderrors.New("email already registered")
	// ErrInvalidCredentials reports a failed login.
	ErrInvalidCredentials = stderrors.New("invalid email or password")
)

// Service owns account registration and login.
type Service struct {
	repo   Repository
	tokens *auth.AuthToken
	logger *slog.Logger
}

// NewService wires the user service together.
func NewService(repo Repository, tokens *auth.AuthToken, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New(errors.KindConfig, "user.new", "repository is required")
	}
	if tokens == nil {
		return nil, errors.New(errors.KindConfig, "user.new", "token helper is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, logger: logger}, nil
}

// Register creates a new account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, string, error) {
	const op = "user.register"

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, "", errors.New(errors.KindDomain, op, "username, email and password are required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", errors.Wrap(errors.KindDomain, op, "lookup email", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, salt, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", errors.Wrap(errors.KindDomain, op, "hash password", err)
	}

	now := time.Now()
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, "", errors.Wrap(errors.KindDomain, op, "persist user", err)
	}

	token, err := s.tokens.GenerateToken(u.ID)
	if err != nil {
		return nil, "", errors.Wrap(errors.KindDomain, op, "issue token", err)
	}

	s.logger.Info("user registered", "id", u.ID, "email", u.Email)
	return u, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	const op = "user.login"

	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", errors.Wrap(errors.KindDomain, op, "lookup email", err)
	}
	if u == nil || !auth.VerifyPassword(password, u.Salt, u.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(u.ID)
	if err != nil {
		return nil, "", errors.Wrap(errors.KindDomain, op, "issue token", err)
	}

	s.logger.Info("user logged in", "id", u.ID)
	return u, token, nil
}

// Get returns one account by id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.KindDomain, "user.get", "lookup user", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// UpdateInput describes a partial account mutation. Nil fields are left
// untouched; a new password is rehashed with a fresh salt.
type UpdateInput struct {
	Username  *string
	Email     *string
	Password  *string
	AvatarURL *string
}

// UpdateProfile mutates the non-nil fields of an existing account.
func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateInput) (*User, error) {
	const op = "user.update"

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, errors.New(errors.KindDomain, op, "email must not be empty")
		}
		if email != u.Email {
			existing, err := s.repo.FindByEmail(ctx, email)
			if err != nil {
				return nil, errors.Wrap(errors.KindDomain, op, "lookup email", err)
			}
			if existing != nil && existing.ID != id {
				return nil, ErrEmailTaken
			}
		}
		u.Email = email
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, errors.New(errors.KindDomain, op, "username must not be empty")
		}
		u.Username = username
	}
	if in.Password != nil {
		hash, salt, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, errors.Wrap(errors.KindDomain, op, "hash password", err)
		}
		u.PasswordHash = hash
		u.Salt = salt
	}
	if in.AvatarURL != nil {
		u.AvatarURL = in.AvatarURL
	}
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, errors.Wrap(errors.KindDomain, op, "persist update", err)
	}

	s.logger.Info("user updated", "id", u.ID)
	return u, nil
}

// Delete removes an account, or returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "user.delete"

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrap(errors.KindDomain, op, "delete user", err)
	}

	s.logger.Info("user deleted", "id", id)
	return nil
}
