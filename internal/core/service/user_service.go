package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
)

type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// Create persists a new user. Name, email and role are required and the email
// must not belong to another user.
func (s *UserService) Create(ctx context.Context, input ports.UserInput) (*domain.User, error) {
	user := &domain.User{}
	if err := s.apply(ctx, user, input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := s.repo.Save(ctx, user); err != nil {
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("user created")
	return user, nil
}

// Update overwrites the stored user with input.
func (s *UserService) Update(ctx context.Context, id int64, input ports.UserInput) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, user, input); err != nil {
		return nil, err
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to update user")
		return nil, err
	}

	s.logger.Info().Int64("user_id", id).Msg("user updated")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// apply validates input and copies it onto u. u.ID is used to exclude the
// user itself from the email uniqueness check.
func (s *UserService) apply(ctx context.Context, u *domain.User, input ports.UserInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return &domain.ValidationError{Code: domain.CodeBlankName, Field: "name"}
	}
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return &domain.ValidationError{Code: domain.CodeBlankEmail, Field: "email"}
	}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		return &domain.ValidationError{Code: domain.CodeBlankRole, Field: "role"}
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return fmt.Errorf("check user email: %w", err)
	case existing.ID != u.ID:
		return domain.DuplicateField(domain.FieldEmail)
	}

	u.Name = name
	u.Email = email
	u.Phone = domain.Normalize(input.Phone)
	u.PhotoURL = strings.TrimSpace(input.PhotoURL)
	u.Role = role
	return nil
}
