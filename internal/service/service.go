package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/devops-thiago/otel-example-go/internal/repository"
	"github.com/devops-thiago/otel-example-go/platform/observability"
)

// UserService holds the business rules around users. The only rule beyond
// plain CRUD is email uniqueness, enforced both by an upfront lookup (for a
// clean conflict answer) and by the repository's unique-constraint mapping
// (for the race the lookup cannot close).
type UserService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a UserService on top of any UserRepository.
func NewUserService(userRepo repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// CreateUserInput carries the fields for a new user.
type CreateUserInput struct {
	Name  string
	Email string
	Bio   *string
}

// CreateUser creates a new user, rejecting duplicate emails.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (repository.User, error) {
	log := observability.L(ctx, s.logger)

	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return repository.User{}, repository.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, fmt.Errorf("check email: %w", err)
	}

	user, err := s.userRepo.Create(ctx, input.Name, input.Email, input.Bio)
	if err != nil {
		return repository.User{}, err
	}

	log.Info("Created user", zap.Int64("id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, id int64) (repository.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]repository.User, error) {
	return s.userRepo.List(ctx)
}

// UpdateUser applies a partial update. A changed email must not belong to
// another user.
func (s *UserService) UpdateUser(ctx context.Context, id int64, upd repository.UserUpdate) (repository.User, error) {
	log := observability.L(ctx, s.logger)

	if upd.Email != nil {
		existing, err := s.userRepo.GetByEmail(ctx, *upd.Email)
		switch {
		case err == nil && existing.ID != id:
			return repository.User{}, repository.ErrEmailTaken
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return repository.User{}, fmt.Errorf("check email: %w", err)
		}
	}

	user, err := s.userRepo.Update(ctx, id, upd)
	if err != nil {
		return repository.User{}, err
	}

	log.Info("Updated user", zap.Int64("id", user.ID))
	return user, nil
}

// DeleteUser removes a user by id.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	log := observability.L(ctx, s.logger)

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info("Deleted user", zap.Int64("id", id))
	return nil
}
