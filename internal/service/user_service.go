package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/repository"
)

// UserService reads storefront accounts.
type UserService struct {
	users repository.UserRepository
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// List pages through all users.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return s.users.List(ctx, limit, offset)
}

// BootstrapAdmin creates the configured admin account when it does not exist.
// It is idempotent and does nothing when email or password is empty.
func BootstrapAdmin(ctx context.Context, users repository.UserRepository, email, password string, bcryptCost int, logger *zap.Logger) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := users.FindIdentityByUsername(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	hash, err := auth.HashPassword(password, bcryptCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}

	admin := &domain.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	logger.Info("bootstrap admin created", zap.Int64("user_id", admin.ID), zap.String("email", email))
	return nil
}
