package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/repository"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

const testSecret = "this-is-a-32-byte-test-signing-k"

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testTokenConfig() TokenConfig {
	return TokenConfig{Secret: []byte(testSecret), TTL: DefaultTokenTTL}
}

func newTestCodec(t *testing.T, cfg TokenConfig) (*TokenCodec, *TokenValidator) {
	t.Helper()
	codec, err := NewTokenCodec(cfg)
	require.NoError(t, err)
	validator, err := NewTokenValidator(cfg)
	require.NoError(t, err)
	return codec, validator
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return hash
}

// fakeIdentityStore is a map-backed IdentityStore keyed by email.
type fakeIdentityStore struct {
	users map[string]*domain.User
	err   error
}

func (f *fakeIdentityStore) FindIdentityByUsername(_ context.Context, username string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func newFakeIdentityStore(t *testing.T) *fakeIdentityStore {
	t.Helper()
	return &fakeIdentityStore{users: map[string]*domain.User{
		"admin@example.com": {
			ID: 1, Email: "admin@example.com", PasswordHash: mustHash(t, "correct"),
			Role: domain.RoleAdmin, Status: domain.UserStatusActive,
		},
		"customer@example.com": {
			ID: 2, Email: "customer@example.com", PasswordHash: mustHash(t, "secret"),
			Role: domain.RoleCustomer, Status: domain.UserStatusActive,
		},
		"suspended@example.com": {
			ID: 3, Email: "suspended@example.com", PasswordHash: mustHash(t, "secret"),
			Role: domain.RoleCustomer, Status: domain.UserStatusSuspended,
		},
		"broken@example.com": {
			ID: 4, Email: "broken@example.com", PasswordHash: mustHash(t, "secret"),
			Role: "ROLE_CUSTOMER", Status: domain.UserStatusActive,
		},
	}}
}

// errorRecorder is a fiber error handler that keeps the last error for assertions.
type errorRecorder struct {
	last error
}

func (r *errorRecorder) handle(c *fiber.Ctx, err error) error {
	r.last = err
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.SendStatus(fiberErr.Code)
	}
	return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
}
