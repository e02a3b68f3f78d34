package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/repository"
)

// IdentityStore looks up stored identities by login name.
type IdentityStore interface {
	FindIdentityByUsername(ctx context.Context, username string) (*domain.User, error)
}

// AuthenticatedUser is a verified identity that has not been issued a token yet.
type AuthenticatedUser struct {
	ID       int64
	Username string
	Roles    []string
}

// CredentialAuthenticator verifies username/password pairs.
type CredentialAuthenticator struct {
	identities IdentityStore
	passwords  PasswordVerifier
}

// NewCredentialAuthenticator constructs the authenticator.
func NewCredentialAuthenticator(identities IdentityStore, passwords PasswordVerifier) *CredentialAuthenticator {
	if passwords == nil {
		passwords = BcryptVerifier{}
	}
	return &CredentialAuthenticator{identities: identities, passwords: passwords}
}

// Authenticate returns ErrAuthenticationFailed for unknown users, inactive
// accounts and wrong passwords. Store errors are returned as-is.
func (a *CredentialAuthenticator) Authenticate(ctx context.Context, username, password string) (*AuthenticatedUser, error) {
	user, err := a.identities.FindIdentityByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if !user.Active() {
		return nil, ErrAuthenticationFailed
	}
	if !a.passwords.Verify(password, user.PasswordHash) {
		return nil, ErrAuthenticationFailed
	}

	roles := []string{}
	if user.Role != "" {
		roles = append(roles, string(user.Role))
	}
	return &AuthenticatedUser{ID: user.ID, Username: user.Email, Roles: roles}, nil
}
