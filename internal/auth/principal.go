package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AuthorityPrefix marks a role name as a grantable authority.
const AuthorityPrefix = "ROLE_"

// Principal represents the authenticated caller for a single request.
type Principal struct {
	ID          int64
	Username    string
	Authorities []string
}

// NewPrincipal maps role names to authorities. A role that already carries
// AuthorityPrefix means the claims were processed twice upstream and is rejected.
func NewPrincipal(id int64, username string, roles []string) (*Principal, error) {
	authorities := make([]string, 0, len(roles))
	for _, role := range roles {
		if role == "" {
			return nil, fmt.Errorf("%w: empty role name", ErrRoleFormatViolation)
		}
		if strings.HasPrefix(role, AuthorityPrefix) {
			return nil, fmt.Errorf("%w: %q", ErrRoleFormatViolation, role)
		}
		authorities = append(authorities, AuthorityPrefix+role)
	}
	return &Principal{ID: id, Username: username, Authorities: authorities}, nil
}

// HasAuthority reports whether the exact authority was granted.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// HasRole reports whether the unprefixed role was granted.
func (p *Principal) HasRole(role string) bool {
	return p.HasAuthority(AuthorityPrefix + role)
}

// Roles returns the authorities with the prefix removed.
func (p *Principal) Roles() []string {
	roles := make([]string, 0, len(p.Authorities))
	for _, a := range p.Authorities {
		roles = append(roles, strings.TrimPrefix(a, AuthorityPrefix))
	}
	return roles
}

type principalContextKey struct{}

// WithPrincipal stores the principal on a request-scoped context.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext retrieves the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	principal, ok := ctx.Value(principalContextKey{}).(*Principal)
	return principal, ok && principal != nil
}

// CurrentPrincipal returns the caller attached by the pipeline.
func CurrentPrincipal(c *fiber.Ctx) (*Principal, bool) {
	return PrincipalFromContext(c.UserContext())
}
