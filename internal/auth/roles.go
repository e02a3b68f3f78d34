package auth

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront/internal/domain"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

// AdminAuthority overrides ownership checks.
var AdminAuthority = AuthorityPrefix + string(domain.RoleAdmin)

// RequireAuthenticated rejects anonymous callers.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentPrincipal(c); !ok {
			return deny("anonymous caller")
		}
		return c.Next()
	}
}

// RequireRole ensures the principal holds the role's authority.
func RequireRole(role domain.Role) fiber.Handler {
	authority := AuthorityPrefix + string(role)
	return func(c *fiber.Ctx) error {
		principal, ok := CurrentPrincipal(c)
		if !ok || !principal.HasAuthority(authority) {
			return deny("missing authority " + authority)
		}
		return c.Next()
	}
}

// RequireOwnerOrAdmin ensures the principal id equals the numeric path parameter,
// unless the principal is an admin.
func RequireOwnerOrAdmin(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			return deny("anonymous caller")
		}
		if principal.HasAuthority(AdminAuthority) {
			return c.Next()
		}
		ownerID, err := strconv.ParseInt(c.Params(param), 10, 64)
		if err != nil || ownerID != principal.ID {
			return deny(fmt.Sprintf("principal %d does not own %s=%q", principal.ID, param, c.Params(param)))
		}
		return c.Next()
	}
}

// AuthorizeOwner is the post-handler form of the ownership check, for
// resources whose owner is only known after loading them.
func AuthorizeOwner(c *fiber.Ctx, ownerID int64) error {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return deny("anonymous caller")
	}
	if !IsOwnerOrAdmin(principal, ownerID) {
		return deny(fmt.Sprintf("principal %d does not own resource of user %d", principal.ID, ownerID))
	}
	return nil
}

// IsOwnerOrAdmin reports whether principal may act on a resource owned by ownerID.
func IsOwnerOrAdmin(principal *Principal, ownerID int64) bool {
	if principal == nil {
		return false
	}
	return principal.ID == ownerID || principal.HasAuthority(AdminAuthority)
}

func deny(reason string) error {
	return apperrors.NewForbidden(fmt.Errorf("%w: %s", ErrAuthorizationDenied, reason))
}
