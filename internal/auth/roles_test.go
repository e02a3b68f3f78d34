package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront/internal/domain"
)

func newGuardApp(principal *Principal, errs *errorRecorder) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errs.handle})
	app.Use(func(c *fiber.Ctx) error {
		if principal != nil {
			c.SetUserContext(WithPrincipal(c.UserContext(), principal))
		}
		return c.Next()
	})

	ok := func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) }
	app.Get("/authenticated", RequireAuthenticated(), ok)
	app.Get("/admin", RequireRole(domain.RoleAdmin), ok)
	app.Get("/users/:id", RequireOwnerOrAdmin("id"), ok)
	app.Get("/owned-by/:owner", func(c *fiber.Ctx) error {
		owner, err := c.ParamsInt("owner")
		if err != nil {
			return err
		}
		if err := AuthorizeOwner(c, int64(owner)); err != nil {
			return err
		}
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func TestGuards(t *testing.T) {
	admin := &Principal{ID: 1, Username: "admin@example.com", Authorities: []string{"ROLE_ADMIN"}}
	customer := &Principal{ID: 2, Username: "customer@example.com", Authorities: []string{"ROLE_CUSTOMER"}}

	cases := []struct {
		name      string
		principal *Principal
		path      string
		want      int
	}{
		{"anonymous denied", nil, "/authenticated", http.StatusForbidden},
		{"authenticated allowed", customer, "/authenticated", http.StatusOK},
		{"admin role allowed", admin, "/admin", http.StatusOK},
		{"missing role denied", customer, "/admin", http.StatusForbidden},
		{"anonymous role denied", nil, "/admin", http.StatusForbidden},
		{"owner allowed", customer, "/users/2", http.StatusOK},
		{"non-owner denied", customer, "/users/5", http.StatusForbidden},
		{"non-numeric id denied", customer, "/users/me", http.StatusForbidden},
		{"admin overrides ownership", admin, "/users/5", http.StatusOK},
		{"anonymous ownership denied", nil, "/users/2", http.StatusForbidden},
		{"post check owner allowed", customer, "/owned-by/2", http.StatusOK},
		{"post check non-owner denied", customer, "/owned-by/5", http.StatusForbidden},
		{"post check admin allowed", admin, "/owned-by/5", http.StatusOK},
		{"post check anonymous denied", nil, "/owned-by/2", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := &errorRecorder{}
			app := newGuardApp(tc.principal, errs)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil), -1)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tc.want, resp.StatusCode)
			if tc.want == http.StatusForbidden {
				assert.ErrorIs(t, errs.last, ErrAuthorizationDenied)
			}
		})
	}
}
