package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/storefront/internal/api/http/handlers"
	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Users    *handlers.UsersHandler
	Carts    *handlers.CartsHandler
	Pipeline *auth.Pipeline
	Metrics  http.Handler
}

// RegisterRoutes wires HTTP routes. The auth pipeline is installed ahead of
// every route and answers the login path itself.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Pipeline.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	api := app.Group("/api/v1")

	users := api.Group("/users", auth.RequireAuthenticated())
	users.Get("/me", cfg.Users.Me)
	users.Get("/", auth.RequireRole(domain.RoleAdmin), cfg.Users.List)
	users.Get("/:id", auth.RequireOwnerOrAdmin("id"), cfg.Users.Get)

	carts := api.Group("/carts", auth.RequireAuthenticated())
	carts.Get("/:id", cfg.Carts.Get)
	carts.Post("/:id/items", cfg.Carts.AddItem)
}
