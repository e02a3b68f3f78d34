package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront/internal/api/dto"
	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/repository"
	"github.com/spec-kit/storefront/internal/service"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

// CartsHandler exposes cart endpoints. The owner of a cart is only known once
// it is loaded, so ownership is checked after the lookup.
type CartsHandler struct {
	carts *service.CartService
}

// NewCartsHandler constructs handler.
func NewCartsHandler(carts *service.CartService) *CartsHandler {
	return &CartsHandler{carts: carts}
}

// Get handles GET /api/v1/carts/:id.
func (h *CartsHandler) Get(c *fiber.Ctx) error {
	cart, err := h.loadOwned(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cart})
}

// AddItem handles POST /api/v1/carts/:id/items.
func (h *CartsHandler) AddItem(c *fiber.Ctx) error {
	cart, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	var req dto.AddCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	updated, err := h.carts.AddItem(c.UserContext(), cart.ID, domain.CartItem{ProductID: req.ProductID, Quantity: req.Quantity})
	if err != nil {
		return mapCartError(err, cart.ID)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": updated})
}

func (h *CartsHandler) loadOwned(c *fiber.Ctx) (*domain.Cart, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, apperrors.NewValidationError("invalid cart id", nil)
	}
	cart, err := h.carts.Get(c.UserContext(), int64(id))
	if err != nil {
		return nil, mapCartError(err, int64(id))
	}
	if err := auth.AuthorizeOwner(c, cart.UserID); err != nil {
		return nil, err
	}
	return cart, nil
}

func mapCartError(err error, id int64) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("cart", map[string]any{"id": id})
	case errors.Is(err, service.ErrInvalidCartItem):
		return apperrors.NewValidationError(err.Error(), nil)
	default:
		return apperrors.NewInternalError(err)
	}
}
