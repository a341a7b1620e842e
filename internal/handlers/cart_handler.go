package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"tienda/internal/services"
)

// CartHandler handles HTTP requests for the authenticated user's cart. The
// user is always taken from the token claims, never from the request path.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/", h.HandleAddToCart)
	cartRoutes.Put("/:id", h.HandleUpdateQuantity)
	cartRoutes.Delete("/:id", h.HandleRemoveLine)
}

// currentUserID reads the authenticated user's ID placed in the context by
// the auth middleware.
func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

// HandleGetCart lists the user's cart with live prices and subtotals.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	entries, err := h.service.ListCart(currentUserID(c))
	if err != nil {
		log.Printf("Error listing cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(entries)
}

// AddToCartRequest represents the request body for adding a product to the
// cart. A missing quantity defaults to 1.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// HandleAddToCart adds a product to the cart, merging into an existing line
// when one exists.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	mutation, err := h.service.AddToCart(currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error adding to cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not add to cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"action":       mutation.Action,
		"id":           mutation.LineID,
		"new_quantity": mutation.NewQuantity,
	})
}

// UpdateQuantityRequest represents the request body for a quantity change.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleUpdateQuantity overwrites a line's quantity; zero or less removes
// the line.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.UpdateQuantity(c.Params("id"), req.Quantity); err != nil {
		log.Printf("Error updating cart line: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update cart line",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleRemoveLine deletes a cart line. Removing an absent line succeeds.
func (h *CartHandler) HandleRemoveLine(c *fiber.Ctx) error {
	if err := h.service.RemoveFromCart(c.Params("id")); err != nil {
		log.Printf("Error removing cart line: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not remove cart line",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
