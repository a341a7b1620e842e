package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"tienda/internal/services"
)

// OrderHandler handles HTTP requests for the order workflow.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/:id/lines", h.HandleGetOrderLines)
	orderRoutes.Patch("/:id/status", h.HandleAdvanceStatus)
}

// HandleGetOrders lists the user's orders, newest first, with status names.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(currentUserID(c))
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleCreateOrder converts the user's cart into a new order. The request
// carries no body: the cart is the input and the total is computed
// server-side.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	order, err := h.service.CreateOrder(c.UserContext(), currentUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Cart is empty",
			})
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
				"message": "Checkout timed out",
			})
		}
		log.Printf("Error creating order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create order",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrderLines lists the snapshot lines of one of the caller's
// orders. Someone else's order reads as not found.
func (h *OrderHandler) HandleGetOrderLines(c *fiber.Ctx) error {
	lines, err := h.service.ListOrderLines(c.Params("id"), currentUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		log.Printf("Error listing order lines: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order lines",
			"error":   err.Error(),
		})
	}
	return c.JSON(lines)
}

// AdvanceStatusRequest represents the request body for a status change.
type AdvanceStatusRequest struct {
	StatusID int `json:"status_id"`
}

// HandleAdvanceStatus moves one of the caller's orders forward through
// the status progression.
func (h *OrderHandler) HandleAdvanceStatus(c *fiber.Ctx) error {
	var req AdvanceStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	orderID := c.Params("id")
	if err := h.service.AdvanceStatus(orderID, currentUserID(c), req.StatusID); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		if errors.Is(err, services.ErrInvalidTransition) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Invalid status transition",
				"error":   err.Error(),
			})
		}
		log.Printf("Error advancing status for order %s: %v", orderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update order status",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
