package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"tienda/internal/services"
)

// CatalogHandler handles the public read side of the catalog.
type CatalogHandler struct {
	service *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		service: service,
	}
}

// RegisterRoutes registers the catalog routes with the Fiber app.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/categories", h.HandleGetCategories)
	router.Get("/statuses", h.HandleGetStatuses)
}

// HandleGetCategories lists all categories ordered by name.
func (h *CatalogHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories()
	if err != nil {
		log.Printf("Error getting categories: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve categories",
			"error":   err.Error(),
		})
	}
	return c.JSON(categories)
}

// HandleGetStatuses lists the order status vocabulary.
func (h *CatalogHandler) HandleGetStatuses(c *fiber.Ctx) error {
	return c.JSON(h.service.ListStatuses())
}
