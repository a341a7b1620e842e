package services

import (
	"tienda/internal/models"
	"tienda/internal/repositories"
)

// CatalogService serves the read side of the catalog: categories and the
// order status vocabulary.
type CatalogService struct {
	categoryRepo repositories.CategoryRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(categoryRepo repositories.CategoryRepository) *CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
	}
}

// ListCategories returns all categories ordered by name.
func (s *CatalogService) ListCategories() ([]models.Category, error) {
	return s.categoryRepo.GetAll()
}

// ListStatuses returns the fixed order status vocabulary in progression
// order.
func (s *CatalogService) ListStatuses() []models.OrderStatus {
	return models.StatusVocabulary()
}
