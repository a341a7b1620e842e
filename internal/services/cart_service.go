package services

import (
	"fmt"

	"tienda/internal/models"
	"tienda/internal/repositories"
)

// CartService handles business logic for the per-user cart.
type CartService struct {
	repo repositories.CartRepository
}

// NewCartService creates a new CartService.
func NewCartService(repo repositories.CartRepository) *CartService {
	return &CartService{
		repo: repo,
	}
}

// AddToCart adds a product to the user's cart. If the user already has a
// line for the product, the requested quantity is merged into it; otherwise
// a new line is inserted. A quantity below 1 defaults to 1.
func (s *CartService) AddToCart(userID, productID string, quantity int) (models.CartMutation, error) {
	if quantity < 1 {
		quantity = 1
	}

	existing, err := s.repo.FindLine(userID, productID)
	if err != nil {
		return models.CartMutation{}, err
	}

	if existing != nil {
		newQuantity := existing.Quantity + quantity
		if err := s.repo.SetQuantity(existing.ID, newQuantity); err != nil {
			return models.CartMutation{}, err
		}
		return models.CartMutation{
			Action:      models.CartActionUpdated,
			LineID:      existing.ID,
			NewQuantity: newQuantity,
		}, nil
	}

	line := models.CartLine{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.repo.Create(&line); err != nil {
		return models.CartMutation{}, fmt.Errorf("failed to add product %s to cart: %w", productID, err)
	}
	return models.CartMutation{
		Action:      models.CartActionInserted,
		LineID:      line.ID,
		NewQuantity: quantity,
	}, nil
}

// UpdateQuantity overwrites the quantity of a cart line. A quantity of zero
// or less removes the line instead. Updating a line that no longer exists
// succeeds silently, so retries are harmless.
func (s *CartService) UpdateQuantity(lineID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(lineID)
	}
	return s.repo.SetQuantity(lineID, quantity)
}

// RemoveFromCart deletes a cart line. An absent line is not an error.
func (s *CartService) RemoveFromCart(lineID string) error {
	return s.repo.Delete(lineID)
}

// ListCart returns the user's cart joined with live product data, newest
// line first. Subtotals track the current product price until checkout
// freezes them into order lines.
func (s *CartService) ListCart(userID string) ([]models.CartEntry, error) {
	return s.repo.ListEntries(userID)
}
