package repositories

import (
	"context"
	"errors"

	"tienda/internal/models"
)

// ErrEmptyCart is returned by CreateFromCart when the user's cart holds no
// lines. Nothing is written in that case.
var ErrEmptyCart = errors.New("cart is empty")

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// CreateFromCart converts the user's cart into a new pending order with
	// snapshotted line items and clears the cart, all as one atomic unit.
	// Any failure rolls the whole conversion back, leaving the cart intact.
	CreateFromCart(ctx context.Context, userID string) (*models.Order, error)
	GetByID(orderID string) (*models.Order, error)
	ListByUser(userID string) ([]models.OrderSummary, error)
	ListLines(orderID string) ([]models.OrderLine, error)
	UpdateStatus(orderID string, statusID int) error
}
