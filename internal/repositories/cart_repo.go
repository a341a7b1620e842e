package repositories

import "tienda/internal/models"

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// FindLine returns the cart line for (userID, productID), or (nil, nil)
	// if the user has no line for that product.
	FindLine(userID, productID string) (*models.CartLine, error)
	Create(line *models.CartLine) error
	// SetQuantity overwrites the quantity of a line. A missing line is not
	// an error; the call is a no-op then.
	SetQuantity(lineID string, quantity int) error
	// Delete removes a line. A missing line is not an error.
	Delete(lineID string) error
	// ListEntries returns the user's cart joined with live product data,
	// newest line first, each entry carrying a computed subtotal.
	ListEntries(userID string) ([]models.CartEntry, error)
	// ClearUser removes every cart line belonging to the user.
	ClearUser(userID string) error
}
