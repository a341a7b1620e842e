package models

import "time"

// CartLine binds a user to a product with a quantity, pending conversion
// into an order. At most one line exists per (user, product) pair; adding
// the same product again merges into the existing line.
type CartLine struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_user_product"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_user_product"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartEntry is a cart line joined with live product data. Subtotal is the
// current price times quantity; it is recomputed on every read and only
// frozen when the cart becomes an order.
type CartEntry struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	ProductID   string  `json:"product_id"`
	Quantity    int     `json:"quantity"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

// Cart mutation actions reported by AddToCart.
const (
	CartActionInserted = "inserted"
	CartActionUpdated  = "updated"
)

// CartMutation describes the outcome of an add-to-cart call: either a new
// line was inserted or an existing one had its quantity bumped.
type CartMutation struct {
	Action      string `json:"action"`
	LineID      string `json:"id,omitempty"`
	NewQuantity int    `json:"new_quantity,omitempty"`
}
