package models

import "time"

// Order lifecycle statuses. The progression is strictly forward:
// Pending -> Processing -> Shipped -> Delivered.
const (
	StatusPending    = 1
	StatusProcessing = 2
	StatusShipped    = 3
	StatusDelivered  = 4
)

// OrderStatus is one entry of the fixed status vocabulary.
type OrderStatus struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"type:varchar(50)"`
	Description string `json:"description"`
}

// Order is an immutable-once-created record of a purchase. Only the status
// field changes after creation.
type Order struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string      `json:"user_id" gorm:"type:varchar(36);index"`
	StatusID  int         `json:"status_id"`
	Total     float64     `json:"total"`
	Lines     []OrderLine `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderLine is a frozen copy of product data taken at order-creation time.
// Name, description, unit price and subtotal never track later product
// edits; historical orders keep what the customer actually bought.
type OrderLine struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID            string    `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID          string    `json:"product_id" gorm:"type:varchar(36)"`
	ProductName        string    `json:"product_name" gorm:"type:varchar(100)"`
	ProductDescription string    `json:"product_description"`
	Quantity           int       `json:"quantity"`
	UnitPrice          float64   `json:"unit_price"`
	Subtotal           float64   `json:"subtotal"`
	CreatedAt          time.Time `json:"created_at"`
}

// OrderSummary is an order row joined with its status name, as the order
// listing returns it.
type OrderSummary struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	StatusID   int       `json:"status_id"`
	StatusName string    `json:"status_name"`
	Total      float64   `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StatusVocabulary returns the fixed set of order statuses in progression
// order, used to seed the store at startup.
func StatusVocabulary() []OrderStatus {
	return []OrderStatus{
		{ID: StatusPending, Name: "pending", Description: "Order received, awaiting processing"},
		{ID: StatusProcessing, Name: "processing", Description: "Order is being prepared"},
		{ID: StatusShipped, Name: "shipped", Description: "Order has left the warehouse"},
		{ID: StatusDelivered, Name: "delivered", Description: "Order delivered to the customer"},
	}
}
