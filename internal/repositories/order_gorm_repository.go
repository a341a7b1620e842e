package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tienda/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// CreateFromCart runs the cart-to-order conversion in a single transaction:
// read the cart joined with products, insert the order, insert one snapshot
// line per cart line, delete the cart. The order total is computed from the
// snapshot subtotals; it is never accepted from the caller. If any statement
// fails, or ctx expires, the transaction rolls back and the cart is left
// untouched.
func (r *GORMOrderRepository) CreateFromCart(ctx context.Context, userID string) (*models.Order, error) {
	var order *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, err := listCartEntries(tx, userID)
		if err != nil {
			return fmt.Errorf("failed to read cart for user %s: %w", userID, err)
		}
		if len(entries) == 0 {
			return ErrEmptyCart
		}

		var total float64
		lines := make([]models.OrderLine, 0, len(entries))
		lineIDs := make([]string, 0, len(entries))
		orderID := uuid.New().String()
		for _, e := range entries {
			lineIDs = append(lineIDs, e.ID)
			lines = append(lines, models.OrderLine{
				ID:                 uuid.New().String(),
				OrderID:            orderID,
				ProductID:          e.ProductID,
				ProductName:        e.Name,
				ProductDescription: e.Description,
				Quantity:           e.Quantity,
				UnitPrice:          e.Price,
				Subtotal:           e.Subtotal,
			})
			total += e.Subtotal
		}

		o := models.Order{
			ID:       orderID,
			UserID:   userID,
			StatusID: models.StatusPending,
			Total:    total,
		}
		if err := tx.Create(&o).Error; err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to insert order lines: %w", err)
		}
		// Delete exactly the lines that were snapshotted. A line committed
		// by a concurrent add after the read above stays in the cart.
		if err := tx.Delete(&models.CartLine{}, "id IN ?", lineIDs).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		o.Lines = lines
		order = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(orderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	return &order, nil
}

// ListByUser returns the user's orders joined with their status name,
// newest first.
func (r *GORMOrderRepository) ListByUser(userID string) ([]models.OrderSummary, error) {
	var summaries []models.OrderSummary
	err := r.db.Table("orders").
		Select("orders.id, orders.user_id, orders.status_id, order_statuses.name AS status_name, orders.total, orders.created_at, orders.updated_at").
		Joins("JOIN order_statuses ON order_statuses.id = orders.status_id").
		Where("orders.user_id = ?", userID).
		Order("orders.created_at DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return summaries, nil
}

// ListLines returns the snapshot lines of an order in creation order,
// with the line id as a tiebreaker so batch-inserted lines come back
// in a stable sequence.
func (r *GORMOrderRepository) ListLines(orderID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := r.db.Where("order_id = ?", orderID).Order("created_at, id").Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lines for order %s: %w", orderID, err)
	}
	return lines, nil
}

// UpdateStatus overwrites the status of an order and touches its updated
// timestamp. Transition validation happens in the service layer.
func (r *GORMOrderRepository) UpdateStatus(orderID string, statusID int) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{"status_id": statusID, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update status for order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s not found for status update: %w", orderID, gorm.ErrRecordNotFound)
	}
	return nil
}
