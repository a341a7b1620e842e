package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tienda/internal/models"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// FindLine returns the cart line for (userID, productID), or (nil, nil) if
// none exists.
func (r *GORMCartRepository) FindLine(userID, productID string) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.First(&line, "user_id = ? AND product_id = ?", userID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart line: %w", err)
	}
	return &line, nil
}

// Create inserts a new cart line.
func (r *GORMCartRepository) Create(line *models.CartLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	if err := r.db.Create(line).Error; err != nil {
		return fmt.Errorf("failed to create cart line: %w", err)
	}
	return nil
}

// SetQuantity overwrites the quantity of a line and touches its updated
// timestamp. Zero rows affected is treated as success.
func (r *GORMCartRepository) SetQuantity(lineID string, quantity int) error {
	res := r.db.Model(&models.CartLine{}).
		Where("id = ?", lineID).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update cart line quantity: %w", res.Error)
	}
	return nil
}

// Delete removes a line by its ID. A missing line is not an error.
func (r *GORMCartRepository) Delete(lineID string) error {
	if err := r.db.Delete(&models.CartLine{}, "id = ?", lineID).Error; err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}

// ListEntries returns the user's cart joined with live product data, newest
// line first.
func (r *GORMCartRepository) ListEntries(userID string) ([]models.CartEntry, error) {
	entries, err := listCartEntries(r.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart for user %s: %w", userID, err)
	}
	return entries, nil
}

// ClearUser removes every cart line belonging to the user.
func (r *GORMCartRepository) ClearUser(userID string) error {
	if err := r.db.Delete(&models.CartLine{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to clear cart for user %s: %w", userID, err)
	}
	return nil
}

// listCartEntries runs the cart/product join. It is shared with the order
// repository, which needs the same read inside its checkout transaction.
func listCartEntries(tx *gorm.DB, userID string) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	err := tx.Table("cart_lines").
		Select("cart_lines.id, cart_lines.user_id, cart_lines.product_id, cart_lines.quantity, products.name, products.description, products.price, (products.price * cart_lines.quantity) AS subtotal").
		Joins("JOIN products ON products.id = cart_lines.product_id").
		Where("cart_lines.user_id = ?", userID).
		Order("cart_lines.created_at DESC").
		Scan(&entries).Error
	return entries, err
}
