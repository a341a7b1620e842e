package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tienda/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetCatalog retrieves all products joined with their category name,
// ordered by category name then product name.
func (r *GORMProductRepository) GetCatalog() ([]models.CatalogProduct, error) {
	var rows []models.CatalogProduct
	err := r.db.Table("products").
		Select("products.id, products.name, products.description, products.price, products.stock, products.category_id, categories.name AS category_name").
		Joins("JOIN categories ON categories.id = products.category_id").
		Order("categories.name, products.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	return rows, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Save does not return ErrRecordNotFound for a missing row, so we
		// check RowsAffected ourselves.
		return fmt.Errorf("product %s not found for update: %w", product.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s not found for deletion: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
