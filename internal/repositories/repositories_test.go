package repositories_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tienda/internal/models"
	"tienda/internal/repositories"
)

// newTestDB opens a fresh in-memory SQLite database for one test. The DSN
// is derived from the test name so parallel packages never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.CartLine{},
		&models.Order{},
		&models.OrderLine{},
		&models.OrderStatus{},
		&models.User{},
	))
	for _, status := range models.StatusVocabulary() {
		require.NoError(t, db.Create(&status).Error)
	}
	return db
}

// seedProduct inserts a category and a product and returns the product.
func seedProduct(t *testing.T, db *gorm.DB, name string, price float64) models.Product {
	t.Helper()

	category := models.Category{Name: "Electronics", Description: "Gadgets"}
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	require.NoError(t, categoryRepo.Create(&category))

	product := models.Product{
		Name:        name,
		Description: "A " + name,
		Price:       price,
		Stock:       100,
		CategoryID:  category.ID,
	}
	productRepo := repositories.NewGORMProductRepository(db)
	require.NoError(t, productRepo.Create(&product))
	return product
}

// addCartLine inserts a cart line with an explicit creation time, so tests
// can assert on ordering.
func addCartLine(t *testing.T, db *gorm.DB, userID, productID string, quantity int, createdAt time.Time) models.CartLine {
	t.Helper()

	line := models.CartLine{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: createdAt,
	}
	require.NoError(t, repositories.NewGORMCartRepository(db).Create(&line))
	return line
}
