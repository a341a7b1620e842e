package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tienda/internal/handlers"
	"tienda/internal/middleware"
	"tienda/internal/models"
	"tienda/internal/repositories"
	"tienda/internal/services"
)

// setupApp wires the full Fiber app over a fresh in-memory SQLite database
// and returns it together with the seeded catalog.
func setupApp(t *testing.T) (*fiber.App, []models.Product) {
	t.Helper()

	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

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

	// Repositories
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	products := seedCatalogForTest(t, categoryRepo, productRepo)

	// Services (nil publisher: no broker in tests)
	catalogService := services.NewCatalogService(categoryRepo)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo)
	orderService := services.NewOrderService(orderRepo, nil, 5*time.Second)
	authService := services.NewAuthService(userRepo, jwtSecret)

	// Handlers
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	catalogHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)
	productHandler.RegisterAdminRoutes(protected)

	return app, products
}

// seedCatalogForTest populates one category with two products.
func seedCatalogForTest(t *testing.T, categoryRepo repositories.CategoryRepository, productRepo repositories.ProductRepository) []models.Product {
	t.Helper()

	category := models.Category{Name: "Test Gear", Description: "For testing purposes"}
	require.NoError(t, categoryRepo.Create(&category))

	products := []models.Product{
		{Name: "Test Mouse", Description: "A test mouse", Price: 10.00, Stock: 50, CategoryID: category.ID},
		{Name: "Test Monitor", Description: "A test monitor", Price: 200.00, Stock: 10, CategoryID: category.ID},
	}
	for i := range products {
		require.NoError(t, productRepo.Create(&products[i]))
	}
	return products
}

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// doJSON sends a JSON request through the app, optionally authenticated.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerAndLogin creates a user and returns a session token.
func registerAndLogin(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]interface{}
	decodeBody(t, resp, &loginResp)
	token, _ := loginResp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, _ := setupApp(t)

	user := map[string]string{
		"email":    "test@example.com",
		"password": "password123",
		"name":     "Test User",
	}
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", user)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Duplicate registration
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", user)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login with the right password
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]interface{}
	decodeBody(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])

	// Login with a near-miss password
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "password124",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCartRoutesRequireAuth(t *testing.T) {
	app, _ := setupApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// The catalog stays public
	resp = doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/statuses", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var statuses []models.OrderStatus
	decodeBody(t, resp, &statuses)
	require.Len(t, statuses, 4)
	assert.Equal(t, "pending", statuses[0].Name)
	assert.Equal(t, "delivered", statuses[3].Name)
}

func TestCartCheckoutFlow(t *testing.T) {
	app, products := setupApp(t)
	mouse := products[0] // price 10.00
	token := registerAndLogin(t, app, "buyer@example.com", "password123")

	// Add the same product twice: the second call merges.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
		"product_id": mouse.ID,
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var addResp map[string]interface{}
	decodeBody(t, resp, &addResp)
	assert.Equal(t, "inserted", addResp["action"])

	resp = doJSON(t, app, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
		"product_id": mouse.ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &addResp)
	assert.Equal(t, "updated", addResp["action"])
	assert.EqualValues(t, 3, addResp["new_quantity"])

	// One line, quantity 3, subtotal 30.00
	resp = doJSON(t, app, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []models.CartEntry
	decodeBody(t, resp, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Quantity)
	assert.Equal(t, 30.00, entries[0].Subtotal)

	// Checkout: the cart becomes a pending order with a snapshotted line.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)
	assert.Equal(t, models.StatusPending, order.StatusID)
	assert.Equal(t, 30.00, order.Total)

	// The cart is now empty, and checkout on it fails.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &entries)
	assert.Empty(t, entries)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// The order shows up in the listing with its status name.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summaries []models.OrderSummary
	decodeBody(t, resp, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, order.ID, summaries[0].ID)
	assert.Equal(t, "pending", summaries[0].StatusName)
	assert.Equal(t, 30.00, summaries[0].Total)

	// The snapshot line keeps name, unit price and subtotal.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID+"/lines", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lines []models.OrderLine
	decodeBody(t, resp, &lines)
	require.Len(t, lines, 1)
	assert.Equal(t, "Test Mouse", lines[0].ProductName)
	assert.Equal(t, 10.00, lines[0].UnitPrice)
	assert.Equal(t, 30.00, lines[0].Subtotal)
}

func TestOrderStatusProgression(t *testing.T) {
	app, products := setupApp(t)
	token := registerAndLogin(t, app, "buyer@example.com", "password123")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
		"product_id": products[0].ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)

	// Forward to shipped is allowed (skipping processing is still forward).
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", token, map[string]int{
		"status_id": models.StatusShipped,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Backward to pending is rejected.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", token, map[string]int{
		"status_id": models.StatusPending,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Outside the vocabulary is rejected.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", token, map[string]int{
		"status_id": 9,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// An unknown order is a 404.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/orders/no-such-order/status", token, map[string]int{
		"status_id": models.StatusDelivered,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderEndpointsScopedToOwner(t *testing.T) {
	app, products := setupApp(t)
	ownerToken := registerAndLogin(t, app, "owner@example.com", "password123")
	otherToken := registerAndLogin(t, app, "other@example.com", "password123")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/cart", ownerToken, map[string]interface{}{
		"product_id": products[0].ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", ownerToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)

	// Someone else's order reads as missing, for lines and for status.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID+"/lines", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", otherToken, map[string]int{
		"status_id": models.StatusProcessing,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// ...and never shows up in their listing.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders", otherToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summaries []models.OrderSummary
	decodeBody(t, resp, &summaries)
	assert.Empty(t, summaries)

	// The owner keeps full access.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID+"/lines", ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", ownerToken, map[string]int{
		"status_id": models.StatusProcessing,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestCheckoutDeadlineSurfacesAsGatewayTimeout(t *testing.T) {
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
	))
	for _, status := range models.StatusVocabulary() {
		require.NoError(t, db.Create(&status).Error)
	}

	categoryRepo := repositories.NewGORMCategoryRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	products := seedCatalogForTest(t, categoryRepo, productRepo)
	require.NoError(t, cartRepo.Create(&models.CartLine{UserID: "user-1", ProductID: products[0].ID, Quantity: 1}))

	orderService := services.NewOrderService(repositories.NewGORMOrderRepository(db), nil, 5*time.Second)
	orderHandler := handlers.NewOrderHandler(orderService)

	app := fiber.New()
	// Every request arrives with an already-spent deadline, so the checkout
	// hits its time bound deterministically.
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		c.SetUserContext(ctx)
		c.Locals("user_id", "user-1")
		return c.Next()
	})
	orderHandler.RegisterRoutes(app.Group("/api/v1"))

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	resp.Body.Close()

	// The cart survives the timed-out checkout.
	entries, err := cartRepo.ListEntries("user-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	app, products := setupApp(t)
	token := registerAndLogin(t, app, "buyer@example.com", "password123")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
		"product_id": products[1].ID,
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var addResp map[string]interface{}
	decodeBody(t, resp, &addResp)
	lineID, _ := addResp["id"].(string)
	require.NotEmpty(t, lineID)

	resp = doJSON(t, app, http.MethodPut, "/api/v1/cart/"+lineID, token, map[string]int{
		"quantity": 0,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []models.CartEntry
	decodeBody(t, resp, &entries)
	assert.Empty(t, entries)

	// Deleting the already-gone line is still a success.
	resp = doJSON(t, app, http.MethodDelete, "/api/v1/cart/"+lineID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestProductAdminRoutes(t *testing.T) {
	app, products := setupApp(t)
	token := registerAndLogin(t, app, "admin@example.com", "password123")

	// Creating a product requires a token.
	newProduct := map[string]interface{}{
		"name":        "Test Webcam",
		"description": "A test webcam",
		"price":       49.99,
		"stock":       15,
		"category_id": products[0].CategoryID,
	}
	resp := doJSON(t, app, http.MethodPost, "/api/v1/products", "", newProduct)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/products", token, newProduct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)

	// The catalog now lists it with its category name.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var catalog []models.CatalogProduct
	decodeBody(t, resp, &catalog)
	require.Len(t, catalog, 3)
	found := false
	for _, p := range catalog {
		if p.ID == created.ID {
			found = true
			assert.Equal(t, "Test Gear", p.CategoryName)
		}
	}
	assert.True(t, found)

	// Delete it and verify it is gone.
	resp = doJSON(t, app, http.MethodDelete, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
