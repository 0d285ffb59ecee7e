package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"mercado/internal/handlers"
	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/repositories"
	"mercado/internal/services"
	"mercado/pkg/localstore"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp wires a full Fiber app against in-memory SQLite, mirroring
// the production wiring without RabbitMQ.
func setupApp(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}))

	store, err := localstore.Open("")
	assert.NoError(t, err)

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	authService := services.NewAuthService(userRepo, "test_jwt_secret", nil)
	productService := services.NewProductService(productRepo, nil)
	orderService := services.NewOrderService(orderRepo, userRepo, productRepo, nil)
	cartService := services.NewCartService(store, orderService)
	migrationService := services.NewMigrationService(store, productRepo, orderRepo, userRepo)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	productHandler := handlers.NewProductHandler(productService)
	productHandler.RegisterRoutes(apiV1)
	orderHandler := handlers.NewOrderHandler(orderService, authService)
	orderHandler.RegisterRoutes(apiV1)
	handlers.NewCartHandler(cartService, authService).RegisterRoutes(apiV1)
	handlers.NewMigrationHandler(migrationService).RegisterRoutes(apiV1)

	adminAPI := apiV1.Group("/admin", middleware.AdminRequired(authService))
	handlers.NewAdminHandler(authService, orderService).RegisterRoutes(adminAPI)
	productHandler.RegisterAdminRoutes(adminAPI)
	orderHandler.RegisterAdminRoutes(adminAPI)

	app.Get("/login", middleware.PageGate(authService, services.PagePublic), pageStub("login"))
	app.Get("/dashboard", middleware.PageGate(authService, services.PageRequiresAuth), pageStub("dashboard"))
	app.Get("/admin", middleware.PageGate(authService, services.PageRequiresAdmin), pageStub("admin"))

	return app, authService
}

func pageStub(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"page": name})
	}
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	resp.Body.Close()
	return resp, decoded
}

func registerAndLogin(t *testing.T, app *fiber.App, name, email, password string) string {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func bootstrapAdmin(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/migration/super-admin", "", map[string]string{
		"name": "Root", "email": "root@example.com", "password": "rootpass123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "root@example.com", "password": "rootpass123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func TestRegisterLoginAndSession(t *testing.T) {
	app, authService := setupApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "whatsapp": "+258841234567", "password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["token"], "regular accounts are live immediately")

	// Duplicate email is refused.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ana Again", "email": "ana@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Malformed phone number never reaches the service.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Bad Phone", "email": "bad@example.com", "whatsapp": "841234567", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/dashboard", body["redirect"])
	token, _ := body["token"].(string)

	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims["email"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/auth/session", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "regular", body["role"])
	assert.Equal(t, true, body["loggedIn"])

	// Garbage token degrades to anonymous instead of failing.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/auth/session", "garbage", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "anonymous", body["role"])
}

func TestAdminApprovalFlow(t *testing.T) {
	app, _ := setupApp(t)
	rootToken := bootstrapAdmin(t, app)

	// Register an admin candidate: no token comes back.
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Bruno", "email": "bruno@example.com", "password": "password123", "type": "admin",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["needsApproval"])
	assert.Nil(t, body["token"])

	// Until approved the candidate cannot log in.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "bruno@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The candidate shows up in the approval queue.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/admin/approvals", rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	pending, _ := body["users"].([]interface{})
	assert.Len(t, pending, 1)
	candidate := pending[0].(map[string]interface{})
	candidateID, _ := candidate["id"].(string)
	assert.NotEmpty(t, candidateID)

	// Approve and log in: now lands on the admin console.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/users/"+candidateID+"/approve", rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "bruno@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/admin", body["redirect"])
}

func TestAdminRejectionFlow(t *testing.T) {
	app, _ := setupApp(t)
	rootToken := bootstrapAdmin(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Bruno", "email": "bruno@example.com", "password": "password123", "type": "admin",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/admin/approvals", rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	pending, _ := body["users"].([]interface{})
	candidateID, _ := pending[0].(map[string]interface{})["id"].(string)

	// Rejection without confirmation is refused.
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/admin/users/"+candidateID, rootToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/admin/users/"+candidateID+"?confirm=true", rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The account is gone entirely.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "bruno@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The bootstrap admin itself is not rejectable.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/admin/users", rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	users, _ := body["users"].([]interface{})
	for _, u := range users {
		record := u.(map[string]interface{})
		if record["email"] == "root@example.com" {
			resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/admin/users/"+record["id"].(string)+"?confirm=true", rootToken, nil)
			assert.Equal(t, http.StatusConflict, resp.StatusCode)
		}
	}
}

func TestProductLifecycle(t *testing.T) {
	app, _ := setupApp(t)
	rootToken := bootstrapAdmin(t, app)

	// The public catalog needs no session.
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/admin/products", rootToken, map[string]interface{}{
		"title": "Headphones Premium X", "price": 1850, "category": "electronics",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := body["product"].(map[string]interface{})
	productID := created["id"].(string)
	assert.Equal(t, "active", created["status"])
	assert.NotEmpty(t, created["image"], "a default image fills in")

	// Shoppers see it.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["products"], 1)

	// Regular users cannot manage the catalog.
	userToken := registerAndLogin(t, app, "Ana", "ana@example.com", "password123")
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/products", userToken, map[string]interface{}{
		"title": "Nope", "price": 1,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPut, "/api/v1/admin/products/"+productID, rootToken, map[string]interface{}{
		"title": "Headphones Premium X2", "price": 1990, "category": "electronics",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Soft delete: gone from the storefront, present in the admin list.
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/admin/products/"+productID, rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["products"], 0)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/admin/products", rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["products"], 1)
	remaining := body["products"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "inactive", remaining["status"])
}

func TestServiceOrderFlow(t *testing.T) {
	app, _ := setupApp(t)
	rootToken := bootstrapAdmin(t, app)

	// Anyone can request a service, no account needed.
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/orders", "", map[string]string{
		"name": "Carlos", "whatsapp": "+258841234567", "service": "Criação de Sites",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	order := body["order"].(map[string]interface{})
	orderID := order["id"].(string)
	assert.Equal(t, float64(1500), order["amount"])
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, "anonymous", order["userId"])

	// A bad phone number is rejected before anything is stored.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders", "", map[string]string{
		"name": "Carlos", "whatsapp": "84123", "service": "Criação de Sites",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Listing orders requires a session.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A regular user sees only their own orders.
	userToken := registerAndLogin(t, app, "Ana", "ana@example.com", "password123")
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/orders", userToken, map[string]string{
		"name": "Ana", "whatsapp": "+258841234567", "service": "Criação de Logos",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/orders", userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["orders"], 1)

	// The anonymous order is off-limits to them.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+orderID, userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The admin sees everything and drives the lifecycle.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/orders", rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["orders"], 2)

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", rootToken, map[string]string{"status": "processing"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", rootToken, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Terminal means terminal.
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", rootToken, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", rootToken, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Regular users cannot touch the lifecycle at all.
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", userToken, map[string]string{"status": "processing"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Completed revenue shows up on the dashboard.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/admin/stats", rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(1500), stats["revenue"])
	assert.Equal(t, float64(2), stats["totalOrders"])
}

func TestCartCheckoutFlow(t *testing.T) {
	app, _ := setupApp(t)

	addItem := func(token, scope string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte(`{"productId":"p1","title":"Headphones","price":1850}`)))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if scope != "" {
			req.Header.Set("X-Cart-Scope", scope)
		}
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		return resp
	}

	// A guest builds a cart under their own scope.
	resp := addItem("", "guest-abc")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = addItem("", "guest-abc")
	var cartBody map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&cartBody))
	resp.Body.Close()
	assert.Equal(t, float64(3700), cartBody["total"])
	assert.Equal(t, float64(2), cartBody["itemCount"])
	assert.Len(t, cartBody["items"], 1, "same title merges into one line")

	// Checkout as a guest is refused and points at the login page.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", bytes.NewReader(nil))
	req.Header.Set("X-Cart-Scope", "guest-abc")
	guestResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, guestResp.StatusCode)
	var refused map[string]interface{}
	assert.NoError(t, json.NewDecoder(guestResp.Body).Decode(&refused))
	guestResp.Body.Close()
	assert.Equal(t, "/login", refused["redirect"])

	// A logged-in user checks out their own cart.
	token := registerAndLogin(t, app, "Ana", "ana@example.com", "password123")
	resp = addItem(token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	checkoutResp, body := doJSON(t, app, http.MethodPost, "/api/v1/cart/checkout", token, nil)
	assert.Equal(t, http.StatusCreated, checkoutResp.StatusCode)
	order := body["order"].(map[string]interface{})
	assert.Equal(t, "marketplace", order["type"])
	assert.Equal(t, float64(1850), order["amount"])

	// Their cart is now empty, checkout again refuses.
	emptyResp, _ := doJSON(t, app, http.MethodPost, "/api/v1/cart/checkout", token, nil)
	assert.Equal(t, http.StatusBadRequest, emptyResp.StatusCode)
}

func TestPageGateRedirects(t *testing.T) {
	app, _ := setupApp(t)

	get := func(path, token string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	// Anonymous: gated pages bounce to /login.
	resp := get("/dashboard", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = get("/admin", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	assert.Equal(t, http.StatusOK, get("/login", "").StatusCode)

	// Regular user: dashboard OK, admin bounces to /dashboard.
	userToken := registerAndLogin(t, app, "Ana", "ana@example.com", "password123")
	assert.Equal(t, http.StatusOK, get("/dashboard", userToken).StatusCode)

	resp = get("/admin", userToken)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	// Administrator: admin OK, dashboard bounces to /admin.
	rootToken := bootstrapAdmin(t, app)
	assert.Equal(t, http.StatusOK, get("/admin", rootToken).StatusCode)

	resp = get("/dashboard", rootToken)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))
}

func TestMigrationEndpoints(t *testing.T) {
	app, _ := setupApp(t)
	bootstrapAdmin(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/migration/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["imported"], "nothing staged imports nothing")

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/migration/orders", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["imported"])

	// A second super admin with the same email is refused.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/migration/super-admin", "", map[string]string{
		"name": "Root Again", "email": "root@example.com", "password": "rootpass123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
