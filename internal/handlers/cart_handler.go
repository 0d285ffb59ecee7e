package handlers

import (
	"errors"
	"log"

	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart. Carts are
// kept per scope: the user ID for logged-in callers, or the value of
// the X-Cart-Scope header a guest client picks for itself.
type CartHandler struct {
	cartService *services.CartService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService, authService *services.AuthService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the cart routes. Guests can build a cart,
// only checkout requires being signed in.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart", middleware.WithSession(h.authService))
	cartRoutes.Get("/", h.HandleGet)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:index", h.HandleUpdateQuantity)
	cartRoutes.Delete("/items/:index", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClear)
	cartRoutes.Post("/checkout", h.HandleCheckout)
}

func (h *CartHandler) scope(c *fiber.Ctx) string {
	sess := middleware.SessionFromContext(c)
	if sess.IsLoggedIn() {
		return sess.UserID
	}
	if scope := c.Get("X-Cart-Scope"); scope != "" {
		return scope
	}
	return "anonymous"
}

// HandleGet returns the current cart with its totals.
func (h *CartHandler) HandleGet(c *fiber.Ctx) error {
	cart, err := h.cartService.Get(h.scope(c))
	if err != nil {
		log.Printf("Error loading cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível carregar o carrinho",
		})
	}
	return h.cartResponse(c, cart)
}

// AddItemRequest represents the request body for adding to the cart.
type AddItemRequest struct {
	ProductID string `json:"productId"`
	Title     string `json:"title" validate:"required"`
	Price     int    `json:"price" validate:"required,gt=0"`
}

// HandleAddItem puts a product in the cart. Adding a title already in
// the cart bumps that line's quantity instead of creating a new line.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	cart, err := h.cartService.AddItem(h.scope(c), req.Title, req.Price, req.ProductID)
	if err != nil {
		log.Printf("Error adding to cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível adicionar ao carrinho",
		})
	}
	return h.cartResponse(c, cart)
}

// QuantityRequest represents the request body for a quantity change.
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleUpdateQuantity sets a line's quantity. Zero or less removes
// the line.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid cart line index",
		})
	}
	var req QuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	cart, err := h.cartService.UpdateQuantity(h.scope(c), index, req.Quantity)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Linha do carrinho inválida",
			"error":   err.Error(),
		})
	}
	return h.cartResponse(c, cart)
}

// HandleRemoveItem drops one line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid cart line index",
		})
	}

	cart, err := h.cartService.RemoveItem(h.scope(c), index)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Linha do carrinho inválida",
			"error":   err.Error(),
		})
	}
	return h.cartResponse(c, cart)
}

// HandleClear empties the cart.
func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	if err := h.cartService.Clear(h.scope(c)); err != nil {
		log.Printf("Error clearing cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível limpar o carrinho",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Carrinho limpo",
		"items":   []interface{}{},
	})
}

// HandleCheckout converts the cart into a marketplace order. The cart
// survives a refused checkout so a guest can sign in and try again.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	sess := middleware.SessionFromContext(c)
	order, err := h.cartService.Checkout(h.scope(c), sess)
	switch {
	case err == nil:
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Pedido criado com sucesso",
			"order":   order,
		})
	case errors.Is(err, services.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "O carrinho está vazio",
		})
	case errors.Is(err, services.ErrLoginRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message":  "Inicie sessão para finalizar a compra",
			"redirect": services.PageLogin,
		})
	case order != nil:
		// The order went through but the cart could not be cleared;
		// report success and let the client drop its local copy.
		log.Printf("Checkout succeeded but cart cleanup failed: %v", err)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Pedido criado com sucesso",
			"order":   order,
		})
	default:
		log.Printf("Error during checkout: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível concluir a compra",
		})
	}
}

func (h *CartHandler) cartResponse(c *fiber.Ctx, cart models.Cart) error {
	return c.JSON(fiber.Map{
		"items":     cart,
		"total":     cart.Total(),
		"itemCount": cart.ItemCount(),
	})
}
