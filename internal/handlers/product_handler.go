package handlers

import (
	"log"
	"strings"
	"time"

	"mercado/internal/models"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	productService *services.ProductService
	validate       *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validate:       newValidator(),
	}
}

// RegisterRoutes registers the public catalog routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListActive)
	productRoutes.Get("/live", h.HandleLive)
	productRoutes.Get("/:id", h.HandleGet)
}

// RegisterAdminRoutes registers the catalog management routes. The
// caller is expected to mount these behind the admin gate.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListAll)
	productRoutes.Post("/", h.HandleCreate)
	productRoutes.Put("/:id", h.HandleUpdate)
	productRoutes.Delete("/:id", h.HandleDelete)
}

// HandleListActive returns the storefront catalog, newest first. When
// the store cannot be read the demo catalog is served instead so the
// storefront stays usable, flagged with a warning.
func (h *ProductHandler) HandleListActive(c *fiber.Ctx) error {
	products, degraded := h.productService.ListActiveOrDemo()
	resp := fiber.Map{"products": products}
	if degraded {
		resp["warning"] = "Mostrando produtos de demonstração"
	}
	return c.JSON(resp)
}

// HandleLive holds the request open until the catalog changes, then
// returns the fresh active list. Clients re-request after each
// response to keep a live view without polling.
func (h *ProductHandler) HandleLive(c *fiber.Ctx) error {
	updates, cancel := h.productService.Subscribe()
	defer cancel()

	select {
	case products, ok := <-updates:
		if ok {
			return c.JSON(fiber.Map{"products": products})
		}
	case <-c.Context().Done():
		return nil
	case <-time.After(25 * time.Second):
	}

	return h.HandleListActive(c)
}

// HandleGet returns a single product by ID.
func (h *ProductHandler) HandleGet(c *fiber.Ctx) error {
	product, err := h.productService.GetByID(c.Params("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Produto não encontrado",
			})
		}
		log.Printf("Error fetching product %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível carregar o produto",
		})
	}
	return c.JSON(fiber.Map{"product": product})
}

// HandleListAll returns every product regardless of status, for the
// management panel.
func (h *ProductHandler) HandleListAll(c *fiber.Ctx) error {
	products, err := h.productService.GetAll()
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível carregar os produtos",
		})
	}
	return c.JSON(fiber.Map{"products": products})
}

// ProductRequest represents the request body for creating or updating
// a product.
type ProductRequest struct {
	Title       string `json:"title" validate:"required"`
	Price       int    `json:"price" validate:"required,gt=0"`
	Description string `json:"description"`
	Image       string `json:"image" validate:"omitempty,url"`
	Category    string `json:"category"`
}

// HandleCreate adds a product to the catalog.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var req ProductRequest
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

	product := models.Product{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		Category:    req.Category,
	}
	if err := h.productService.Create(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível criar o produto",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Produto criado com sucesso",
		"product": product,
	})
}

// HandleUpdate edits an existing product. The current record is loaded
// first so the status and timestamps survive partial edits.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	var req ProductRequest
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

	product, err := h.productService.GetByID(c.Params("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Produto não encontrado",
			})
		}
		log.Printf("Error loading product %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível carregar o produto",
		})
	}

	product.Title = req.Title
	product.Price = req.Price
	product.Description = req.Description
	product.Image = req.Image
	product.Category = req.Category
	if err := h.productService.Update(product); err != nil {
		log.Printf("Error updating product %s: %v", product.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível atualizar o produto",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Produto atualizado com sucesso",
		"product": product,
	})
}

// HandleDelete removes a product from the storefront. The record is
// kept and only flipped inactive so past orders keep their context.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.productService.SoftDelete(c.Params("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Produto não encontrado",
			})
		}
		log.Printf("Error deleting product %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível remover o produto",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Produto removido da loja",
	})
}
