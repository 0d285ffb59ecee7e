package handlers

import (
	"errors"
	"log"

	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// MigrationHandler exposes the one-time import of legacy local-store
// data and the bootstrap of the first administrator account. These
// routes exist for initial setup; the imports themselves are guarded
// by persistent flags and refuse to run twice.
type MigrationHandler struct {
	migrationService *services.MigrationService
	validate         *validator.Validate
}

// NewMigrationHandler creates a new MigrationHandler.
func NewMigrationHandler(migrationService *services.MigrationService) *MigrationHandler {
	return &MigrationHandler{
		migrationService: migrationService,
		validate:         newValidator(),
	}
}

// RegisterRoutes registers the migration routes.
func (h *MigrationHandler) RegisterRoutes(router fiber.Router) {
	migrationRoutes := router.Group("/migration")
	migrationRoutes.Post("/products", h.HandleImportProducts)
	migrationRoutes.Post("/orders", h.HandleImportOrders)
	migrationRoutes.Post("/super-admin", h.HandleCreateSuperAdmin)
}

// HandleImportProducts copies legacy products into the database. A
// rerun after a successful import is a no-op reporting zero records.
func (h *MigrationHandler) HandleImportProducts(c *fiber.Ctx) error {
	count, err := h.migrationService.ImportProducts()
	if err != nil {
		log.Printf("Error importing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "A importação de produtos falhou",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message":  "Importação de produtos concluída",
		"imported": count,
	})
}

// HandleImportOrders copies legacy orders into the database. A rerun
// after a successful import is a no-op reporting zero records.
func (h *MigrationHandler) HandleImportOrders(c *fiber.Ctx) error {
	count, err := h.migrationService.ImportOrders()
	if err != nil {
		log.Printf("Error importing orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "A importação de pedidos falhou",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message":  "Importação de pedidos concluída",
		"imported": count,
	})
}

// SuperAdminRequest represents the request body for bootstrapping the
// first administrator.
type SuperAdminRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleCreateSuperAdmin creates an already-approved administrator so
// a fresh deployment has someone able to approve everyone else.
func (h *MigrationHandler) HandleCreateSuperAdmin(c *fiber.Ctx) error {
	var req SuperAdminRequest
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

	user, err := h.migrationService.CreateSuperAdmin(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailInUse) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Este email já está registado",
			})
		}
		log.Printf("Error creating super admin: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível criar o administrador",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Administrador principal criado",
		"user":    user,
	})
}
