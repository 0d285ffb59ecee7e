package handlers

import (
	"errors"
	"log"

	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the administration panel endpoints: dashboard
// statistics, user listings and the admin approval workflow.
type AdminHandler struct {
	authService  *services.AuthService
	orderService *services.OrderService
	validate     *validator.Validate
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(authService *services.AuthService, orderService *services.OrderService) *AdminHandler {
	return &AdminHandler{
		authService:  authService,
		orderService: orderService,
		validate:     newValidator(),
	}
}

// RegisterRoutes registers the administration routes. The caller is
// expected to mount these behind the admin gate.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/stats", h.HandleStats)
	router.Get("/users", h.HandleListUsers)
	router.Get("/approvals", h.HandleListApprovals)
	router.Post("/users/:id/approve", h.HandleApprove)
	router.Delete("/users/:id", h.HandleReject)
}

// HandleStats returns the dashboard counters. Revenue counts only
// completed orders.
func (h *AdminHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.orderService.Stats()
	if err != nil {
		log.Printf("Error computing dashboard stats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível calcular as estatísticas",
		})
	}
	return c.JSON(fiber.Map{"stats": stats})
}

// HandleListUsers returns every registered account.
func (h *AdminHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.authService.ListUsers()
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível carregar os utilizadores",
		})
	}
	return c.JSON(fiber.Map{"users": users})
}

// HandleListApprovals returns the admin accounts awaiting approval.
func (h *AdminHandler) HandleListApprovals(c *fiber.Ctx) error {
	users, err := h.authService.ListPendingAdmins()
	if err != nil {
		log.Printf("Error listing pending admins: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível carregar as aprovações pendentes",
		})
	}
	return c.JSON(fiber.Map{"users": users})
}

// HandleApprove grants a pending admin account its privileges.
func (h *AdminHandler) HandleApprove(c *fiber.Ctx) error {
	if err := h.authService.ApproveUser(c.Params("id")); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Utilizador não encontrado",
			})
		}
		log.Printf("Error approving user %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível aprovar o utilizador",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Administrador aprovado",
	})
}

// HandleReject deletes a pending admin account. This is destructive
// and only valid against an account still awaiting approval, so the
// request must carry confirm=true.
func (h *AdminHandler) HandleReject(c *fiber.Ctx) error {
	if c.Query("confirm") != "true" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A rejeição apaga a conta. Repita o pedido com confirm=true",
		})
	}

	err := h.authService.RejectUser(c.Params("id"))
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"message": "Registo de administrador rejeitado",
		})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Utilizador não encontrado",
		})
	case errors.Is(err, services.ErrNotPendingAdmin):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Apenas administradores pendentes podem ser rejeitados",
		})
	default:
		log.Printf("Error rejecting user %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível rejeitar o utilizador",
		})
	}
}
