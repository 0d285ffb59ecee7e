package handlers

import (
	"errors"
	"log"
	"strings"

	"mercado/internal/middleware"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService *services.OrderService
	authService  *services.AuthService
	validate     *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService, authService *services.AuthService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		authService:  authService,
		validate:     newValidator(),
	}
}

// RegisterRoutes registers the order routes. Service orders can be
// placed without an account, so creation only resolves the session
// instead of requiring one.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", middleware.WithSession(h.authService), h.HandleCreateServiceOrder)
	orderRoutes.Get("/", middleware.AuthRequired(h.authService), h.HandleList)
	orderRoutes.Get("/:id", middleware.AuthRequired(h.authService), h.HandleGet)
}

// RegisterAdminRoutes registers the order management routes.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Patch("/:id/status", h.HandleUpdateStatus)
}

// ServiceOrderRequest represents the request body for a service order.
type ServiceOrderRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	WhatsApp string `json:"whatsapp" validate:"required,mzphone"`
	Service  string `json:"service" validate:"required"`
	Details  string `json:"details"`
	Source   string `json:"source"`
}

// HandleCreateServiceOrder records a service request. The order is
// attributed to the logged-in caller when there is one, otherwise to
// the anonymous owner.
func (h *OrderHandler) HandleCreateServiceOrder(c *fiber.Ctx) error {
	var req ServiceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing order request body: %v", err)
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

	sess := middleware.SessionFromContext(c)
	order, err := h.orderService.CreateServiceOrder(sess, services.ServiceOrderInput{
		CustomerName:     req.Name,
		CustomerEmail:    req.Email,
		CustomerWhatsApp: req.WhatsApp,
		Service:          req.Service,
		Details:          req.Details,
		Source:           req.Source,
	})
	if err != nil {
		log.Printf("Error creating service order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível registar o pedido",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Pedido registado com sucesso",
		"order":   order,
	})
}

// HandleList returns the caller's own orders, or every order when the
// caller is an administrator.
func (h *OrderHandler) HandleList(c *fiber.Ctx) error {
	sess := middleware.SessionFromContext(c)

	var err error
	var orders interface{}
	if sess.Role == services.RoleAdministrator {
		orders, err = h.orderService.GetAll()
	} else {
		limit := c.QueryInt("limit", 0)
		orders, err = h.orderService.ListByUser(sess.UserID, limit)
	}
	if err != nil {
		log.Printf("Error listing orders for %s: %v", sess.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível carregar os pedidos",
		})
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// HandleGet returns one order. Regular users can only see their own.
func (h *OrderHandler) HandleGet(c *fiber.Ctx) error {
	sess := middleware.SessionFromContext(c)
	order, err := h.orderService.GetByID(c.Params("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Pedido não encontrado",
			})
		}
		log.Printf("Error fetching order %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível carregar o pedido",
		})
	}
	if sess.Role != services.RoleAdministrator && order.UserID != sess.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Este pedido pertence a outra conta",
		})
	}
	return c.JSON(fiber.Map{"order": order})
}

// StatusUpdateRequest represents the request body for a status change.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateStatus moves an order through its lifecycle. Completed
// and cancelled orders are final and refuse further changes.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req StatusUpdateRequest
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

	err := h.orderService.UpdateStatus(c.Params("id"), req.Status)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"message": "Estado do pedido atualizado",
		})
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Estado inválido",
		})
	case errors.Is(err, services.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Pedidos concluídos ou cancelados não podem mudar de estado",
		})
	case strings.Contains(err.Error(), "not found"):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Pedido não encontrado",
		})
	default:
		log.Printf("Error updating order %s status: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível atualizar o pedido",
		})
	}
}
