package handlers

import (
	"errors"
	"log"

	"mercado/internal/middleware"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Get("/session", middleware.WithSession(h.authService), h.HandleSession)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	WhatsApp string `json:"whatsapp" validate:"omitempty,mzphone"`
	Password string `json:"password" validate:"required"`
	Type     string `json:"type" validate:"omitempty,oneof=user admin"`
}

// HandleRegister handles new account registration. Administrator
// registrations come back without a token because the account still
// needs approval before it can sign in.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
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

	user, token, err := h.authService.Register(services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		WhatsApp: req.WhatsApp,
		Password: req.Password,
		Type:     req.Type,
	})
	if err != nil {
		log.Printf("Error registering user %s: %v", req.Email, err)
		return authErrorResponse(c, err)
	}

	if user.IsPendingAdmin() {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":       "Conta de administrador criada. Aguarde aprovação.",
			"user":          user,
			"needsApproval": true,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Conta criada com sucesso",
		"user":    user,
		"token":   token,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token along with the
// landing page for the caller's role.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
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

	user, token, landing, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		log.Printf("Login refused for %s: %v", req.Email, err)
		return authErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Login efetuado com sucesso",
		"token":    token,
		"user":     user,
		"redirect": landing,
	})
}

// HandleLogout ends the session. Tokens are stateless, so this clears
// the cookie clients rely on for page loads.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	h.authService.Logout()
	c.Cookie(&fiber.Cookie{
		Name:   "session",
		Value:  "",
		MaxAge: -1,
	})
	return c.JSON(fiber.Map{
		"message":  "Sessão terminada",
		"redirect": services.PageLogin,
	})
}

// HandleSession reports who the caller currently is. Anonymous is a
// valid answer, never an error.
func (h *AuthHandler) HandleSession(c *fiber.Ctx) error {
	sess := middleware.SessionFromContext(c)
	resp := fiber.Map{
		"role":     sess.Role.String(),
		"loggedIn": sess.IsLoggedIn(),
	}
	if sess.User != nil {
		resp["user"] = sess.User
	}
	return c.JSON(resp)
}

func authErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Email ou senha incorretos",
		})
	case errors.Is(err, services.ErrEmailInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Este email já está registado",
		})
	case errors.Is(err, services.ErrWeakPassword):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A senha deve ter pelo menos 6 caracteres",
		})
	case errors.Is(err, services.ErrPendingApproval):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Conta de administrador aguardando aprovação",
		})
	case errors.Is(err, services.ErrAccountDisabled):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Esta conta foi desativada",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Não foi possível concluir o pedido",
			"error":   err.Error(),
		})
	}
}
