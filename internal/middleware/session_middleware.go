package middleware

import (
	"strings"

	"mercado/internal/services"

	"github.com/gofiber/fiber/v2"
)

const sessionLocalKey = "session"

// TokenFromRequest extracts the bearer token from the Authorization
// header, falling back to the session cookie used by page loads.
func TokenFromRequest(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Cookies("session")
}

// SessionFromContext returns the session resolved by one of the gate
// middlewares, or the anonymous session.
func SessionFromContext(c *fiber.Ctx) services.Session {
	if sess, ok := c.Locals(sessionLocalKey).(services.Session); ok {
		return sess
	}
	return services.Session{}
}

// WithSession resolves the caller's session into the request context
// without gating anything. Resolution is bounded and degrades to
// anonymous, so this never blocks or fails a request.
func WithSession(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(sessionLocalKey, authService.CurrentSession(TokenFromRequest(c)))
		return c.Next()
	}
}

// AuthRequired gates API routes that need an authenticated principal.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := authService.CurrentSession(TokenFromRequest(c))
		if !sess.IsLoggedIn() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}
		c.Locals(sessionLocalKey, sess)
		return c.Next()
	}
}

// AdminRequired gates API routes reserved for approved administrators.
// An admin account still awaiting approval is refused exactly like a
// regular user.
func AdminRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := authService.CurrentSession(TokenFromRequest(c))
		if !sess.IsLoggedIn() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}
		if sess.Role != services.RoleAdministrator {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Administrator access required",
			})
		}
		c.Locals(sessionLocalKey, sess)
		return c.Next()
	}
}

// PageGate applies the page access policy to HTML page routes, issuing
// the redirect the policy decides (login for anonymous visitors, the
// canonical landing page for a role in the wrong place).
func PageGate(authService *services.AuthService, kind services.PageKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := authService.CurrentSession(TokenFromRequest(c))
		decision := services.AuthorizePage(kind, sess.Role)
		if !decision.Allow {
			return c.Redirect(decision.RedirectTo, fiber.StatusFound)
		}
		c.Locals(sessionLocalKey, sess)
		return c.Next()
	}
}
