package middleware

import (
	"estate-admin/internal/config"
	"estate-admin/internal/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const devTokenPrefix = "dev-token-"

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'", nil)
		}

		// Development mode: accept dev tokens
		if cfg.IsDevelopment() && strings.HasPrefix(token, devTokenPrefix) {
			c.Locals("user_id", 1)
			c.Locals("username", "admin")
			c.Locals("role", "admin")
			return c.Next()
		}

		claims, err := utils.ValidateToken(token, cfg.JWTSecret)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token", nil)
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals("role").(string); role != "admin" {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Admin access required", nil)
		}
		return c.Next()
	}
}

// bearerToken reads the token from the Authorization header, falling back to
// the ?token= query parameter so the HTML report can be opened as a link.
func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if t := c.Query("token"); t != "" {
			return t, true
		}
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
