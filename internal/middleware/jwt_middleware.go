package middleware

import (
	"strings"

	"clientes/internal/models"
	"clientes/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Locals keys set by AuthRequired.
const (
	LocalUserID  = "user_id"
	LocalEmail   = "email"
	LocalTokenID = "token_id"
	LocalToken   = "token"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			// browsers cannot set headers on an EventSource
			tokenString = c.Query("access_token")
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			logger.Debug("JWT validation failed", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		if role, _ := claims["role"].(string); role != models.RoleStaff {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Staff access required",
			})
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals(LocalUserID, claims["user_id"])
		c.Locals(LocalEmail, claims["email"])
		c.Locals(LocalTokenID, claims["jti"])
		c.Locals(LocalToken, tokenString)

		return c.Next()
	}
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", false
	}
	return parts[1], true
}

// LocalString reads a string value stored by AuthRequired.
func LocalString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}
