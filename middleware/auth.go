package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/wanessald/chatbot-payroll/config"
	"github.com/wanessald/chatbot-payroll/types"
)

const RoleAdmin = "admin"

func extractToken(c *fiber.Ctx) (string, error) {
	auth := c.Get("Authorization")
	if auth == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "No token provided")
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token format")
	}

	return parts[1], nil
}

func parseClaims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, err := extractToken(c)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}
	return claims, nil
}

func deny(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized
	msg := types.ErrUnauthorized
	if fe, ok := err.(*fiber.Error); ok {
		status = fe.Code
		msg = fe.Message
	}
	return c.Status(status).JSON(types.APIResponse{
		Success: false,
		Error:   msg,
	})
}

// RequireAdmin accepts HS256 tokens carrying role=admin. With no JWT_SECRET
// configured every request is rejected.
func RequireAdmin(c *fiber.Ctx) error {
	if config.AppConfig.JWTSecret == "" {
		return c.Status(fiber.StatusForbidden).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrReloadDisabled,
		})
	}

	claims, err := parseClaims(c)
	if err != nil {
		return deny(c, err)
	}

	if role, _ := claims["role"].(string); role != RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(types.APIResponse{
			Success: false,
			Error:   "Admin access required",
		})
	}

	c.Locals("subject", claims["sub"])
	c.Locals("role", claims["role"])
	return c.Next()
}
