package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/zippicks/critic-backend/internal/config"
	"github.com/zippicks/critic-backend/internal/dto"
	"golang.org/x/crypto/bcrypt"
)

// AdminRequired admits a request that carries one of:
// 1. X-Admin-Token matching ADMIN_TOKEN or the bcrypt ADMIN_TOKEN_HASH
// 2. A JWT (see JWTOptional) whose email is in ADMIN_EMAILS or whose role is admin
func AdminRequired(cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)
	configured := cfg.AdminConfigured()

	return func(c *fiber.Ctx) error {
		if !configured {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access is not configured",
			})
		}

		if token := c.Get("X-Admin-Token"); token != "" {
			if validAdminToken(cfg, token) {
				return c.Next()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid admin token",
			})
		}

		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid claims",
			})
		}

		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)
		if containsFold(adminEmails, email) || role == "admin" {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func validAdminToken(cfg *config.Config, token string) bool {
	if cfg.AdminToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(cfg.AdminToken)) == 1 {
		return true
	}
	if cfg.AdminTokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.AdminTokenHash), []byte(token)) == nil
	}
	return false
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func containsFold(list []string, val string) bool {
	if val == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, val) {
			return true
		}
	}
	return false
}
