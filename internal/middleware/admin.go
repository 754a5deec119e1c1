package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/identity"
)

// AdminRequired rejects callers the shared AdministratorPolicy does not
// recognise. It must run after JWTProtected. Failures are not redirected.
func AdminRequired(policy *identity.AdministratorPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := Principal(c)
		if p.IsZero() {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Code: "unauthorized", Message: "Unauthorized",
			})
		}
		if err := policy.Require(p); err != nil {
			slog.Warn("admin access denied", "principal_id", p.ID, "path", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Code: "forbidden", Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
