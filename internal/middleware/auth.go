package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"

	"github.com/tinytitans-bjj/community-backend/internal/config"
	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/identity"
)

// JWTProtected validates the identity provider's bearer token. Tokens are
// checked against the provider's JWKS when JWKS_URL is set, otherwise against
// the shared HS256 secret.
func JWTProtected(cfg *config.Config) fiber.Handler {
	jwtCfg := jwtware.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Code:    "unauthorized",
				Message: "Unauthorized: invalid or expired token",
			})
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			p, err := identity.FromFiber(c)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error:   true,
					Code:    "unauthorized",
					Message: "Unauthorized: token has no subject",
				})
			}
			c.Locals(principalKey, p)
			return c.Next()
		},
	}
	if cfg.JWKSURL != "" {
		jwtCfg.JWKSetURLs = []string{cfg.JWKSURL}
	} else {
		jwtCfg.SigningKey = jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)}
	}
	return jwtware.New(jwtCfg)
}

const principalKey = "principal"

// Principal returns the caller resolved by JWTProtected.
func Principal(c *fiber.Ctx) identity.Principal {
	p, _ := c.Locals(principalKey).(identity.Principal)
	return p
}
