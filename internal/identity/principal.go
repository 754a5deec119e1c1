package identity

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNoPrincipal = errors.New("no authenticated principal")

// Principal is the authenticated caller as supplied by the identity provider.
type Principal struct {
	ID    string
	Email string
}

func (p Principal) IsZero() bool {
	return p.ID == ""
}

// FromClaims builds a Principal from verified JWT claims.
func FromClaims(claims jwt.MapClaims) (Principal, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Principal{}, errors.New("missing sub claim")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		email, _ = claims["primary_email"].(string)
	}
	return Principal{ID: sub, Email: strings.ToLower(strings.TrimSpace(email))}, nil
}

// FromFiber extracts the Principal from the verified token placed in locals by the JWT middleware.
func FromFiber(c *fiber.Ctx) (Principal, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return Principal{}, ErrNoPrincipal
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("invalid claims")
	}
	return FromClaims(claims)
}
