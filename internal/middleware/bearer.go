package middleware

import (
	"errors"
	"strings"

	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ProviderClaims are the claims read from hosted auth provider access tokens.
type ProviderClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseBearerToken verifies an HS256 token and returns the identity in it.
func ParseBearerToken(tokenString, secret string) (*domain.Identity, error) {
	claims := &ProviderClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.New("token subject is not a user id")
	}
	return &domain.Identity{ID: id, Email: strings.ToLower(claims.Email)}, nil
}

// BearerIdentity accepts "Authorization: Bearer <jwt>" when a secret is configured.
// Requests without the header fall through to the session; a bad token is a 401.
func BearerIdentity(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Next()
		}
		id, err := ParseBearerToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}
		SetIdentity(c, id)
		return c.Next()
	}
}
