package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"gatewayapi/internal/auth"
	"gatewayapi/internal/logger"
)

const (
	// UserIDLocalKey holds the authenticated user's ID in Fiber locals.
	UserIDLocalKey = "user_id"
	// EmailLocalKey holds the authenticated user's email in Fiber locals.
	EmailLocalKey = "user_email"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// Auth requires a valid "Authorization: Bearer <token>" header.
func Auth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, token, ok := strings.Cut(strings.TrimSpace(c.Get(fiber.HeaderAuthorization)), " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := verifier.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				return fiber.NewError(fiber.StatusUnauthorized, "token expired")
			}
			logger.FromContext(c.UserContext()).Debug().Err(err).Msg("token rejected")
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		c.Locals(UserIDLocalKey, claims.UserID())
		c.Locals(EmailLocalKey, claims.Email)
		c.SetUserContext(logger.FromContext(c.UserContext()).
			WithField("user_id", claims.UserID()).
			WithContext(c.UserContext()))

		return c.Next()
	}
}

// UserID returns the ID stored by Auth, or "" on unauthenticated routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}
