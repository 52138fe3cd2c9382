package handler

import (
	"github.com/gofiber/fiber/v2"

	"gatewayapi/internal/http/middleware"
	"gatewayapi/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account.
//
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.RegisterInput true "account"
// @Success 201 {object} model.User
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /auth/register [post]
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.RegisterInput
		if err := decodeJSON(c, &in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		}
		u, err := svc.Register(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err, "user not found")
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// Login exchanges credentials for an access token.
//
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "credentials"
// @Success 200 {object} service.Session
// @Failure 401 {object} errorPayload
// @Router /auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := decodeJSON(c, &req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		}
		sess, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return writeServiceError(c, err, "user not found")
		}
		return c.JSON(sess)
	}
}

// Me returns the authenticated user.
//
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errorPayload
// @Router /api/v1/me [get]
func Me(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Me(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err, "user not found")
		}
		return c.JSON(u)
	}
}
