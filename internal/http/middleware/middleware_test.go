package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatewayapi/internal/auth"
	"gatewayapi/internal/config"
	"gatewayapi/internal/logger"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(c))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, ridHeader, string(body))
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, existingID, string(body))
	})

	t.Run("should replace oversized request id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", maxRequestIDLen+1))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Len(t, resp.Header.Get(RequestIDHeader), 36)
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()

	app.Use(RequestID())
	app.Use(Logger(logger.NewWithWriter(&buf, "gatewayapi", "info")))

	app.Get("/test", func(c *fiber.Ctx) error {
		logger.FromContext(c.UserContext()).Info().Msg("inside handler")
		return c.SendStatus(fiber.StatusAccepted)
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "rid-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var inner, logData map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &inner))
	assert.Equal(t, "rid-42", inner["request_id"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &logData))
	assert.Equal(t, "rid-42", logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency_ms"])
	assert.NotEmpty(t, logData["ts"])

	buf.Reset()
	_, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &logData))
	assert.Equal(t, "warn", logData["level"])
	assert.Equal(t, float64(fiber.StatusNotFound), logData["status"])
}

type stubVerifier struct {
	claims *auth.Claims
	err    error
}

func (s stubVerifier) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func TestAuth(t *testing.T) {
	claims := &auth.Claims{Email: "ada@example.com"}
	claims.Subject = "user-1"

	tests := []struct {
		name       string
		header     string
		verifier   stubVerifier
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token",
			header:     "Bearer good",
			verifier:   stubVerifier{claims: claims},
			wantStatus: fiber.StatusOK,
			wantBody:   "user-1",
		},
		{
			name:       "lowercase scheme",
			header:     "bearer good",
			verifier:   stubVerifier{claims: claims},
			wantStatus: fiber.StatusOK,
			wantBody:   "user-1",
		},
		{
			name:       "missing header",
			wantStatus: fiber.StatusUnauthorized,
			wantBody:   "missing bearer token",
		},
		{
			name:       "wrong scheme",
			header:     "Basic Zm9vOmJhcg==",
			wantStatus: fiber.StatusUnauthorized,
			wantBody:   "missing bearer token",
		},
		{
			name:       "empty token",
			header:     "Bearer   ",
			wantStatus: fiber.StatusUnauthorized,
			wantBody:   "missing bearer token",
		},
		{
			name:       "expired token",
			header:     "Bearer old",
			verifier:   stubVerifier{err: auth.ErrTokenExpired},
			wantStatus: fiber.StatusUnauthorized,
			wantBody:   "token expired",
		},
		{
			name:       "invalid token",
			header:     "Bearer forged",
			verifier:   stubVerifier{err: errors.New("signature is invalid")},
			wantStatus: fiber.StatusUnauthorized,
			wantBody:   "unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(Auth(tt.verifier))
			app.Get("/me", func(c *fiber.Ctx) error {
				return c.SendString(UserID(c))
			})

			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(config.CORSConfig{
		AllowOrigins:  []string{"https://app.example.com"},
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAgeSec:     600,
	}))
	// Preflight must be answered before auth.
	app.Use(Auth(stubVerifier{err: errors.New("never called")}))
	app.Get("/api", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET,POST", resp.Header.Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "600", resp.Header.Get("Access-Control-Max-Age"))
	})

	t.Run("preflight from unknown origin", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}
