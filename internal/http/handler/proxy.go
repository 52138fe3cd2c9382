package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"gatewayapi/internal/http/middleware"
	"gatewayapi/internal/logger"
	"gatewayapi/internal/upstream"
)

// Proxy relays the request to the upstream named by :service. The remainder
// of the path, the raw query and the body are forwarded, along with the
// caller's identity in X-User-ID. The upstream status is relayed unchanged.
//
// @Summary Forward to an upstream service
// @Tags gateway
// @Security BearerAuth
// @Param service path string true "upstream name"
// @Param path path string false "path forwarded to the upstream"
// @Success 200
// @Failure 404 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/v1/proxy/{service}/{path} [get]
func Proxy(fwd upstream.Forwarder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := make(map[string]string, len(upstream.ForwardedHeaders))
		for _, h := range upstream.ForwardedHeaders {
			header[h] = c.Get(h)
		}
		header[middleware.RequestIDHeader] = middleware.GetRequestID(c)
		header["X-User-ID"] = middleware.UserID(c)

		resp, err := fwd.Forward(c.UserContext(), c.Params("service"), upstream.Request{
			Method:   c.Method(),
			Path:     c.Params("*"),
			RawQuery: string(c.Request().URI().QueryString()),
			Header:   header,
			Body:     c.Body(),
		})
		if err != nil {
			if errors.Is(err, upstream.ErrUnknownService) {
				return writeError(c, fiber.StatusNotFound, "UNKNOWN_UPSTREAM", "unknown upstream service")
			}
			logger.FromContext(c.UserContext()).Error().Err(err).Str("upstream", c.Params("service")).Msg("upstream call failed")
			return writeError(c, fiber.StatusBadGateway, "BAD_GATEWAY", "upstream unavailable")
		}

		if resp.ContentType != "" {
			c.Set(fiber.HeaderContentType, resp.ContentType)
		}
		if resp.Location != "" {
			c.Set(fiber.HeaderLocation, resp.Location)
		}
		return c.Status(resp.StatusCode).Send(resp.Body)
	}
}
