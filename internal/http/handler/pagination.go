package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// pageParams reads the limit and offset query parameters. On a malformed
// value it returns the offending parameter name.
func pageParams(c *fiber.Ctx) (limit, offset int, bad string) {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil {
		return 0, 0, "limit"
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, "offset"
	}
	return limit, offset, ""
}

func writeBadParam(c *fiber.Ctx, name string) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_"+strings.ToUpper(name), "invalid "+name)
}

// pathID returns the :id parameter and whether it is a UUID.
func pathID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	_, err := uuid.Parse(id)
	return id, err == nil
}

func writeInvalidID(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
}
