package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"gatewayapi/internal/http/middleware"
	"gatewayapi/internal/service"
)

type createRecordRequest struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type updateRecordRequest struct {
	Data json.RawMessage `json:"data"`
}

const recordNotFound = "record not found"

// CreateRecord stores a JSON record for the caller.
//
// @Summary Create record
// @Tags records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body createRecordRequest true "record"
// @Success 201 {object} model.Record
// @Failure 400 {object} errorPayload
// @Router /api/v1/records [post]
func CreateRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createRecordRequest
		if err := decodeJSON(c, &req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		}
		rec, err := svc.Create(c.UserContext(), middleware.UserID(c), req.Kind, req.Data)
		if err != nil {
			return writeServiceError(c, err, recordNotFound)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// ListRecords lists the caller's records, optionally filtered by kind.
//
// @Summary List records
// @Tags records
// @Produce json
// @Security BearerAuth
// @Param kind query string false "kind filter"
// @Param limit query int false "page size" default(20)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} service.RecordListResult
// @Router /api/v1/records [get]
func ListRecords(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, bad := pageParams(c)
		if bad != "" {
			return writeBadParam(c, bad)
		}
		res, err := svc.List(c.UserContext(), middleware.UserID(c), c.Query("kind"), limit, offset)
		if err != nil {
			return writeServiceError(c, err, recordNotFound)
		}
		return c.JSON(res)
	}
}

// GetRecord returns one of the caller's records.
//
// @Summary Get record
// @Tags records
// @Produce json
// @Security BearerAuth
// @Param id path string true "record id"
// @Success 200 {object} model.Record
// @Failure 404 {object} errorPayload
// @Router /api/v1/records/{id} [get]
func GetRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeInvalidID(c)
		}
		rec, err := svc.Get(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err, recordNotFound)
		}
		return c.JSON(rec)
	}
}

// UpdateRecord replaces a record's data.
//
// @Summary Update record
// @Tags records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "record id"
// @Param body body updateRecordRequest true "new data"
// @Success 200 {object} model.Record
// @Failure 404 {object} errorPayload
// @Router /api/v1/records/{id} [put]
func UpdateRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeInvalidID(c)
		}
		var req updateRecordRequest
		if err := decodeJSON(c, &req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		}
		rec, err := svc.Update(c.UserContext(), middleware.UserID(c), id, req.Data)
		if err != nil {
			return writeServiceError(c, err, recordNotFound)
		}
		return c.JSON(rec)
	}
}

// DeleteRecord removes one of the caller's records.
//
// @Summary Delete record
// @Tags records
// @Security BearerAuth
// @Param id path string true "record id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /api/v1/records/{id} [delete]
func DeleteRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeInvalidID(c)
		}
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
			return writeServiceError(c, err, recordNotFound)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
