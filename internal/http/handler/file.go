package handler

import (
	"github.com/gofiber/fiber/v2"

	"gatewayapi/internal/http/middleware"
	"gatewayapi/internal/service"
	"gatewayapi/internal/storage"
)

const fileNotFound = "file not found"

// UploadFile stores a multipart upload (field name: file).
//
// @Summary Upload file
// @Tags files
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "file"
// @Success 201 {object} model.File
// @Failure 400 {object} errorPayload
// @Router /api/v1/files [post]
func UploadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		file, err := svc.Upload(c.UserContext(), middleware.UserID(c), f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeServiceError(c, err, fileNotFound)
		}
		return c.Status(fiber.StatusCreated).JSON(file)
	}
}

// ListFiles lists the caller's files.
//
// @Summary List files
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param limit query int false "page size" default(20)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} service.FileListResult
// @Router /api/v1/files [get]
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, bad := pageParams(c)
		if bad != "" {
			return writeBadParam(c, bad)
		}
		res, err := svc.List(c.UserContext(), middleware.UserID(c), limit, offset)
		if err != nil {
			return writeServiceError(c, err, fileNotFound)
		}
		return c.JSON(res)
	}
}

// GetFile returns a file's metadata.
//
// @Summary Get file
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "file id"
// @Success 200 {object} model.File
// @Failure 404 {object} errorPayload
// @Router /api/v1/files/{id} [get]
func GetFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeInvalidID(c)
		}
		f, err := svc.Get(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err, fileNotFound)
		}
		return c.JSON(f)
	}
}

// FileContent streams a file's bytes through the gateway.
//
// @Summary Download file content
// @Tags files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "file id"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /api/v1/files/{id}/content [get]
func FileContent(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeInvalidID(c)
		}
		rc, f, err := svc.Open(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err, fileNotFound)
		}

		c.Set(fiber.HeaderContentType, f.ContentType)
		c.Set(fiber.HeaderContentDisposition, storage.ContentDisposition(f.OriginalName))
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc, int(f.Size))
	}
}

// FileDownloadURL returns a presigned URL to fetch the file from object storage.
//
// @Summary Presigned download URL
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "file id"
// @Success 200 {object} service.DownloadLink
// @Failure 404 {object} errorPayload
// @Router /api/v1/files/{id}/download [get]
func FileDownloadURL(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeInvalidID(c)
		}
		link, err := svc.DownloadURL(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err, fileNotFound)
		}
		return c.JSON(link)
	}
}

// DeleteFile removes a file from storage and the database.
//
// @Summary Delete file
// @Tags files
// @Security BearerAuth
// @Param id path string true "file id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /api/v1/files/{id} [delete]
func DeleteFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeInvalidID(c)
		}
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
			return writeServiceError(c, err, fileNotFound)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
