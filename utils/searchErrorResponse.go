package utils

import (
	"errors"

	"elasticsearch-demo-backend/search"

	"github.com/gofiber/fiber/v2"
)

// SearchErrorStatus maps a repository error to the HTTP status returned to
// the client.
func SearchErrorStatus(err error) int {
	var engineErr *search.EngineError
	var bulkErr *search.BulkError

	switch {
	case errors.Is(err, search.ErrIndexNotFound), errors.Is(err, search.ErrDocumentNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, search.ErrInvalidRequest), errors.Is(err, search.ErrInvalidDerivedQuery):
		return fiber.StatusBadRequest
	case errors.As(err, &bulkErr):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &engineErr) && engineErr.Status == fiber.StatusBadRequest:
		return fiber.StatusBadRequest
	case errors.As(err, &engineErr):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// SearchErrorResponse writes {"error": ...} with the mapped status.
func SearchErrorResponse(c *fiber.Ctx, err error, message string) error {
	status := SearchErrorStatus(err)
	body := fiber.Map{"error": message}
	if status != fiber.StatusInternalServerError {
		body["details"] = err.Error()
	}
	var bulkErr *search.BulkError
	if errors.As(err, &bulkErr) {
		body["failed"] = bulkErr.Failed
	}
	return c.Status(status).JSON(body)
}
