package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/logger"
)

// Error is an API error carrying the HTTP status to respond with.
// It serialises to the wire shape {"error": "..."}.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Message
}

// NewError creates an API error with an explicit status code.
func NewError(code int, message string) Error {
	return Error{Code: code, Message: message}
}

// ErrBadRequest is returned for malformed JSON bodies.
func ErrBadRequest() Error {
	return NewError(fiber.StatusBadRequest, "invalid JSON request")
}

// ErrUnknownAction is returned for unrecognised action names.
func ErrUnknownAction(action string) Error {
	return NewError(fiber.StatusBadRequest, "unknown action: "+action)
}

// ErrorHandler maps errors to {"error": string} responses. Domain
// sentinel errors get their natural status codes; anything unexpected
// becomes a 500 without leaking internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(NewError(fiberErr.Code, fiberErr.Message))
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(NewError(fiber.StatusNotFound, err.Error()))
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotProcessing):
		return c.Status(fiber.StatusBadRequest).JSON(NewError(fiber.StatusBadRequest, err.Error()))
	}

	logger.Warn("Request failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(NewError(fiber.StatusInternalServerError, err.Error()))
}
