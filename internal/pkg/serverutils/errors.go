package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ApiError carries an HTTP status alongside the message so services can
// decide the response code without importing fiber.
type ApiError struct {
	Status  int
	Message string
}

func (e *ApiError) Error() string {
	return e.Message
}

func NewBadRequest(message string) *ApiError {
	return &ApiError{Status: fiber.StatusBadRequest, Message: message}
}

func NewUnauthorized(message string) *ApiError {
	return &ApiError{Status: fiber.StatusUnauthorized, Message: message}
}

func NewForbidden(message string) *ApiError {
	return &ApiError{Status: fiber.StatusForbidden, Message: message}
}

func NewNotFound(message string) *ApiError {
	return &ApiError{Status: fiber.StatusNotFound, Message: message}
}

// ErrorHandlerMiddleware converts errors bubbled from controllers/services
// into a uniform JSON envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var apiErr *ApiError
		if errors.As(err, &apiErr) {
			return ctx.Status(apiErr.Status).JSON(ErrorResponse(apiErr.Message))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse("Record not found"))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("Internal server error"))
	}
}
