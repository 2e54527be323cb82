package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// ErrorHandler renders unhandled errors as APIError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "internal_error"
		switch {
		case fe.Code == fiber.StatusNotFound:
			code = "not_found"
		case fe.Code == fiber.StatusMethodNotAllowed:
			code = "method_not_allowed"
		case fe.Code < 500:
			code = "bad_request"
		}
		return newError(c, fe.Code, code, fe.Message)
	}
	slog.Error("unhandled error", "path", c.Path(), "error", err)
	return newError(c, fiber.StatusInternalServerError, "internal_error", "internal server error")
}
