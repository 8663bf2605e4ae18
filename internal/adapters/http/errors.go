package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/prabeshj/tokri/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		Retryable: status == 503 || status == 504,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "unavailable", msg)
}

// errFromDomain maps domain sentinel errors onto HTTP responses. The
// location family is recoverable by falling back to manual address entry,
// which the status codes reflect; zone table errors are deployment faults.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrAddressNotFound):
		return errNotFound(c, "address could not be resolved")
	case errors.Is(err, domain.ErrLocationDenied):
		return newError(c, 403, "location_denied", "position access was denied")
	case errors.Is(err, domain.ErrLocationTimeout):
		return newError(c, 504, "location_timeout", "position fix timed out")
	case errors.Is(err, domain.ErrLocationUnsupported):
		return newError(c, 501, "location_unsupported", "no positioning capability")
	case errors.Is(err, domain.ErrLocationUnavailable):
		return errUnavailable(c, "position is unavailable")
	case errors.Is(err, domain.ErrZoneTableIncomplete):
		return errInternal(c, "delivery pricing is misconfigured")
	default:
		return errInternal(c, err.Error())
	}
}
