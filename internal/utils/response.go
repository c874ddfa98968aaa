package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope every curriculum endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// errorCodes gives dashboards a stable value to branch on instead of parsing messages.
var errorCodes = map[int]string{
	fiber.StatusBadRequest:          "invalid_request",
	fiber.StatusUnauthorized:        "unauthenticated",
	fiber.StatusForbidden:           "forbidden",
	fiber.StatusNotFound:            "not_found",
	fiber.StatusConflict:            "conflict",
	fiber.StatusUnprocessableEntity: "unprocessable",
	fiber.StatusTooManyRequests:     "rate_limited",
	fiber.StatusServiceUnavailable:  "unavailable",
}

// ErrorCode returns the envelope code for an HTTP error status.
func ErrorCode(status int) string {
	if code, ok := errorCodes[status]; ok {
		return code
	}
	return "internal"
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// SendSuccess writes a 200 envelope.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus writes a success envelope under status. The health
// endpoint uses it to report a degraded but readable payload with 503.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(APIResponse{
		Success: true,
		Message: orDefault(message, "success"),
		Data:    data,
	})
}

// OK writes a 200 envelope with pagination metadata.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success: true,
		Message: orDefault(message, "success"),
		Data:    data,
		Meta:    meta,
	})
}

// SendError writes a failure envelope.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail writes a failure envelope with structured details, such as the
// offending fields of a rejected payload.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: orDefault(message, "error"),
		Code:    ErrorCode(status),
		Details: details,
	})
}
