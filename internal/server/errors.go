package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
	"github.com/joseph-ayodele/payslips-tracker/internal/pipeline"
)

// statusFor maps a pipeline error to the HTTP status and public code returned to callers.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, common.ErrAlreadyRunning):
		return fiber.StatusConflict, "ALREADY_RUNNING"
	case errors.Is(err, common.ErrInvalidInput):
		return fiber.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, common.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, llm.ErrRateLimited):
		return fiber.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, llm.ErrCreditsExhausted):
		return fiber.StatusServiceUnavailable, "UNAVAILABLE"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// errorHandler renders every error with a fixed user-facing message; detail stays in the log.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"success": false, "code": "HTTP_ERROR", "message": fe.Message})
	}
	status, code := statusFor(err)
	log := s.logger.With("path", c.Path(), "request_id", c.GetRespHeader(fiber.HeaderXRequestID), "status", status)
	if status >= fiber.StatusInternalServerError {
		log.Error("http.request.failed", "error", err)
	} else {
		log.Warn("http.request.rejected", "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"code":    code,
		"message": pipeline.MessageFailed,
	})
}
