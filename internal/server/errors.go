package server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/exam-grader/internal/common"
)

const codeInternal = "INTERNAL"

func statusFor(code string) int {
	switch code {
	case common.CodeValidation:
		return http.StatusBadRequest
	case common.CodeDecode:
		return http.StatusUnprocessableEntity
	case common.CodeExtraction:
		return http.StatusBadGateway
	case common.CodePersistence:
		return http.StatusInternalServerError
	case common.CodeNotFound:
		return http.StatusNotFound
	case common.CodeUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeError renders err as {message, error, stage}. Causes are logged,
// never returned.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	code := common.CodeOf(err)
	status := statusFor(code)
	if code == "" {
		code = codeInternal
	}

	body := fiber.Map{
		"message": common.MessageOf(err),
		"error":   code,
	}
	if stage := common.StageOf(err); stage != "" {
		body["stage"] = stage
	}
	if fields := common.FieldErrors(err); len(fields) > 0 {
		body["fields"] = fields
	}

	log := s.logger.With("path", c.Path(), "request_id", requestID(c), "status", status, "error", err)
	if status >= http.StatusInternalServerError {
		log.Error("http.request.failed")
	} else {
		log.Warn("http.request.rejected")
	}
	return c.Status(status).JSON(body)
}

// fiberError handles errors that escape handlers (unknown routes, body
// limits, recovered panics).
func (s *Server) fiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message, "error": http.StatusText(fe.Code)})
	}
	return s.writeError(c, err)
}
