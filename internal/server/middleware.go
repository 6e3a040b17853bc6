package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/exam-grader/internal/common"
)

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// requestLogger logs one line per request and puts the request id on the
// user context for downstream logging.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	rid := requestID(c)
	c.SetUserContext(common.WithRequestID(c.UserContext(), rid))

	err := c.Next()
	if err != nil {
		// let the app error handler write the response before we read the status
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	s.logger.Info("http.request",
		"request_id", rid,
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
