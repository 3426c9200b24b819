package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wanessald/chatbot-payroll/utils"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id and logs it once handled.
func RequestLogger(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}
	c.Set(RequestIDHeader, id)
	c.Locals("request_id", id)

	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if fe, ok := err.(*fiber.Error); ok {
		status = fe.Code
	}
	utils.Logger.Info("Request handled",
		zap.String("request_id", id),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)))
	return err
}
