package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-ID"
	localRequestID  = "request_id"
	localLogger     = "logger"
)

// RequestLogger returns a Fiber middleware that logs every HTTP request.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(headerRequestID, requestID)
		c.Locals(localRequestID, requestID)

		// Create request-scoped logger
		reqLogger := logger.With(
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		)
		c.Locals(localLogger, reqLogger)

		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.IP()),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}
		if query := string(c.Request().URI().QueryString()); query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		// Choose log level based on status code
		msg := "HTTP Request"
		switch {
		case status >= 500:
			reqLogger.Error(msg, fields...)
		case status >= 400:
			reqLogger.Warn(msg, fields...)
		default:
			reqLogger.Info(msg, fields...)
		}
		return err
	}
}

// Logger retrieves the request-scoped logger, falling back to fallback.
func Logger(c *fiber.Ctx, fallback *zap.Logger) *zap.Logger {
	if l, ok := c.Locals(localLogger).(*zap.Logger); ok {
		return l
	}
	return fallback
}
