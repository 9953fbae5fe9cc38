package handler

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"brushquest-server/internal/models"
)

// ZapLogger logs every request with zap, skipping the probe endpoints.
func ZapLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if path == "/healthz" || path == "/metrics" {
			c.Next()
			return
		}

		c.Next()

		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}
		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("server error", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("client error", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// checkAdminPassword compares a submitted password against the configured
// one, which may be a bcrypt hash or a plain shared secret.
func checkAdminPassword(configured, submitted string) error {
	if configured == "" {
		return fmt.Errorf("%w: ADMIN_PASSWORD is not set", models.ErrProvider)
	}
	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") {
		if err := bcrypt.CompareHashAndPassword([]byte(configured), []byte(submitted)); err != nil {
			return fmt.Errorf("%w: wrong password", models.ErrUnauthorized)
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(configured), []byte(submitted)) != 1 {
		return fmt.Errorf("%w: wrong password", models.ErrUnauthorized)
	}
	return nil
}

// AdminAuth guards admin routes with the shared password carried in the
// X-Admin-Key header.
func AdminAuth(password string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checkAdminPassword(password, c.GetHeader("X-Admin-Key")); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Next()
	}
}
