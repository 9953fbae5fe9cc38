package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"brushquest-server/internal/models"
)

// APIError is the JSON error body every handler returns.
type APIError struct {
	Error string `json:"error"`
}

// respondError maps the application's sentinel errors to HTTP status codes at
// the handler boundary. Anything unrecognized is a 500, and 5xx causes are
// logged with their full chain.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrMethodNotAllowed):
		status = http.StatusMethodNotAllowed
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, APIError{Error: err.Error()})
}

// parseID parses a uuid path parameter, responding 400 on failure. The bool
// result reports whether the handler should continue.
func parseID(c *gin.Context, logger *zap.Logger, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondError(c, logger, fmt.Errorf("%w: invalid %s", models.ErrValidation, param))
		return uuid.UUID{}, false
	}
	return id, true
}
