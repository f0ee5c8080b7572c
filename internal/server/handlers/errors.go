package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/repository/mongodb"
	"github.com/mamadbah2/aviario/internal/repository/sqlstore"
	"github.com/mamadbah2/aviario/internal/service/batches"
	"github.com/mamadbah2/aviario/internal/service/validation"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, sqlstore.ErrNotFound), errors.Is(err, mongodb.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sqlstore.ErrConflict), errors.Is(err, batches.ErrBatchFinalized):
		return http.StatusConflict
	case errors.Is(err, models.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal errors are logged and not echoed.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var ve *validation.Error
	if errors.As(err, &ve) {
		body["fields"] = ve.Fields
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
