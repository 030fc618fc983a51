// Package respond renders service results and errors as JSON responses.
package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

var statusByKind = map[errs.Kind]int{
	errs.KindValidation:   http.StatusBadRequest,
	errs.KindDuplicateKey: http.StatusBadRequest,
	errs.KindConflict:     http.StatusBadRequest,
	errs.KindNotFound:     http.StatusNotFound,
	errs.KindForbidden:    http.StatusForbidden,
	errs.KindUnauthorized: http.StatusUnauthorized,
	errs.KindUnavailable:  http.StatusServiceUnavailable,
	errs.KindInternal:     http.StatusInternalServerError,
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	if status, ok := statusByKind[errs.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error   errs.Kind         `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error renders err and aborts the request. Internal failures are
// logged and their cause is never sent to the client.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	body := ErrorBody{Error: errs.KindOf(err), Message: "internal server error"}

	var e *errs.Error
	if errors.As(err, &e) {
		body.Message = e.Message
		body.Details = e.Details
	}
	if body.Error == errs.KindInternal {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(StatusFor(err), body)
}

// Bind decodes and validates the JSON body into dst, writing a 400 on
// failure.
func Bind(c *gin.Context, logger *zap.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.Debug("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		Error(c, logger, models.ValidationError(err))
		return false
	}
	return true
}
