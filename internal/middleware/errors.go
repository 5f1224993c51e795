package middleware

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-dev/lifeline/internal/apperrors"
)

type errorBody struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	Path      string            `json:"path"`
}

// ErrorHandler renders every error attached to the context as the uniform
// body {timestamp, status, error, message, path}. Handlers call ctx.Error
// and return; nothing else writes error responses.
func ErrorHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		if len(ctx.Errors) == 0 || ctx.Writer.Written() {
			return
		}

		err := ctx.Errors.Last().Err
		status, label := classify(err)

		if status >= http.StatusInternalServerError {
			log.Printf("[http] %s %s failed: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
		}

		body := errorBody{
			Timestamp: time.Now(),
			Status:    status,
			Error:     label,
			Message:   err.Error(),
			Path:      ctx.Request.URL.Path,
		}

		var validationErr *apperrors.ValidationError
		if errors.As(err, &validationErr) {
			body.Message = ""
			body.Errors = validationErr.Fields
		}

		ctx.JSON(status, body)
	}
}

func classify(err error) (int, string) {
	var (
		validationErr       *apperrors.ValidationError
		notFoundErr         *apperrors.NotFoundError
		duplicateErr        *apperrors.DuplicateError
		nonInterruptibleErr *apperrors.NonInterruptibleError
		conflictErr         *apperrors.ConflictError
		deliveryErr         *apperrors.DeliveryError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "Validation Failed"
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, "Resource Not Found"
	case errors.As(err, &duplicateErr):
		return http.StatusUnprocessableEntity, "Quarantine Operation Failed"
	case errors.As(err, &nonInterruptibleErr):
		return http.StatusUnprocessableEntity, "Quarantine Operation Failed"
	case errors.As(err, &conflictErr):
		return http.StatusConflict, "Conflict"
	case errors.As(err, &deliveryErr):
		return http.StatusServiceUnavailable, "Alert Delivery Failed"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
