package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-dev/lifeline/db"
	"github.com/lifeline-dev/lifeline/internal/apperrors"
	"github.com/lifeline-dev/lifeline/internal/models"
)

// GetAlertHistory returns the flight log: the persistent history of every
// alert processed by the consumer, optionally filtered by severity.
func GetAlertHistory(ctx *gin.Context) {
	query := db.DB.Order("created_at DESC")

	if severity := ctx.Query("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}

	var history []models.AlertHistory
	if err := query.Find(&history).Error; err != nil {
		ctx.Error(&apperrors.InternalError{Err: fmt.Errorf("failed to load flight log: %w", err)})
		return
	}

	ctx.JSON(http.StatusOK, history)
}
