package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-dev/lifeline/internal/apperrors"
	"github.com/lifeline-dev/lifeline/internal/models"
	"github.com/lifeline-dev/lifeline/internal/quarantine"
	"github.com/lifeline-dev/lifeline/internal/types"
)

type StartQuarantineRequest struct {
	Code             string                  `json:"code" binding:"required"`
	LabID            string                  `json:"lab_id" binding:"required"`
	Protocol         types.EmergencyProtocol `json:"protocol" binding:"required"`
	Reason           string                  `json:"reason" binding:"required"`
	NonInterruptible *bool                   `json:"non_interruptible"`
	MemberIDs        []uint                  `json:"member_ids" binding:"required"`
}

type QuarantineResponse struct {
	Code             string                  `json:"code"`
	LabID            string                  `json:"lab_id"`
	Protocol         types.EmergencyProtocol `json:"protocol"`
	ProtocolInfo     string                  `json:"protocol_info"`
	Reason           string                  `json:"reason"`
	Active           bool                    `json:"active"`
	NonInterruptible bool                    `json:"non_interruptible"`
	CreatedAt        time.Time               `json:"created_at"`
	EstimatedEndTime time.Time               `json:"estimated_end_time"`
	Expired          bool                    `json:"expired"`
	RemainingHours   int64                   `json:"remaining_hours"`
	MemberIDs        []uint                  `json:"member_ids"`
}

type QuarantineHandler struct {
	registry *quarantine.Registry
}

func NewQuarantineHandler(registry *quarantine.Registry) *QuarantineHandler {
	return &QuarantineHandler{registry: registry}
}

func (h *QuarantineHandler) Start(ctx *gin.Context) {
	var req StartQuarantineRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(&apperrors.ValidationError{Fields: map[string]string{"body": err.Error()}})
		return
	}

	created, err := h.registry.Start(quarantine.StartRequest{
		Code:             req.Code,
		LabID:            req.LabID,
		Protocol:         req.Protocol,
		Reason:           req.Reason,
		NonInterruptible: req.NonInterruptible,
		MemberIDs:        req.MemberIDs,
	})
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusCreated, toResponse(created))
}

func (h *QuarantineHandler) GetByCode(ctx *gin.Context) {
	found, err := h.registry.GetByCode(ctx.Param("code"))
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, toResponse(found))
}

func (h *QuarantineHandler) ListAll(ctx *gin.Context) {
	quarantines, err := h.registry.ListAll()
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, toResponses(quarantines))
}

func (h *QuarantineHandler) ListActive(ctx *gin.Context) {
	quarantines, err := h.registry.ListActive()
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, toResponses(quarantines))
}

func (h *QuarantineHandler) End(ctx *gin.Context) {
	if err := h.registry.End(ctx.Param("code")); err != nil {
		ctx.Error(err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *QuarantineHandler) IsMemberQuarantined(ctx *gin.Context) {
	memberID, err := strconv.ParseUint(ctx.Param("member_id"), 10, 64)
	if err != nil {
		ctx.Error(&apperrors.ValidationError{Fields: map[string]string{"member_id": "must be a numeric id"}})
		return
	}

	quarantined, err := h.registry.IsMemberQuarantined(uint(memberID))
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"member_id": memberID, "quarantined": quarantined})
}

func toResponse(q *models.Quarantine) QuarantineResponse {
	memberIDs := make([]uint, len(q.Members))
	for i, member := range q.Members {
		memberIDs[i] = member.ID
	}

	return QuarantineResponse{
		Code:             q.Code,
		LabID:            q.LabID,
		Protocol:         q.Protocol,
		ProtocolInfo:     q.Protocol.Description(),
		Reason:           q.Reason,
		Active:           q.Active,
		NonInterruptible: q.NonInterruptible,
		CreatedAt:        q.CreatedAt,
		EstimatedEndTime: q.EstimatedEndTime,
		Expired:          q.HasExpired(),
		RemainingHours:   q.RemainingHours(),
		MemberIDs:        memberIDs,
	}
}

func toResponses(quarantines []models.Quarantine) []QuarantineResponse {
	responses := make([]QuarantineResponse, len(quarantines))
	for i := range quarantines {
		responses[i] = toResponse(&quarantines[i])
	}
	return responses
}
