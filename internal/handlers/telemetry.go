package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-dev/lifeline/internal/alerts"
	"github.com/lifeline-dev/lifeline/internal/apperrors"
	"github.com/lifeline-dev/lifeline/internal/telemetry"
)

type DiagnosticsRequest struct {
	OxygenLevel   float64 `json:"oxygen_level"`
	EnergyLevel   float64 `json:"energy_level"`
	HullIntegrity bool    `json:"hull_integrity"`
}

type TelemetryHandler struct {
	monitor  *alerts.Monitor
	producer *telemetry.Producer
}

func NewTelemetryHandler(monitor *alerts.Monitor, producer *telemetry.Producer) *TelemetryHandler {
	return &TelemetryHandler{monitor: monitor, producer: producer}
}

// InjectOxygenReading simulates an oxygen sensor reading. A hypoxic reading
// publishes a critical alert on its way through.
func (h *TelemetryHandler) InjectOxygenReading(ctx *gin.Context) {
	raw := ctx.Query("oxygen_percentage")

	oxygenPct, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		ctx.Error(&apperrors.ValidationError{Fields: map[string]string{"oxygen_percentage": "must be a number"}})
		return
	}

	status, err := h.monitor.EvaluateOxygen(oxygenPct, 0.04)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": status})
}

// SendTelemetry appends a raw sensor packet to the telemetry stream. The
// path is best-effort: a stream failure degrades to a warning, the request
// still succeeds.
func (h *TelemetryHandler) SendTelemetry(ctx *gin.Context) {
	var packet telemetry.Packet

	if err := ctx.ShouldBindJSON(&packet); err != nil {
		ctx.Error(&apperrors.ValidationError{Fields: map[string]string{"body": err.Error()}})
		return
	}

	if err := h.producer.Publish(ctx.Request.Context(), packet); err != nil {
		log.Printf("[telemetry] WARNING: packet from sensor %s not delivered: %v", packet.SensorID, err)
		ctx.JSON(http.StatusOK, gin.H{"message": "Telemetry accepted, delivery degraded", "sensor_id": packet.SensorID})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Telemetry sent", "sensor_id": packet.SensorID})
}

// RunDiagnostics reports combined system failures from the principal
// readings.
func (h *TelemetryHandler) RunDiagnostics(ctx *gin.Context) {
	var req DiagnosticsRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(&apperrors.ValidationError{Fields: map[string]string{"body": err.Error()}})
		return
	}

	report := alerts.DetectFailures(req.OxygenLevel, req.EnergyLevel, req.HullIntegrity)
	ctx.JSON(http.StatusOK, gin.H{"report": report})
}
