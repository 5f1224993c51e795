package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lifeline-dev/lifeline/internal/handlers"
	"github.com/lifeline-dev/lifeline/internal/middleware"
	"github.com/lifeline-dev/lifeline/internal/types"
)

func NewRouter(quarantineHandler *handlers.QuarantineHandler, telemetryHandler *handlers.TelemetryHandler, requestTimeout time.Duration) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestTimeout(requestTimeout))
	r.Use(middleware.ErrorHandler())

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/telemetry", handlers.TelemetryWebSocket)

		quarantines := api.Group("/quarantines")
		{
			quarantines.POST("", quarantineHandler.Start)
			quarantines.GET("", quarantineHandler.ListAll)
			quarantines.GET("/active", quarantineHandler.ListActive)
			quarantines.GET("/member/:member_id", quarantineHandler.IsMemberQuarantined)
			quarantines.GET("/:code", quarantineHandler.GetByCode)
			quarantines.POST("/:code/end", quarantineHandler.End)
		}

		tele := api.Group("/telemetry")
		{
			tele.POST("", telemetryHandler.SendTelemetry)
			tele.POST("/oxygen", telemetryHandler.InjectOxygenReading)
			tele.POST("/diagnostics", telemetryHandler.RunDiagnostics)
		}

		api.GET("/alerts", handlers.GetAlertHistory)
	}

	return r
}
