package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Routes groups the handlers served by the API.
type Routes struct {
	Tagging *TaggingHandler
	Export  *ExportHandler
	Health  *HealthHandler
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the gin engine. Health and metrics endpoints are public;
// everything under /api/v1 passes through auth when it is non-nil.
func NewRouter(routes Routes, auth gin.HandlerFunc, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)

	health := router.Group("/health")
	health.GET("/live", routes.Health.LivenessProbe)
	health.GET("/ready", routes.Health.ReadinessProbe)

	if routes.Metrics != nil {
		router.GET("/metrics", gin.WrapH(routes.Metrics))
	}

	api := router.Group("/api/v1")
	if auth != nil {
		api.Use(auth)
	}

	api.GET("/vocabulary", routes.Tagging.Vocabulary)
	api.POST("/videos", routes.Tagging.OpenVideo)

	videos := api.Group("/videos/:videoId")
	videos.GET("/events", routes.Tagging.ListEvents)
	videos.POST("/events", routes.Tagging.AddTag)
	videos.DELETE("/events/:eventId", routes.Tagging.DeleteTag)
	videos.GET("/stats", routes.Tagging.Stats)
	videos.POST("/seek", routes.Tagging.RequestSeek)
	videos.GET("/seek", routes.Tagging.GetSeek)
	videos.GET("/export/:format", routes.Export.Export)

	api.POST("/admin/sweep", routes.Export.Sweep)

	return router
}
