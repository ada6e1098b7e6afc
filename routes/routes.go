package routes

import (
	"net/http"
	"time"

	"fieldly/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterJobRoutes registers the job lifecycle endpoints consumed by the
// mobile UI.
func RegisterJobRoutes(r *gin.Engine, jobs *handlers.JobHandler, route *handlers.RouteHandler) {
	api := r.Group("/api")
	{
		api.GET("/tiers", handlers.GetTiers)
		api.GET("/route", route.GetRoute)

		api.POST("/jobs", jobs.SubmitBooking)
		api.GET("/jobs/:jobID", jobs.JobStatus)
		api.POST("/jobs/:jobID/approve", jobs.ApproveProvider)
		api.POST("/jobs/:jobID/reject", jobs.RejectProvider)
		api.GET("/jobs/:jobID/pending-provider", jobs.PendingProvider)
		api.POST("/jobs/:jobID/queue", jobs.KeepWaiting)
		api.POST("/jobs/:jobID/cancel", jobs.CancelJob)
		api.POST("/jobs/:jobID/chat", jobs.SendChat)
		api.GET("/jobs/:jobID/chat", jobs.ChatMessages)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
	})
}

// CORSMiddleware returns the CORS policy for the UI origin.
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
