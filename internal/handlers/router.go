package handlers

import (
	"github.com/SAP-F-2025/offline-quiz/internal/services"
	"github.com/SAP-F-2025/offline-quiz/internal/utils"
	"github.com/gin-gonic/gin"
)

// HandlerManager manages all handlers and their dependencies
type HandlerManager struct {
	sessionHandler *SessionHandler
}

// NewHandlerManager creates a new handler manager with all handlers
func NewHandlerManager(session services.SessionService, maxArchiveBytes int64, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(session, maxArchiveBytes, logger),
	}
}

// SetupRoutes configures all routes for the quiz runner
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Session routes
	session := v1.Group("/session")
	{
		// Package
		session.POST("/archive", hm.sessionHandler.IngestArchive)
		session.GET("/manifest", hm.sessionHandler.GetManifest)
		session.GET("/assets/*path", hm.sessionHandler.GetAsset)

		// Progression
		session.POST("/start", hm.sessionHandler.StartQuiz)
		session.GET("/state", hm.sessionHandler.GetState)
		session.GET("/page", hm.sessionHandler.GetCurrentPage)
		session.PUT("/answers/:question_id", hm.sessionHandler.RecordAnswer)
		session.POST("/advance", hm.sessionHandler.Advance)
		session.POST("/retreat", hm.sessionHandler.Retreat)

		// Submission
		session.POST("/seal", hm.sessionHandler.Seal)
		session.GET("/artifacts/envelope", hm.sessionHandler.DownloadEnvelope)
		session.GET("/artifacts/private-key", hm.sessionHandler.DownloadPrivateKey)

		session.POST("/reset", hm.sessionHandler.Reset)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "offline-quiz",
		})
	})
}
