package main

import (
	"callassist/internal/calllog"
	"callassist/internal/httpapi"
	"callassist/internal/livecall"
	"callassist/internal/phrases"
	"callassist/internal/recordings"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	phrases    *phrases.Service
	callLogs   *calllog.Service
	recordings *recordings.Store
	demoUserID int
	live       *livecall.Handler
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	h := httpapi.Handlers{
		Phrases:    deps.phrases,
		CallLogs:   deps.callLogs,
		Recordings: deps.recordings,
		DemoUserID: deps.demoUserID,
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		api.GET("/phrases", h.ListPhrases)
		api.POST("/phrases", h.CreatePhrase)
		api.DELETE("/phrases/:id", h.DeletePhrase)

		api.GET("/call-logs", h.ListCallLogs)
		api.POST("/call-logs", h.CreateCallLog)
		api.GET("/call-logs/:id", h.GetCallLog)
		api.PATCH("/call-logs/:id", h.UpdateCallLog)
		api.GET("/call-logs/:id/messages", h.ListCallMessages)
		api.POST("/call-logs/:id/messages", h.CreateCallMessage)

		api.POST("/recordings", h.UploadRecording)
	}

	// Recorded audio is served by the basename embedded in a call log's
	// recordingPath.
	r.GET("/recordings/:name", h.ServeRecording)

	// Live call transport: JSON control frames plus binary audio.
	r.GET("/ws/call", deps.live.Serve)
}
