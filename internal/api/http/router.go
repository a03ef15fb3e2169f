package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(
	allowedOrigins []string,
	signalingController *SignalingController,
	moderationController *ModerationController,
	historyController *HistoryController,
) *gin.Engine {
	router := gin.Default()
	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
		"X-API-Key",
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	if signalingController != nil {
		router.GET("/ws", signalingController.Connect)
		api.GET("/stats", signalingController.Stats)
	}

	if historyController != nil {
		api.GET("/matches/recent", historyController.ListRecent)
	}

	if moderationController != nil && moderationController.Enabled() {
		mod := api.Group("/moderation", moderationController.Authorize)
		mod.POST("/evict", moderationController.Evict)
	}

	return router
}
