package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/config"
	"github.com/venturelink/messaging/internal/handlers"
	"github.com/venturelink/messaging/internal/messaging"
	"github.com/venturelink/messaging/internal/metrics"
	"github.com/venturelink/messaging/internal/middleware"
	"github.com/venturelink/messaging/pkg/auth"
)

func registerRoutes(
	router *gin.Engine,
	cfg *config.Config,
	log *zap.Logger,
	m *metrics.Metrics,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
	counter messaging.Counter,
	authH *handlers.AuthHandler,
	messageH *handlers.MessageHandler,
	threadH *handlers.ThreadHandler,
	presenceH *handlers.PresenceHandler,
	wsH *handlers.WSHandler,
) {
	router.Use(middleware.RequestLogger(log))

	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api")
	{
		api.POST("/register", authH.Register)
		api.POST("/login", authH.Login)

		authed := api.Group("/")
		authed.Use(middleware.Auth(jwtMgr, rdb))
		authed.Use(middleware.APIRateLimit(counter, cfg.APIRequestsPerMinute))
		{
			authed.POST("/logout", authH.Logout)

			authed.POST("/messages", messageH.Send)
			authed.GET("/messages/search", messageH.Search)
			authed.GET("/messages/:id", messageH.Get)
			authed.PUT("/messages/:id", messageH.Update)
			authed.DELETE("/messages/:id", messageH.Delete)
			authed.POST("/messages/:id/read", messageH.MarkRead)
			authed.DELETE("/messages/:id/read", messageH.MarkUnread)
			authed.POST("/messages/:id/star", messageH.ToggleStar)
			authed.POST("/messages/:id/reactions", messageH.ToggleReaction)
			authed.POST("/messages/:id/attachments", messageH.AddAttachment)

			authed.POST("/threads", threadH.Create)
			authed.GET("/threads", threadH.List)
			authed.GET("/threads/:id", threadH.Get)
			authed.GET("/threads/:id/messages", messageH.ListThreadMessages)
			authed.POST("/threads/:id/participants", threadH.AddParticipant)
			authed.DELETE("/threads/:id/participants/:userID", threadH.RemoveParticipant)
			authed.POST("/threads/:id/archive", threadH.Archive)
			authed.POST("/threads/:id/unarchive", threadH.Unarchive)

			authed.GET("/presence/online", presenceH.Online)
			authed.GET("/presence/:id", presenceH.Status)

			authed.GET("/preferences", threadH.GetPreference)
			authed.PUT("/preferences", threadH.SavePreference)
		}
	}

	ws := router.Group("/ws")
	ws.Use(middleware.WSAuth(jwtMgr, rdb))
	ws.GET("", wsH.HandleWebSocket)
}
