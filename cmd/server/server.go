package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/config"
	"github.com/venturelink/messaging/internal/database"
	"github.com/venturelink/messaging/internal/handlers"
	"github.com/venturelink/messaging/internal/messaging"
	"github.com/venturelink/messaging/internal/metrics"
	"github.com/venturelink/messaging/internal/models"
	"github.com/venturelink/messaging/internal/notify"
	"github.com/venturelink/messaging/internal/ratelimit"
	"github.com/venturelink/messaging/internal/realtime"
	"github.com/venturelink/messaging/pkg/auth"
)

// Server is the composition root: one hub, one dispatcher, one service,
// wired once at startup.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	Router *gin.Engine
	Hub    *realtime.Hub
}

func NewServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect()
	if err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	m := metrics.New()
	hub := realtime.NewHub(log, m)
	counter := ratelimit.NewRedisCounter(rdb)

	svc := messaging.NewService(db, counter, log, m, messaging.Limits{
		SendPerHour:           cfg.SendPerHour,
		PrivilegedSendPerHour: cfg.PrivilegedSendPerHour,
		MaxActiveThreads:      cfg.MaxActiveThreads,
	})

	dispatcher := notify.NewDispatcher(
		db,
		hub,
		notify.NewRedisDeduper(rdb),
		notify.NewLogSender(models.ChannelPush, log),
		notify.NewLogSender(models.ChannelEmail, log),
		notify.NewLogSender(models.ChannelSMS, log),
		log,
		m,
	)

	events := handlers.NewEvents(hub, dispatcher, log)
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	authH := handlers.NewAuthHandler(db, jwtMgr, rdb, log)
	messageH := handlers.NewMessageHandler(svc, events, log)
	threadH := handlers.NewThreadHandler(svc, events, log)
	presenceH := handlers.NewPresenceHandler(hub)
	wsH := handlers.NewWSHandler(hub, svc, events, log)

	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, cfg, log, m, jwtMgr, rdb, counter,
		authH, messageH, threadH, presenceH, wsH)

	return &Server{cfg: cfg, log: log, Router: router, Hub: hub}, nil
}

func (s *Server) Run() error {
	go s.Hub.Run()
	defer s.Hub.Stop()

	s.log.Info("server starting", zap.String("port", s.cfg.Port))
	return s.Router.Run(":" + s.cfg.Port)
}
