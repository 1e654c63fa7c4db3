package app

import (
	"context"

	"backend/internal/app/conversation"
	"backend/internal/app/health"
	"backend/internal/app/message"
	"backend/internal/app/presence"
	"backend/internal/app/profile"
	"backend/internal/app/safety"
	"backend/internal/app/session"
	"backend/internal/app/spark"
	"backend/internal/config"
	"backend/internal/db"
	"backend/internal/db/seeder"
	"backend/internal/gateways/websocket"
	"backend/internal/jobs"
	"backend/internal/providers/redis"
	"backend/internal/router"
	"backend/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Application struct {
	Router *router.Router
	DB     *gorm.DB
	Jobs   *jobs.Runner

	cancelHub context.CancelFunc
}

func Bootstrap(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, logger); err != nil {
		return nil, err
	}

	if cfg.Env == "dev" {
		seed := seeder.NewSeeder(dbConn, logger)
		if err := seed.Seed(); err != nil {
			logger.Warn("Failed to run seeders", zap.Error(err))
		}
	}

	redisProvider := redis.NewRedisProvider(cfg.RedisURL, logger, cfg.RedisTTL)
	eventBus := utils.NewEventBus()

	sessionRepo := session.NewRepository(dbConn)
	profileRepo := profile.NewRepository(dbConn)
	safetyRepo := safety.NewRepository(dbConn)
	sparkRepo := spark.NewRepository(dbConn)
	conversationRepo := conversation.NewRepository(dbConn)
	messageRepo := message.NewRepository(dbConn)

	sessionService := session.NewService(sessionRepo)
	profileService := profile.NewService(profileRepo, sessionService, redisProvider, logger)
	safetyService := safety.NewService(safetyRepo, logger)
	sparkService := spark.NewService(sparkRepo, profileService, safetyService, eventBus, cfg, logger)
	conversationService := conversation.NewService(conversationRepo, profileService, safetyService, sparkService, logger)
	messageService := message.NewService(messageRepo, conversationService, eventBus, logger)
	presenceService := presence.NewService(redisProvider, profileService, safetyService, cfg, logger)

	hub := websocket.NewHub(eventBus, conversationService, presenceService, logger)
	hubCtx, cancelHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	runner := jobs.NewRunner(sessionService, sparkRepo, cfg, logger)
	if err := runner.Start(); err != nil {
		cancelHub()
		return nil, err
	}

	healthHandler := health.NewHandler(&utils.HealthChecker{
		DB:    dbConn,
		Redis: redisProvider.Client,
	})
	wsHandler := websocket.NewHandler(hub, sessionService, logger)
	profileHandler := profile.NewHandler(profileService, sessionService, logger)
	safetyHandler := safety.NewHandler(safetyService, sessionService, logger)
	sparkHandler := spark.NewHandler(sparkService, sessionService, logger)
	conversationHandler := conversation.NewHandler(conversationService, sessionService, logger)
	messageHandler := message.NewHandler(messageService, sessionService, logger)
	presenceHandler := presence.NewHandler(presenceService, sessionService, logger)

	r := router.NewRouter(logger)

	r.RegisterHealthRoutes(healthHandler)
	r.RegisterWebSocketRoutes(wsHandler)
	r.RegisterProfileRoutes(profileHandler)
	r.RegisterSafetyRoutes(safetyHandler)
	r.RegisterSparkRoutes(sparkHandler)
	r.RegisterConversationRoutes(conversationHandler)
	r.RegisterMessageRoutes(messageHandler)
	r.RegisterPresenceRoutes(presenceHandler)

	return &Application{
		Router:    r,
		DB:        dbConn,
		Jobs:      runner,
		cancelHub: cancelHub,
	}, nil
}

// Shutdown stops the background workers.
func (a *Application) Shutdown() {
	a.Jobs.Stop()
	a.cancelHub()
}
