package router

import (
	"backend/internal/app/conversation"
	"backend/internal/app/health"
	"backend/internal/app/message"
	"backend/internal/app/presence"
	"backend/internal/app/profile"
	"backend/internal/app/safety"
	"backend/internal/app/spark"
	"backend/internal/gateways/websocket"
	"backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(logger *zap.Logger) *Router {
	engine := gin.New()
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(gin.Recovery())
	return &Router{Engine: engine}
}

func (r *Router) RegisterHealthRoutes(handler health.Handler) {
	health.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterWebSocketRoutes(handler websocket.Handler) {
	websocket.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterProfileRoutes(handler profile.Handler) {
	profile.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterSafetyRoutes(handler safety.Handler) {
	safety.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterSparkRoutes(handler spark.Handler) {
	spark.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterConversationRoutes(handler conversation.Handler) {
	conversation.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterMessageRoutes(handler message.Handler) {
	message.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterPresenceRoutes(handler presence.Handler) {
	presence.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) Serve(addr string) error {
	return r.Engine.Run(addr)
}
