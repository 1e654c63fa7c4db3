package presence

import (
	"net/http"

	"backend/internal/app/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler interface {
	ListOnline(c *gin.Context)
}

type handler struct {
	service    Service
	sessionSvc session.Service
	logger     *zap.SugaredLogger
}

func NewHandler(service Service, sessionSvc session.Service, logger *zap.Logger) Handler {
	return &handler{
		service:    service,
		sessionSvc: sessionSvc,
		logger:     logger.Sugar(),
	}
}

func (h *handler) ListOnline(c *gin.Context) {
	sessionKey := c.Query("session_key")
	if sessionKey == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_key is required"})
		return
	}
	sess, err := h.sessionSvc.GetByKey(sessionKey)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session not found"})
		return
	}

	users, err := h.service.ListOnline(c.Request.Context(), sess.UserID)
	if err != nil {
		h.logger.Errorw("ListOnline: failed", "user_id", sess.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list online users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
