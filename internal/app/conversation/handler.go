package conversation

import (
	"errors"
	"net/http"

	"backend/internal/app/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler interface {
	GetOrCreate(c *gin.Context)
	List(c *gin.Context)
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

func (h *handler) GetOrCreate(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req GetOrCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "other_user_id is required"})
		return
	}

	conv, err := h.service.GetOrCreate(c.Request.Context(), userID, req.OtherUserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoMutualSpark):
			c.JSON(http.StatusForbidden, gin.H{"error": "mutual spark required to start a conversation"})
		case errors.Is(err, ErrBlocked):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, ErrSelfConversation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Errorw("GetOrCreate: failed", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID})
}

func (h *handler) List(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	summaries, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("List: failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

func (h *handler) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	sessionKey := c.Query("session_key")
	if sessionKey == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_key is required"})
		return uuid.Nil, false
	}
	sess, err := h.sessionSvc.GetByKey(sessionKey)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session not found"})
		return uuid.Nil, false
	}
	return sess.UserID, true
}
