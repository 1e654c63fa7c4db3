package message

import (
	"errors"
	"net/http"
	"strconv"

	"backend/internal/app/conversation"
	"backend/internal/app/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler interface {
	Send(c *gin.Context)
	History(c *gin.Context)
	MarkRead(c *gin.Context)
	ToggleReaction(c *gin.Context)
	ListReactions(c *gin.Context)
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

func (h *handler) Send(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	msg, err := h.service.Send(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be empty"})
		case errors.Is(err, conversation.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "you are not part of this conversation"})
		default:
			h.logger.Errorw("Send: failed", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *handler) History(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}

	messages, total, err := h.service.History(c.Request.Context(), conversationID, userID, page, limit)
	if err != nil {
		if errors.Is(err, conversation.ErrNotParticipant) {
			c.JSON(http.StatusForbidden, gin.H{"error": "you are not part of this conversation"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

func (h *handler) MarkRead(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id is required"})
		return
	}

	count, err := h.service.MarkRead(c.Request.Context(), req.ConversationID, userID)
	if err != nil {
		if errors.Is(err, conversation.ErrNotParticipant) {
			c.JSON(http.StatusForbidden, gin.H{"error": "you are not part of this conversation"})
			return
		}
		h.logger.Errorw("MarkRead: failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "marked": count})
}

func (h *handler) ToggleReaction(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	var req ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid emoji"})
		return
	}

	action, err := h.service.ToggleReaction(c.Request.Context(), messageID, userID, req.Emoji)
	if err != nil {
		if errors.Is(err, conversation.ErrNotParticipant) {
			c.JSON(http.StatusForbidden, gin.H{"error": "you are not part of this conversation"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": action, "emoji": req.Emoji})
}

func (h *handler) ListReactions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	reactions, err := h.service.ListReactions(c.Request.Context(), messageID, userID)
	if err != nil {
		if errors.Is(err, conversation.ErrNotParticipant) {
			c.JSON(http.StatusForbidden, gin.H{"error": "you are not part of this conversation"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
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
