package spark

import (
	"errors"
	"net/http"

	"backend/internal/app/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler interface {
	Send(c *gin.Context)
	Delete(c *gin.Context)
	List(c *gin.Context)
	Quota(c *gin.Context)
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

	var req SendSparkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.service.SendSpark(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrQuotaExceeded):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Daily spark limit reached. Upgrade to premium for unlimited sparks!"})
		case errors.Is(err, ErrBlocked):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, ErrSelfSpark):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Errorw("Send: failed", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send spark"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handler) Delete(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req DeleteSparkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	refunded, err := h.service.DeleteSpark(c.Request.Context(), userID, req.TargetUserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSpark):
			c.JSON(http.StatusNotFound, gin.H{"error": "no spark to undo"})
		case errors.Is(err, ErrUndoExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "spark is too old to undo"})
		default:
			h.logger.Errorw("Delete: failed", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to undo spark"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "quota_refunded": refunded})
}

func (h *handler) List(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	listType := c.DefaultQuery("type", "received")
	items, err := h.service.ListSparks(c.Request.Context(), userID, listType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sparks": items})
}

func (h *handler) Quota(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	status, err := h.service.Quota(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check quota"})
		return
	}

	c.JSON(http.StatusOK, status)
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
