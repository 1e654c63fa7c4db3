package profile

import (
	"net/http"

	"backend/internal/app/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler interface {
	GuestSignup(c *gin.Context)
	GetProfile(c *gin.Context)
	UpdateDisplayName(c *gin.Context)
	UpdateCountry(c *gin.Context)
	UpdateFlagVisibility(c *gin.Context)
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

func (h *handler) GuestSignup(c *gin.Context) {
	var req GuestSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("GuestSignup: invalid request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.service.GuestSignup(c.Request.Context(), &req, c.GetHeader("User-Agent"))
	if err != nil {
		h.logger.Warnw("GuestSignup: rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *handler) GetProfile(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *handler) UpdateDisplayName(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req UpdateDisplayNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "display name must be 3-20 characters"})
		return
	}

	if err := h.service.UpdateDisplayName(c.Request.Context(), userID, req.DisplayName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "display_name": req.DisplayName})
}

func (h *handler) UpdateCountry(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req UpdateCountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "country code must be a two-letter ISO code"})
		return
	}

	if err := h.service.UpdateCountry(c.Request.Context(), userID, req.CountryCode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handler) UpdateFlagVisibility(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req UpdateFlagVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ShowCountryFlag == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show_country_flag is required"})
		return
	}

	if err := h.service.UpdateFlagVisibility(c.Request.Context(), userID, *req.ShowCountryFlag); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update flag visibility"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
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
