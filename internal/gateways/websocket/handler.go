package websocket

import (
	"net/http"

	"backend/internal/app/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler interface {
	ServeWS(c *gin.Context)
}

type handler struct {
	hub        *Hub
	sessionSvc session.Service
	logger     *zap.SugaredLogger
}

func NewHandler(hub *Hub, sessionSvc session.Service, logger *zap.Logger) Handler {
	return &handler{
		hub:        hub,
		sessionSvc: sessionSvc,
		logger:     logger.Sugar(),
	}
}

// ServeWS authenticates the session key, upgrades the connection and
// hands the socket to the hub.
func (h *handler) ServeWS(c *gin.Context) {
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

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("Failed to upgrade connection", "user_id", sess.UserID, "error", err)
		return
	}

	client := &Client{
		hub:        h.hub,
		conn:       conn,
		send:       make(chan []byte, 64),
		ID:         generateClientID(),
		UserID:     sess.UserID,
		SessionKey: sessionKey,
	}

	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
