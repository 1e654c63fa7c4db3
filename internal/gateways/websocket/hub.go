package websocket

import (
	"context"
	"encoding/json"
	"time"

	"backend/internal/app/conversation"
	"backend/internal/app/message"
	"backend/internal/app/presence"
	"backend/internal/app/spark"
	"backend/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// typingTTL bounds how long a typing state survives without a
	// refresh frame; crashed clients stop "typing" after this.
	typingTTL = 5 * time.Second

	// presenceRefresh keeps the online registry alive while the
	// socket is connected.
	presenceRefresh = 15 * time.Second
)

const (
	EventMessageCreated = "message_created"
	EventMessageUpdated = "message_updated"
	EventTypingSync     = "typing_sync"
	EventSparkReceived  = "spark_received"
)

// TypingState is one participant's current typing flag inside a
// conversation, as reported to subscribers.
type TypingState struct {
	UserID   uuid.UUID `json:"user_id"`
	IsTyping bool      `json:"is_typing"`
	updated  time.Time
}

// TypingSync is the level-triggered snapshot sent whenever any typing
// state in a conversation changes. Subscribers replace, never merge.
type TypingSync struct {
	ConversationID uuid.UUID     `json:"conversation_id"`
	States         []TypingState `json:"states"`
}

type Hub struct {
	clients map[*Client]bool
	byUser  map[uuid.UUID]map[*Client]bool
	rooms   map[uuid.UUID]map[*Client]bool
	typing  map[uuid.UUID]map[uuid.UUID]TypingState

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound

	eventBus        *utils.EventBus
	conversationSvc conversation.Service
	presenceSvc     presence.Service
	logger          *zap.SugaredLogger
}

func NewHub(
	eventBus *utils.EventBus,
	conversationSvc conversation.Service,
	presenceSvc presence.Service,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:         make(map[*Client]bool),
		byUser:          make(map[uuid.UUID]map[*Client]bool),
		rooms:           make(map[uuid.UUID]map[*Client]bool),
		typing:          make(map[uuid.UUID]map[uuid.UUID]TypingState),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		inbound:         make(chan inbound, 64),
		eventBus:        eventBus,
		conversationSvc: conversationSvc,
		presenceSvc:     presenceSvc,
		logger:          logger.Sugar(),
	}
}

// Run owns all hub state; registration, frames and bus events are
// serialized through this loop.
func (h *Hub) Run(ctx context.Context) {
	events := h.eventBus.SubscribeCh()
	presenceTicker := time.NewTicker(presenceRefresh)
	defer presenceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(ctx, client)
		case in := <-h.inbound:
			h.handleFrame(ctx, in.client, in.frame)
		case event := <-events:
			h.dispatch(event)
		case <-presenceTicker.C:
			h.refreshPresence(ctx)
		}
	}
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	h.clients[client] = true
	if h.byUser[client.UserID] == nil {
		h.byUser[client.UserID] = make(map[*Client]bool)
	}
	h.byUser[client.UserID][client] = true

	if err := h.presenceSvc.MarkOnline(ctx, client.UserID); err != nil {
		h.logger.Warnw("Failed to mark user online", "user_id", client.UserID, "error", err)
	}
	h.logger.Infow("Client connected", "client_id", client.ID, "user_id", client.UserID)
}

func (h *Hub) removeClient(ctx context.Context, client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if set := h.byUser[client.UserID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byUser, client.UserID)
			if err := h.presenceSvc.MarkOffline(ctx, client.UserID); err != nil {
				h.logger.Warnw("Failed to mark user offline", "user_id", client.UserID, "error", err)
			}
		}
	}

	for conversationID, members := range h.rooms {
		if members[client] {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, conversationID)
			}
			h.clearTyping(conversationID, client.UserID)
		}
	}
	h.logger.Infow("Client disconnected", "client_id", client.ID, "user_id", client.UserID)
}

func (h *Hub) handleFrame(ctx context.Context, client *Client, frame InboundFrame) {
	switch frame.Event {
	case "subscribe":
		h.subscribe(ctx, client, frame.ConversationID)
	case "unsubscribe":
		h.unsubscribe(client, frame.ConversationID)
	case "typing":
		h.setTyping(client, frame.ConversationID, frame.IsTyping)
	default:
		h.logger.Debugw("Unknown frame event", "event", frame.Event, "client_id", client.ID)
	}
}

func (h *Hub) subscribe(ctx context.Context, client *Client, conversationID uuid.UUID) {
	if conversationID == uuid.Nil {
		return
	}
	if _, err := h.conversationSvc.GetForParticipant(ctx, conversationID, client.UserID); err != nil {
		h.logger.Warnw("Rejected subscription",
			"client_id", client.ID,
			"user_id", client.UserID,
			"conversation_id", conversationID,
			"error", err,
		)
		return
	}
	if h.rooms[conversationID] == nil {
		h.rooms[conversationID] = make(map[*Client]bool)
	}
	h.rooms[conversationID][client] = true

	// Late subscriber gets the current typing picture right away.
	h.sendTo(client, EventTypingSync, h.typingSnapshot(conversationID))
}

func (h *Hub) unsubscribe(client *Client, conversationID uuid.UUID) {
	members := h.rooms[conversationID]
	if members == nil || !members[client] {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, conversationID)
	}
	h.clearTyping(conversationID, client.UserID)
}

func (h *Hub) setTyping(client *Client, conversationID uuid.UUID, isTyping bool) {
	members := h.rooms[conversationID]
	if members == nil || !members[client] {
		return
	}
	states := h.typing[conversationID]
	if states == nil {
		states = make(map[uuid.UUID]TypingState)
		h.typing[conversationID] = states
	}
	_, had := states[client.UserID]
	if isTyping {
		states[client.UserID] = TypingState{UserID: client.UserID, IsTyping: true, updated: time.Now()}
	} else {
		delete(states, client.UserID)
		if len(states) == 0 {
			delete(h.typing, conversationID)
		}
	}
	// A repeated flag only refreshes the timestamp; subscribers are
	// notified on actual transitions.
	if had == isTyping {
		return
	}
	h.broadcastTyping(conversationID)
}

// clearTyping drops a user's typing flag and notifies the room when
// it was set.
func (h *Hub) clearTyping(conversationID, userID uuid.UUID) {
	states := h.typing[conversationID]
	if states == nil {
		return
	}
	if _, ok := states[userID]; !ok {
		return
	}
	delete(states, userID)
	if len(states) == 0 {
		delete(h.typing, conversationID)
	}
	h.broadcastTyping(conversationID)
}

func (h *Hub) typingSnapshot(conversationID uuid.UUID) TypingSync {
	sync := TypingSync{ConversationID: conversationID, States: []TypingState{}}
	cutoff := time.Now().Add(-typingTTL)
	for userID, state := range h.typing[conversationID] {
		if state.updated.Before(cutoff) {
			delete(h.typing[conversationID], userID)
			continue
		}
		sync.States = append(sync.States, state)
	}
	return sync
}

func (h *Hub) broadcastTyping(conversationID uuid.UUID) {
	h.broadcastRoom(conversationID, EventTypingSync, h.typingSnapshot(conversationID))
}

// dispatch fans a bus event out to the sockets that should see it.
func (h *Hub) dispatch(event utils.Event) {
	switch event.Event {
	case utils.TopicMessageCreated:
		payload, ok := event.Data.(*message.MessageEvent)
		if !ok {
			return
		}
		h.broadcastRoom(payload.ConversationID, EventMessageCreated, payload)
	case utils.TopicMessagesRead:
		payload, ok := event.Data.(*message.ReadEvent)
		if !ok {
			return
		}
		// Read receipts go out as one row patch per message, so
		// subscribers apply them with the same update path as any
		// other row change.
		for _, id := range payload.MessageIDs {
			readAt := payload.ReadAt
			h.broadcastRoom(payload.ConversationID, EventMessageUpdated, &message.MessageEvent{
				ConversationID: payload.ConversationID,
				Message: &message.Message{
					ID:             id,
					ConversationID: payload.ConversationID,
					ReadAt:         &readAt,
				},
			})
		}
	case utils.TopicSparkReceived:
		payload, ok := event.Data.(*spark.SparkEvent)
		if !ok {
			return
		}
		h.sendToUser(payload.TargetID, EventSparkReceived, payload)
	}
}

func (h *Hub) broadcastRoom(conversationID uuid.UUID, event string, data interface{}) {
	members := h.rooms[conversationID]
	if len(members) == 0 {
		return
	}
	frame, err := json.Marshal(OutboundFrame{Event: event, Data: data})
	if err != nil {
		h.logger.Errorw("Failed to marshal frame", "event", event, "error", err)
		return
	}
	for client := range members {
		if !client.enqueue(frame) {
			h.logger.Warnw("Dropping frame for slow client", "client_id", client.ID, "event", event)
		}
	}
}

func (h *Hub) sendToUser(userID uuid.UUID, event string, data interface{}) {
	set := h.byUser[userID]
	if len(set) == 0 {
		return
	}
	frame, err := json.Marshal(OutboundFrame{Event: event, Data: data})
	if err != nil {
		h.logger.Errorw("Failed to marshal frame", "event", event, "error", err)
		return
	}
	for client := range set {
		client.enqueue(frame)
	}
}

func (h *Hub) sendTo(client *Client, event string, data interface{}) {
	frame, err := json.Marshal(OutboundFrame{Event: event, Data: data})
	if err != nil {
		h.logger.Errorw("Failed to marshal frame", "event", event, "error", err)
		return
	}
	client.enqueue(frame)
}

func (h *Hub) refreshPresence(ctx context.Context) {
	for userID := range h.byUser {
		if err := h.presenceSvc.Heartbeat(ctx, userID); err != nil {
			h.logger.Warnw("Presence heartbeat failed", "user_id", userID, "error", err)
		}
	}
}
