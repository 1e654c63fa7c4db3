package chatview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"backend/internal/app/message"
	"backend/internal/app/spark"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ConversationSink receives the events a Stream routes for one
// subscribed conversation. *View satisfies it.
type ConversationSink interface {
	Ingest(event FeedEvent)
	HandleSync(states []PresenceState)
}

type clientFrame struct {
	Event          string    `json:"event"`
	ConversationID uuid.UUID `json:"conversation_id"`
	IsTyping       bool      `json:"is_typing,omitempty"`
}

type serverFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type typingSyncPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	States         []struct {
		UserID   uuid.UUID `json:"user_id"`
		IsTyping bool      `json:"is_typing"`
	} `json:"states"`
}

// Stream is the client side of the realtime gateway: one websocket
// carrying change-feed events, read receipts and typing syncs for
// every subscribed conversation, plus spark notifications for the
// session's user. It implements TypingBroadcaster.
type Stream struct {
	conn   *websocket.Conn
	logger *zap.SugaredLogger

	writeMu sync.Mutex

	mu    sync.Mutex
	sinks map[uuid.UUID]ConversationSink

	// OnSpark, when set before Run, is invoked for incoming spark
	// notifications.
	OnSpark func(event *spark.SparkEvent)
}

// DialStream connects to the gateway's /ws endpoint authenticating
// with the session key. Call Run to start routing frames.
func DialStream(ctx context.Context, gatewayURL, sessionKey string, logger *zap.Logger) (*Stream, error) {
	u, err := url.Parse(gatewayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway url: %w", err)
	}
	q := u.Query()
	q.Set("session_key", sessionKey)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gateway: %w", err)
	}

	return &Stream{
		conn:   conn,
		logger: logger.Sugar(),
		sinks:  make(map[uuid.UUID]ConversationSink),
	}, nil
}

// Run reads and routes frames until the connection drops or ctx is
// cancelled. A dropped connection only stops the stream; typing state
// downstream decays to "not typing" on its own.
func (s *Stream) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("gateway connection lost: %w", err)
		}

		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.logger.Debugw("Dropping malformed server frame", "error", err)
			continue
		}
		s.route(frame)
	}
}

func (s *Stream) route(frame serverFrame) {
	switch frame.Event {
	case "message_created":
		var payload message.MessageEvent
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.Message == nil {
			return
		}
		if sink := s.sink(payload.ConversationID); sink != nil {
			sink.Ingest(FeedEvent{Type: FeedInsert, Message: payload.Message})
		}
	case "message_updated":
		var payload message.MessageEvent
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.Message == nil {
			return
		}
		if sink := s.sink(payload.ConversationID); sink != nil {
			sink.Ingest(FeedEvent{Type: FeedUpdate, Message: payload.Message})
		}
	case "typing_sync":
		var payload typingSyncPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		sink := s.sink(payload.ConversationID)
		if sink == nil {
			return
		}
		states := make([]PresenceState, 0, len(payload.States))
		for _, st := range payload.States {
			states = append(states, PresenceState{UserID: st.UserID, IsTyping: st.IsTyping})
		}
		sink.HandleSync(states)
	case "spark_received":
		if s.OnSpark == nil {
			return
		}
		var payload spark.SparkEvent
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		s.OnSpark(&payload)
	}
}

// Subscribe opens the conversation's change feed and presence channel,
// routing its events into the sink.
func (s *Stream) Subscribe(conversationID uuid.UUID, sink ConversationSink) error {
	s.mu.Lock()
	s.sinks[conversationID] = sink
	s.mu.Unlock()
	return s.write(clientFrame{Event: "subscribe", ConversationID: conversationID})
}

// Unsubscribe releases the conversation's subscription; the server
// drops the typing flag for this user as part of it.
func (s *Stream) Unsubscribe(conversationID uuid.UUID) error {
	s.mu.Lock()
	delete(s.sinks, conversationID)
	s.mu.Unlock()
	return s.write(clientFrame{Event: "unsubscribe", ConversationID: conversationID})
}

// BroadcastTyping implements TypingBroadcaster over the gateway.
func (s *Stream) BroadcastTyping(conversationID uuid.UUID, isTyping bool) error {
	return s.write(clientFrame{Event: "typing", ConversationID: conversationID, IsTyping: isTyping})
}

func (s *Stream) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return s.conn.Close()
}

func (s *Stream) sink(conversationID uuid.UUID) ConversationSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sinks[conversationID]
}

func (s *Stream) write(frame clientFrame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(frame)
}
