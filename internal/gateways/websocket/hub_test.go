package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"backend/internal/app/conversation"
	"backend/internal/app/message"
	"backend/internal/app/presence"
	"backend/internal/app/spark"
	"backend/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubConversations struct {
	members map[uuid.UUID][]uuid.UUID
}

func (s *stubConversations) GetOrCreate(_ context.Context, _, _ uuid.UUID) (*conversation.Conversation, error) {
	return nil, errors.New("not implemented")
}

func (s *stubConversations) GetForParticipant(_ context.Context, conversationID, userID uuid.UUID) (*conversation.Conversation, error) {
	for _, id := range s.members[conversationID] {
		if id == userID {
			return &conversation.Conversation{ID: conversationID}, nil
		}
	}
	return nil, conversation.ErrNotParticipant
}

func (s *stubConversations) List(_ context.Context, _ uuid.UUID) ([]*conversation.Summary, error) {
	return nil, nil
}

type stubPresence struct {
	mu      sync.Mutex
	online  []uuid.UUID
	offline []uuid.UUID
}

func (s *stubPresence) MarkOnline(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = append(s.online, userID)
	return nil
}

func (s *stubPresence) Heartbeat(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubPresence) MarkOffline(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = append(s.offline, userID)
	return nil
}

func (s *stubPresence) ListOnline(_ context.Context, _ uuid.UUID) ([]*presence.OnlineUser, error) {
	return nil, nil
}

func (s *stubPresence) wentOffline(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.offline {
		if id == userID {
			return true
		}
	}
	return false
}

// stubConn satisfies ClientConn; the hub tests drive clients through
// channels instead of real sockets.
type stubConn struct{}

func (stubConn) ReadMessage() (int, []byte, error)          { return 0, nil, errors.New("closed") }
func (stubConn) WriteMessage(int, []byte) error             { return nil }
func (stubConn) SetReadLimit(int64)                         {}
func (stubConn) SetReadDeadline(time.Time) error            { return nil }
func (stubConn) SetWriteDeadline(time.Time) error           { return nil }
func (stubConn) SetPongHandler(func(string) error)          {}
func (stubConn) Close() error                               { return nil }

type hubFixture struct {
	hub      *Hub
	bus      *utils.EventBus
	presence *stubPresence
	convs    *stubConversations
	cancel   context.CancelFunc
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	bus := utils.NewEventBus()
	convs := &stubConversations{members: make(map[uuid.UUID][]uuid.UUID)}
	pres := &stubPresence{}
	hub := NewHub(bus, convs, pres, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	return &hubFixture{hub: hub, bus: bus, presence: pres, convs: convs, cancel: cancel}
}

func (f *hubFixture) connect(userID uuid.UUID) *Client {
	client := &Client{
		hub:    f.hub,
		conn:   stubConn{},
		send:   make(chan []byte, 16),
		ID:     generateClientID(),
		UserID: userID,
	}
	f.hub.register <- client
	return client
}

func (f *hubFixture) frame(c *Client, frame InboundFrame) {
	f.hub.inbound <- inbound{client: c, frame: frame}
}

func receiveFrame(t *testing.T, c *Client) OutboundFrame {
	t.Helper()
	select {
	case data := <-c.send:
		var frame OutboundFrame
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return OutboundFrame{}
	}
}

func decodeData(t *testing.T, frame OutboundFrame, dst interface{}) {
	t.Helper()
	raw, err := json.Marshal(frame.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func TestSubscribeDeliversMessages(t *testing.T) {
	f := newHubFixture(t)
	alice, bob := uuid.New(), uuid.New()
	conversationID := uuid.New()
	f.convs.members[conversationID] = []uuid.UUID{alice, bob}

	client := f.connect(bob)
	f.frame(client, InboundFrame{Event: "subscribe", ConversationID: conversationID})

	// The subscription ack is the current typing snapshot.
	sync := receiveFrame(t, client)
	assert.Equal(t, EventTypingSync, sync.Event)

	f.bus.Publish(utils.TopicMessageCreated, &message.MessageEvent{
		ConversationID: conversationID,
		Message: &message.Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			SenderID:       alice,
			Content:        "hello",
		},
	})

	frame := receiveFrame(t, client)
	assert.Equal(t, EventMessageCreated, frame.Event)

	var payload message.MessageEvent
	decodeData(t, frame, &payload)
	assert.Equal(t, conversationID, payload.ConversationID)
	assert.Equal(t, "hello", payload.Message.Content)
}

func TestSubscribeRejectsNonParticipant(t *testing.T) {
	f := newHubFixture(t)
	conversationID := uuid.New()
	f.convs.members[conversationID] = []uuid.UUID{uuid.New(), uuid.New()}

	outsider := f.connect(uuid.New())
	f.frame(outsider, InboundFrame{Event: "subscribe", ConversationID: conversationID})

	f.bus.Publish(utils.TopicMessageCreated, &message.MessageEvent{
		ConversationID: conversationID,
		Message:        &message.Message{ID: uuid.New(), ConversationID: conversationID},
	})

	select {
	case data := <-outsider.send:
		t.Fatalf("outsider received frame: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTypingRelayedToRoom(t *testing.T) {
	f := newHubFixture(t)
	alice, bob := uuid.New(), uuid.New()
	conversationID := uuid.New()
	f.convs.members[conversationID] = []uuid.UUID{alice, bob}

	aliceConn := f.connect(alice)
	bobConn := f.connect(bob)
	f.frame(aliceConn, InboundFrame{Event: "subscribe", ConversationID: conversationID})
	f.frame(bobConn, InboundFrame{Event: "subscribe", ConversationID: conversationID})
	receiveFrame(t, aliceConn)
	receiveFrame(t, bobConn)

	f.frame(aliceConn, InboundFrame{Event: "typing", ConversationID: conversationID, IsTyping: true})

	frame := receiveFrame(t, bobConn)
	require.Equal(t, EventTypingSync, frame.Event)

	var sync TypingSync
	decodeData(t, frame, &sync)
	require.Len(t, sync.States, 1)
	assert.Equal(t, alice, sync.States[0].UserID)
	assert.True(t, sync.States[0].IsTyping)

	// A repeated flag does not rebroadcast.
	f.frame(aliceConn, InboundFrame{Event: "typing", ConversationID: conversationID, IsTyping: true})
	f.frame(aliceConn, InboundFrame{Event: "typing", ConversationID: conversationID, IsTyping: false})

	frame = receiveFrame(t, bobConn)
	require.Equal(t, EventTypingSync, frame.Event)
	decodeData(t, frame, &sync)
	assert.Empty(t, sync.States)
}

func TestDisconnectClearsTyping(t *testing.T) {
	f := newHubFixture(t)
	alice, bob := uuid.New(), uuid.New()
	conversationID := uuid.New()
	f.convs.members[conversationID] = []uuid.UUID{alice, bob}

	aliceConn := f.connect(alice)
	bobConn := f.connect(bob)
	f.frame(aliceConn, InboundFrame{Event: "subscribe", ConversationID: conversationID})
	f.frame(bobConn, InboundFrame{Event: "subscribe", ConversationID: conversationID})
	receiveFrame(t, aliceConn)
	receiveFrame(t, bobConn)

	f.frame(aliceConn, InboundFrame{Event: "typing", ConversationID: conversationID, IsTyping: true})
	receiveFrame(t, bobConn)

	f.hub.unregister <- aliceConn

	frame := receiveFrame(t, bobConn)
	require.Equal(t, EventTypingSync, frame.Event)

	var sync TypingSync
	decodeData(t, frame, &sync)
	assert.Empty(t, sync.States)

	require.Eventually(t, func() bool {
		return f.presence.wentOffline(alice)
	}, time.Second, 10*time.Millisecond)
}

func TestReadReceiptsFanOutAsRowPatches(t *testing.T) {
	f := newHubFixture(t)
	alice, bob := uuid.New(), uuid.New()
	conversationID := uuid.New()
	f.convs.members[conversationID] = []uuid.UUID{alice, bob}

	client := f.connect(alice)
	f.frame(client, InboundFrame{Event: "subscribe", ConversationID: conversationID})
	receiveFrame(t, client)

	readAt := time.Now().UTC().Truncate(time.Second)
	msgIDs := []uuid.UUID{uuid.New(), uuid.New()}
	f.bus.Publish(utils.TopicMessagesRead, &message.ReadEvent{
		ConversationID: conversationID,
		ReaderID:       bob,
		MessageIDs:     msgIDs,
		ReadAt:         readAt,
	})

	// One message_updated patch per read message.
	for _, want := range msgIDs {
		frame := receiveFrame(t, client)
		require.Equal(t, EventMessageUpdated, frame.Event)

		var payload message.MessageEvent
		decodeData(t, frame, &payload)
		assert.Equal(t, want, payload.Message.ID)
		require.NotNil(t, payload.Message.ReadAt)
		assert.True(t, payload.Message.ReadAt.Equal(readAt))
	}
}

func TestSparkDeliveredToTargetOnly(t *testing.T) {
	f := newHubFixture(t)
	alice, bob := uuid.New(), uuid.New()

	aliceConn := f.connect(alice)
	bobConn := f.connect(bob)

	f.bus.Publish(utils.TopicSparkReceived, &spark.SparkEvent{
		ReactorID: alice,
		TargetID:  bob,
		Emoji:     "❤️",
	})

	frame := receiveFrame(t, bobConn)
	assert.Equal(t, EventSparkReceived, frame.Event)

	select {
	case data := <-aliceConn.send:
		t.Fatalf("sender received own spark event: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}
