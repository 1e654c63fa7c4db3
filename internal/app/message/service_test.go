package message

import (
	"context"
	"testing"
	"time"

	"backend/internal/app/conversation"
	"backend/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeMessageRepo struct {
	messages  map[uuid.UUID]*Message
	order     []uuid.UUID
	reactions map[uuid.UUID]*MessageReaction
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:  make(map[uuid.UUID]*Message),
		reactions: make(map[uuid.UUID]*MessageReaction),
	}
}

func (f *fakeMessageRepo) CreateMessage(msg *Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	f.messages[msg.ID] = msg
	f.order = append(f.order, msg.ID)
	return nil
}

func (f *fakeMessageRepo) GetMessageByID(id uuid.UUID) (*Message, error) {
	if m, ok := f.messages[id]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) GetMessagesByConversationID(conversationID uuid.UUID, page, limit int) ([]*Message, int64, error) {
	var out []*Message
	for _, id := range f.order {
		if f.messages[id].ConversationID == conversationID {
			out = append(out, f.messages[id])
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeMessageRepo) MarkRead(conversationID, readerID uuid.UUID, readAt time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, id := range f.order {
		m := f.messages[id]
		if m.ConversationID == conversationID && m.SenderID != readerID && m.ReadAt == nil {
			at := readAt
			m.ReadAt = &at
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeMessageRepo) GetReaction(messageID, userID uuid.UUID, emoji string) (*MessageReaction, error) {
	for _, r := range f.reactions {
		if r.MessageID == messageID && r.UserID == userID && r.Emoji == emoji {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) CreateReaction(reaction *MessageReaction) error {
	if reaction.ID == uuid.Nil {
		reaction.ID = uuid.New()
	}
	f.reactions[reaction.ID] = reaction
	return nil
}

func (f *fakeMessageRepo) DeleteReaction(id uuid.UUID) error {
	delete(f.reactions, id)
	return nil
}

func (f *fakeMessageRepo) ListReactions(messageID uuid.UUID) ([]*MessageReaction, error) {
	var out []*MessageReaction
	for _, r := range f.reactions {
		if r.MessageID == messageID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) TouchConversation(conversationID uuid.UUID) error { return nil }

// stubConversations admits fixed participants for one conversation.
type stubConversations struct {
	conversationID uuid.UUID
	participants   []uuid.UUID
}

func (s *stubConversations) GetOrCreate(_ context.Context, _, _ uuid.UUID) (*conversation.Conversation, error) {
	return nil, conversation.ErrNoMutualSpark
}

func (s *stubConversations) GetForParticipant(_ context.Context, conversationID, userID uuid.UUID) (*conversation.Conversation, error) {
	if conversationID != s.conversationID {
		return nil, gorm.ErrRecordNotFound
	}
	for _, id := range s.participants {
		if id == userID {
			return &conversation.Conversation{ID: conversationID}, nil
		}
	}
	return nil, conversation.ErrNotParticipant
}

func (s *stubConversations) List(_ context.Context, _ uuid.UUID) ([]*conversation.Summary, error) {
	return nil, nil
}

type messageFixture struct {
	svc   Service
	repo  *fakeMessageRepo
	bus   *utils.EventBus
	conv  uuid.UUID
	alice uuid.UUID
	bob   uuid.UUID
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	repo := newFakeMessageRepo()
	bus := utils.NewEventBus()
	conv, alice, bob := uuid.New(), uuid.New(), uuid.New()
	convs := &stubConversations{conversationID: conv, participants: []uuid.UUID{alice, bob}}
	svc := NewService(repo, convs, bus, zap.NewNop())
	return &messageFixture{svc: svc, repo: repo, bus: bus, conv: conv, alice: alice, bob: bob}
}

func TestSendValidatesContent(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.Send(context.Background(), f.alice, &SendMessageRequest{
		ConversationID: f.conv,
		Content:        "   \n  ",
	})
	assert.ErrorIs(t, err, ErrEmptyContent)

	long := make([]rune, MaxContentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.svc.Send(context.Background(), f.alice, &SendMessageRequest{
		ConversationID: f.conv,
		Content:        string(long),
	})
	assert.Error(t, err)
}

func TestSendRejectsOutsiders(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.Send(context.Background(), uuid.New(), &SendMessageRequest{
		ConversationID: f.conv,
		Content:        "hi",
	})
	assert.ErrorIs(t, err, conversation.ErrNotParticipant)
}

func TestSendEchoesClientID(t *testing.T) {
	f := newMessageFixture(t)

	var published *MessageEvent
	f.bus.Subscribe(utils.TopicMessageCreated, func(e utils.Event) {
		published = e.Data.(*MessageEvent)
	})

	clientID := uuid.New()
	msg, err := f.svc.Send(context.Background(), f.alice, &SendMessageRequest{
		ConversationID: f.conv,
		Content:        "hello",
		ClientID:       &clientID,
	})
	require.NoError(t, err)

	require.NotNil(t, msg.ClientID)
	assert.Equal(t, clientID, *msg.ClientID)

	// The feed payload carries the same idempotency key.
	require.NotNil(t, published)
	require.NotNil(t, published.Message.ClientID)
	assert.Equal(t, clientID, *published.Message.ClientID)
}

func TestSendDropsForeignReplyReference(t *testing.T) {
	f := newMessageFixture(t)

	foreign := &Message{ConversationID: uuid.New(), SenderID: f.bob, Content: "elsewhere"}
	require.NoError(t, f.repo.CreateMessage(foreign))

	msg, err := f.svc.Send(context.Background(), f.alice, &SendMessageRequest{
		ConversationID:   f.conv,
		Content:          "replying",
		ReplyToMessageID: &foreign.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, msg.ReplyToMessageID)

	// A same-conversation reference survives.
	parent, err := f.svc.Send(context.Background(), f.bob, &SendMessageRequest{
		ConversationID: f.conv,
		Content:        "original",
	})
	require.NoError(t, err)

	msg, err = f.svc.Send(context.Background(), f.alice, &SendMessageRequest{
		ConversationID:   f.conv,
		Content:          "reply",
		ReplyToMessageID: &parent.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, msg.ReplyToMessageID)
	assert.Equal(t, parent.ID, *msg.ReplyToMessageID)
}

func TestMarkReadPublishesOnce(t *testing.T) {
	f := newMessageFixture(t)

	var events []*ReadEvent
	f.bus.Subscribe(utils.TopicMessagesRead, func(e utils.Event) {
		events = append(events, e.Data.(*ReadEvent))
	})

	for _, content := range []string{"one", "two"} {
		_, err := f.svc.Send(context.Background(), f.bob, &SendMessageRequest{
			ConversationID: f.conv,
			Content:        content,
		})
		require.NoError(t, err)
	}

	marked, err := f.svc.MarkRead(context.Background(), f.conv, f.alice)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)
	require.Len(t, events, 1)
	assert.Len(t, events[0].MessageIDs, 2)
	assert.Equal(t, f.alice, events[0].ReaderID)

	// Idempotent: nothing left unread, no second event.
	marked, err = f.svc.MarkRead(context.Background(), f.conv, f.alice)
	require.NoError(t, err)
	assert.Zero(t, marked)
	assert.Len(t, events, 1)
}

func TestToggleReaction(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.svc.Send(context.Background(), f.bob, &SendMessageRequest{
		ConversationID: f.conv,
		Content:        "react to me",
	})
	require.NoError(t, err)

	action, err := f.svc.ToggleReaction(context.Background(), msg.ID, f.alice, "❤️")
	require.NoError(t, err)
	assert.Equal(t, "added", action)

	action, err = f.svc.ToggleReaction(context.Background(), msg.ID, f.alice, "❤️")
	require.NoError(t, err)
	assert.Equal(t, "removed", action)
}
