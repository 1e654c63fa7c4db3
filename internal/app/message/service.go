package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"backend/internal/app/conversation"
	"backend/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrEmptyContent = errors.New("message cannot be empty")

type Service interface {
	Send(ctx context.Context, senderID uuid.UUID, req *SendMessageRequest) (*Message, error)
	History(ctx context.Context, conversationID, userID uuid.UUID, page, limit int) ([]*Message, int64, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int, error)
	ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) (string, error)
	ListReactions(ctx context.Context, messageID, userID uuid.UUID) ([]*MessageReaction, error)
}

type service struct {
	repo            Repository
	conversationSvc conversation.Service
	eventBus        *utils.EventBus
	logger          *zap.SugaredLogger
}

func NewService(
	repo Repository,
	conversationSvc conversation.Service,
	eventBus *utils.EventBus,
	logger *zap.Logger,
) Service {
	return &service{
		repo:            repo,
		conversationSvc: conversationSvc,
		eventBus:        eventBus,
		logger:          logger.Sugar(),
	}
}

func (s *service) Send(ctx context.Context, senderID uuid.UUID, req *SendMessageRequest) (*Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return nil, fmt.Errorf("message is too long: %d characters, max %d", n, MaxContentLength)
	}

	conv, err := s.conversationSvc.GetForParticipant(ctx, req.ConversationID, senderID)
	if err != nil {
		return nil, err
	}

	// A reply reference pointing outside this conversation is treated
	// as absent, not as an error.
	replyTo := req.ReplyToMessageID
	if replyTo != nil {
		parent, err := s.repo.GetMessageByID(*replyTo)
		if err != nil || parent.ConversationID != conv.ID {
			s.logger.Warnw("Dropping invalid reply reference",
				"conversation_id", conv.ID,
				"reply_to_message_id", *replyTo,
			)
			replyTo = nil
		}
	}

	msg := &Message{
		ConversationID:   conv.ID,
		SenderID:         senderID,
		Content:          content,
		ReplyToMessageID: replyTo,
		ClientID:         req.ClientID,
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := s.repo.TouchConversation(conv.ID); err != nil {
		s.logger.Warnw("Failed to bump conversation", "conversation_id", conv.ID, "error", err)
	}

	s.eventBus.Publish(utils.TopicMessageCreated, &MessageEvent{
		ConversationID: conv.ID,
		Message:        msg,
	})

	return msg, nil
}

func (s *service) History(ctx context.Context, conversationID, userID uuid.UUID, page, limit int) ([]*Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	if _, err := s.conversationSvc.GetForParticipant(ctx, conversationID, userID); err != nil {
		return nil, 0, err
	}

	messages, total, err := s.repo.GetMessagesByConversationID(conversationID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, total, nil
}

// MarkRead stamps everything the reader has not seen and reports how
// many messages it touched. Calling it twice is harmless.
func (s *service) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int, error) {
	if _, err := s.conversationSvc.GetForParticipant(ctx, conversationID, readerID); err != nil {
		return 0, err
	}

	readAt := time.Now().UTC()
	ids, err := s.repo.MarkRead(conversationID, readerID, readAt)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages as read: %w", err)
	}

	if len(ids) > 0 {
		s.eventBus.Publish(utils.TopicMessagesRead, &ReadEvent{
			ConversationID: conversationID,
			ReaderID:       readerID,
			MessageIDs:     ids,
			ReadAt:         readAt,
		})
	}
	return len(ids), nil
}

// ToggleReaction adds the emoji if the user has not reacted with it
// yet, removes it otherwise. Returns "added" or "removed".
func (s *service) ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) (string, error) {
	msg, err := s.repo.GetMessageByID(messageID)
	if err != nil {
		return "", fmt.Errorf("message not found: %w", err)
	}
	if _, err := s.conversationSvc.GetForParticipant(ctx, msg.ConversationID, userID); err != nil {
		return "", err
	}

	existing, err := s.repo.GetReaction(messageID, userID, emoji)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to check reaction: %w", err)
	}

	if existing != nil {
		if err := s.repo.DeleteReaction(existing.ID); err != nil {
			return "", fmt.Errorf("failed to remove reaction: %w", err)
		}
		return "removed", nil
	}

	if err := s.repo.CreateReaction(&MessageReaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
	}); err != nil {
		return "", fmt.Errorf("failed to add reaction: %w", err)
	}
	return "added", nil
}

func (s *service) ListReactions(ctx context.Context, messageID, userID uuid.UUID) ([]*MessageReaction, error) {
	msg, err := s.repo.GetMessageByID(messageID)
	if err != nil {
		return nil, fmt.Errorf("message not found: %w", err)
	}
	if _, err := s.conversationSvc.GetForParticipant(ctx, msg.ConversationID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListReactions(messageID)
}
