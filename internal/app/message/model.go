package message

import (
	"time"

	"github.com/google/uuid"
)

// MaxContentLength bounds message content in runes.
const MaxContentLength = 5000

type Message struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID   uuid.UUID  `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID         uuid.UUID  `json:"sender_id" gorm:"type:uuid;not null"`
	Content          string     `json:"content" gorm:"type:text;not null"`
	ReplyToMessageID *uuid.UUID `json:"reply_to_message_id,omitempty" gorm:"type:uuid"`
	// ClientID is the sender-minted idempotency key. It is echoed in
	// the create response and in every change-feed payload so the
	// sender's client can match its optimistic entry exactly.
	ClientID  *uuid.UUID `json:"client_id,omitempty" gorm:"type:uuid;index"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

type MessageReaction struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	MessageID uuid.UUID `json:"message_id" gorm:"type:uuid;not null;uniqueIndex:idx_message_reactions_key"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_message_reactions_key"`
	Emoji     string    `json:"emoji" gorm:"not null;uniqueIndex:idx_message_reactions_key"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

type SendMessageRequest struct {
	ConversationID   uuid.UUID  `json:"conversation_id" binding:"required"`
	Content          string     `json:"content" binding:"required"`
	ReplyToMessageID *uuid.UUID `json:"reply_to_message_id,omitempty"`
	ClientID         *uuid.UUID `json:"client_id,omitempty"`
}

type MarkReadRequest struct {
	ConversationID uuid.UUID `json:"conversation_id" binding:"required"`
}

type ToggleReactionRequest struct {
	Emoji string `json:"emoji" binding:"required,max=16"`
}

// MessageEvent is the change-feed payload for a single message row.
type MessageEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Message        *Message  `json:"message"`
}

// ReadEvent reports a bulk mark-read; one event covers every message
// the reader just consumed.
type ReadEvent struct {
	ConversationID uuid.UUID   `json:"conversation_id"`
	ReaderID       uuid.UUID   `json:"reader_id"`
	MessageIDs     []uuid.UUID `json:"message_ids"`
	ReadAt         time.Time   `json:"read_at"`
}
