package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a two-party thread. The pair is normalized so the
// lexically smaller user id always lands in User1ID; (A,B) and (B,A)
// resolve to the same row.
type Conversation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	User1ID   uuid.UUID `json:"user1_id" gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair"`
	User2ID   uuid.UUID `json:"user2_id" gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// OtherParticipant returns the peer of userID, or uuid.Nil when
// userID is not a member.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	switch userID {
	case c.User1ID:
		return c.User2ID
	case c.User2ID:
		return c.User1ID
	}
	return uuid.Nil
}

// NormalizePair orders two user ids so the pair has one canonical form.
func NormalizePair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

type GetOrCreateRequest struct {
	OtherUserID uuid.UUID `json:"other_user_id" binding:"required"`
}

// LastMessage is the preview attached to conversation listings.
type LastMessage struct {
	ID        uuid.UUID `json:"id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type PeerProfile struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Age         int       `json:"age"`
	Vibe        *string   `json:"vibe,omitempty"`
	CountryCode *string   `json:"country_code,omitempty"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

type Summary struct {
	Conversation *Conversation `json:"conversation"`
	OtherUser    *PeerProfile  `json:"other_user"`
	LastMessage  *LastMessage  `json:"last_message,omitempty"`
	UnreadCount  int64         `json:"unread_count"`
}
