package message

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateMessage(msg *Message) error
	GetMessageByID(id uuid.UUID) (*Message, error)
	GetMessagesByConversationID(conversationID uuid.UUID, page, limit int) ([]*Message, int64, error)
	MarkRead(conversationID, readerID uuid.UUID, readAt time.Time) ([]uuid.UUID, error)

	GetReaction(messageID, userID uuid.UUID, emoji string) (*MessageReaction, error)
	CreateReaction(reaction *MessageReaction) error
	DeleteReaction(id uuid.UUID) error
	ListReactions(messageID uuid.UUID) ([]*MessageReaction, error)

	TouchConversation(conversationID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateMessage(msg *Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return r.db.Create(msg).Error
}

func (r *repository) GetMessageByID(id uuid.UUID) (*Message, error) {
	var msg Message
	err := r.db.Where("id = ?", id).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessagesByConversationID returns pages of the conversation in
// ascending creation order, the order the view renders them in.
func (r *repository) GetMessagesByConversationID(conversationID uuid.UUID, page, limit int) ([]*Message, int64, error) {
	var messages []*Message
	var total int64
	offset := (page - 1) * limit

	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	err = r.db.Model(&Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// MarkRead stamps every unread message not sent by the reader and
// returns the ids it touched. Running it again is a no-op.
func (r *repository) MarkRead(conversationID, readerID uuid.UUID, readAt time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Raw(`
		UPDATE messages SET read_at = ?
		WHERE conversation_id = ? AND sender_id <> ? AND read_at IS NULL
		RETURNING id
	`, readAt, conversationID, readerID).Scan(&ids).Error
	return ids, err
}

func (r *repository) GetReaction(messageID, userID uuid.UUID, emoji string) (*MessageReaction, error) {
	var reaction MessageReaction
	err := r.db.Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *repository) CreateReaction(reaction *MessageReaction) error {
	if reaction.ID == uuid.Nil {
		reaction.ID = uuid.New()
	}
	return r.db.Create(reaction).Error
}

func (r *repository) DeleteReaction(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&MessageReaction{}).Error
}

func (r *repository) ListReactions(messageID uuid.UUID) ([]*MessageReaction, error) {
	var reactions []*MessageReaction
	err := r.db.Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&reactions).Error
	return reactions, err
}

func (r *repository) TouchConversation(conversationID uuid.UUID) error {
	return r.db.Table("conversations").
		Where("id = ?", conversationID).
		Update("updated_at", time.Now().UTC()).Error
}
