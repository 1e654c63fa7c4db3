package conversation

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetByID(id uuid.UUID) (*Conversation, error)
	GetByPair(a, b uuid.UUID) (*Conversation, error)
	Create(conv *Conversation) error
	ListByUser(userID uuid.UUID) ([]*Conversation, error)
	LastMessage(conversationID uuid.UUID) (*LastMessage, error)
	UnreadCount(conversationID, userID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(id uuid.UUID) (*Conversation, error) {
	var conv Conversation
	err := r.db.Where("id = ?", id).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *repository) GetByPair(a, b uuid.UUID) (*Conversation, error) {
	u1, u2 := NormalizePair(a, b)
	var conv Conversation
	err := r.db.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *repository) Create(conv *Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	conv.User1ID, conv.User2ID = NormalizePair(conv.User1ID, conv.User2ID)
	return r.db.Create(conv).Error
}

func (r *repository) ListByUser(userID uuid.UUID) ([]*Conversation, error) {
	var convs []*Conversation
	err := r.db.Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&convs).Error
	return convs, err
}

// LastMessage reads from the messages table directly; the message
// package owns the model, the preview only needs these columns.
func (r *repository) LastMessage(conversationID uuid.UUID) (*LastMessage, error) {
	var last LastMessage
	err := r.db.Table("messages").
		Select("id, sender_id, content, created_at").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return nil, err
	}
	if last.ID == uuid.Nil {
		return nil, errors.New("conversation has no messages")
	}
	return &last, nil
}

func (r *repository) UnreadCount(conversationID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Table("messages").
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, userID).
		Count(&count).Error
	return count, err
}
