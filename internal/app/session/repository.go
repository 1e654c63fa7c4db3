package session

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateSession(session *Session) error
	GetSessionByKey(sessionKey string) (*Session, error)
	TouchSession(sessionID uuid.UUID) error
	UpdateSessionEndedAt(sessionID uuid.UUID) error
	CloseIdleSessions(idleSince time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateSession(session *Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return r.db.Create(session).Error
}

func (r *repository) GetSessionByKey(sessionKey string) (*Session, error) {
	var session Session
	err := r.db.Where("session_key = ? AND ended_at IS NULL", sessionKey).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) TouchSession(sessionID uuid.UUID) error {
	return r.db.Model(&Session{}).
		Where("id = ?", sessionID).
		Update("last_seen_at", time.Now().UTC()).Error
}

func (r *repository) UpdateSessionEndedAt(sessionID uuid.UUID) error {
	return r.db.Model(&Session{}).
		Where("id = ?", sessionID).
		Update("ended_at", time.Now().UTC()).Error
}

func (r *repository) CloseIdleSessions(idleSince time.Time) (int64, error) {
	result := r.db.Model(&Session{}).
		Where("ended_at IS NULL AND last_seen_at < ?", idleSince).
		Update("ended_at", time.Now().UTC())
	return result.RowsAffected, result.Error
}
