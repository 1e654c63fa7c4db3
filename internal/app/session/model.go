package session

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionKey string    `gorm:"uniqueIndex;not null"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	UserAgent  *string   `gorm:"type:text"`
	StartedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	EndedAt    *time.Time
	LastSeenAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}
