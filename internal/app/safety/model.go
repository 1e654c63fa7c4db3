package safety

import (
	"time"

	"github.com/google/uuid"
)

type Block struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	BlockerID uuid.UUID `json:"blocker_id" gorm:"type:uuid;not null;uniqueIndex:idx_blocks_pair"`
	BlockedID uuid.UUID `json:"blocked_id" gorm:"type:uuid;not null;uniqueIndex:idx_blocks_pair"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonUnderage      ReportReason = "underage"
	ReasonHarassment    ReportReason = "harassment"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonOther         ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonSpam, ReasonUnderage, ReasonHarassment, ReasonInappropriate, ReasonOther:
		return true
	}
	return false
}

type Report struct {
	ID         uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	ReporterID uuid.UUID    `json:"reporter_id" gorm:"type:uuid;not null;index"`
	ReportedID uuid.UUID    `json:"reported_id" gorm:"type:uuid;not null;index"`
	Reason     ReportReason `json:"reason" gorm:"type:text;not null"`
	Details    *string      `json:"details,omitempty"`
	Status     string       `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

type BlockRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type ReportRequest struct {
	ReportedID uuid.UUID    `json:"reported_id" binding:"required"`
	Reason     ReportReason `json:"reason" binding:"required"`
	Details    *string      `json:"details,omitempty" binding:"omitempty,max=1000"`
}
