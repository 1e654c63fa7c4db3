package spark

import (
	"time"

	"github.com/google/uuid"
)

// SparkEmojis is the closed set of profile reactions.
var SparkEmojis = []string{"👋", "❤️", "😏", "🔥"}

func ValidEmoji(emoji string) bool {
	for _, e := range SparkEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

type ProfileReaction struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ReactorID uuid.UUID `json:"reactor_id" gorm:"type:uuid;not null;uniqueIndex:idx_reactions_pair"`
	TargetID  uuid.UUID `json:"target_id" gorm:"type:uuid;not null;uniqueIndex:idx_reactions_pair"`
	Emoji     string    `json:"emoji" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProfileReaction) TableName() string {
	return "profile_reactions"
}

// ReactionQuota counts new sparks per user per calendar day.
type ReactionQuota struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quota_user_date"`
	Date      string    `gorm:"type:date;not null;uniqueIndex:idx_quota_user_date"`
	Count     int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ReactionQuota) TableName() string {
	return "reaction_quota"
}

type SendSparkRequest struct {
	TargetUserID uuid.UUID `json:"target_user_id" binding:"required"`
	Emoji        string    `json:"emoji" binding:"required"`
}

type DeleteSparkRequest struct {
	TargetUserID uuid.UUID `json:"target_user_id" binding:"required"`
}

type SendSparkResult struct {
	Reaction      *ProfileReaction `json:"reaction"`
	MutualSpark   bool             `json:"mutual_spark"`
	IsUpdate      bool             `json:"is_update"`
	PreviousEmoji *string          `json:"previous_emoji,omitempty"`
}

type QuotaStatus struct {
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	IsPremium bool `json:"is_premium"`
}

// SparkProfile is the trimmed profile card attached to spark listings.
type SparkProfile struct {
	ID              uuid.UUID `json:"id"`
	DisplayName     string    `json:"display_name"`
	Age             int       `json:"age"`
	Vibe            *string   `json:"vibe,omitempty"`
	Interests       []string  `json:"interests"`
	StatusLine      *string   `json:"status_line,omitempty"`
	CountryCode     *string   `json:"country_code,omitempty"`
	ShowCountryFlag bool      `json:"show_country_flag"`
	PremiumTier     string    `json:"premium_tier"`
}

type SparkListItem struct {
	Reaction *ProfileReaction `json:"reaction"`
	Profile  *SparkProfile    `json:"profile"`
	IsMutual bool             `json:"is_mutual"`
}

// SparkEvent is published on the event bus when a spark lands.
type SparkEvent struct {
	ReactorID uuid.UUID `json:"reactor_id"`
	TargetID  uuid.UUID `json:"target_id"`
	Emoji     string    `json:"emoji"`
	Mutual    bool      `json:"mutual"`
	Timestamp int64     `json:"timestamp"`
}
