package profile

import (
	"time"

	"github.com/google/uuid"
)

type Vibe string

const (
	VibeSoft    Vibe = "soft"
	VibeFlirty  Vibe = "flirty"
	VibeSpicy   Vibe = "spicy"
	VibeIntense Vibe = "intense"
)

func (v Vibe) Valid() bool {
	switch v {
	case VibeSoft, VibeFlirty, VibeSpicy, VibeIntense:
		return true
	}
	return false
}

const (
	TierFree    = "free"
	TierPremium = "premium"
)

// InterestTags is the closed set users pick from during onboarding.
var InterestTags = []string{
	"Vanilla",
	"Kink-friendly",
	"Roleplay",
	"Power exchange",
	"Emotional support",
	"Confessions",
	"Story-driven",
	"Playful teasing",
}

const MaxInterests = 3

type User struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username        string    `json:"username" gorm:"uniqueIndex;not null"`
	DisplayName     string    `json:"display_name" gorm:"not null"`
	Age             int       `json:"age" gorm:"not null"`
	IsGuest         bool      `json:"is_guest" gorm:"not null;default:true"`
	CountryCode     *string   `json:"country_code,omitempty"`
	ShowCountryFlag bool      `json:"show_country_flag" gorm:"not null;default:true"`
	Vibe            *Vibe     `json:"vibe,omitempty" gorm:"type:text"`
	Interests       []string  `json:"interests" gorm:"serializer:json;type:jsonb"`
	StatusLine      *string   `json:"status_line,omitempty"`
	PremiumTier     string    `json:"premium_tier" gorm:"not null;default:'free'"`
	LastSeenAt      time.Time `json:"last_seen_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	CreatedAt       time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (u *User) IsPremium() bool {
	return u.PremiumTier == TierPremium
}

type GuestSignupRequest struct {
	DisplayName   string   `json:"display_name" binding:"required,min=3,max=20"`
	Age           int      `json:"age" binding:"required,min=18,max=100"`
	Vibe          Vibe     `json:"vibe" binding:"required"`
	Interests     []string `json:"interests" binding:"max=3"`
	StatusLine    *string  `json:"status_line,omitempty" binding:"omitempty,max=100"`
	AgeConfirmed  bool     `json:"age_confirmed" binding:"required"`
	TermsAccepted bool     `json:"terms_accepted" binding:"required"`
}

type UpdateDisplayNameRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=3,max=20"`
}

type UpdateCountryRequest struct {
	CountryCode string `json:"country_code" binding:"required,len=2"`
}

type UpdateFlagVisibilityRequest struct {
	ShowCountryFlag *bool `json:"show_country_flag" binding:"required"`
}

type SignupResponse struct {
	User       *User  `json:"user"`
	SessionKey string `json:"session_key"`
}
