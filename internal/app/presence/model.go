package presence

import (
	"time"

	"github.com/google/uuid"
)

// OnlineUser is the lobby card broadcast while a user is connected.
type OnlineUser struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Age         int       `json:"age"`
	Vibe        *string   `json:"vibe,omitempty"`
	CountryCode *string   `json:"country_code,omitempty"`
	StatusLine  *string   `json:"status_line,omitempty"`
	OnlineAt    time.Time `json:"online_at"`
}
