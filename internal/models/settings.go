package models

import (
	"strings"
	"time"

	"github.com/renningen-dev/bobbervox/pkg/dubbing"
)

// UserSettings holds per-user pipeline configuration.
type UserSettings struct {
	UserID string `gorm:"primaryKey;size:128" json:"user_id"`

	OpenAIAPIKey string `gorm:"type:text" json:"-"`

	// User-editable context injected into the analysis system prompt.
	ContextDescription string `gorm:"type:text" json:"context_description"`

	// "openai" or "chatterbox".
	TTSProvider string `gorm:"size:32;default:openai" json:"tts_provider"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserSettings returns defaults for a user seen for the first time.
func NewUserSettings(userID string) UserSettings {
	return UserSettings{
		UserID:             userID,
		ContextDescription: dubbing.DefaultContext,
		TTSProvider:        string(dubbing.ProviderOpenAI),
	}
}

// MaskedAPIKey hides the key except for its last four characters. Keys
// shorter than eight characters are not echoed at all.
func (s UserSettings) MaskedAPIKey() string {
	key := s.OpenAIAPIKey
	if len(key) < 8 {
		return ""
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
