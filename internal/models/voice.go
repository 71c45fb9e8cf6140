package models

import "time"

// CustomVoice is a user-uploaded reference recording used for ChatterBox
// voice cloning.
type CustomVoice struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"size:128;index;not null" json:"user_id"`
	Name   string `gorm:"size:255;not null" json:"name"`

	// Relative to the voices directory.
	FilePath string `gorm:"size:500;not null" json:"file_path"`

	Description string `gorm:"size:1000" json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
