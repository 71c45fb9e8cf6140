package models

import "time"

// Project is one dubbing job: an uploaded source video plus the segments
// cut from it.
type Project struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"size:128;index" json:"user_id"`
	Name   string `gorm:"size:255;not null" json:"name"`

	// BCP 47 language codes, e.g. "en", "de".
	SourceLanguage string `gorm:"size:16" json:"source_language"`
	TargetLanguage string `gorm:"size:16" json:"target_language"`

	// Paths relative to the project directory.
	SourceVideo    string `gorm:"size:500" json:"source_video"`
	ExtractedAudio string `gorm:"size:500" json:"extracted_audio"`

	Segments []Segment `gorm:"constraint:OnDelete:CASCADE" json:"segments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
