package models

import "time"

// SegmentStatus tracks a segment through the dubbing pipeline.
type SegmentStatus string

const (
	StatusCreated       SegmentStatus = "created"
	StatusExtracting    SegmentStatus = "extracting"
	StatusExtracted     SegmentStatus = "extracted"
	StatusAnalyzing     SegmentStatus = "analyzing"
	StatusAnalyzed      SegmentStatus = "analyzed"
	StatusGeneratingTTS SegmentStatus = "generating_tts"
	StatusCompleted     SegmentStatus = "completed"
	StatusError         SegmentStatus = "error"
)

// Segment is a timed slice of a project's video that moves through the
// extract, analyze and generate-tts stages.
type Segment struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProjectID uint `gorm:"index;not null" json:"project_id"`

	// Seconds from the start of the source video.
	StartTime float64 `gorm:"not null" json:"start_time"`
	EndTime   float64 `gorm:"not null" json:"end_time"`

	// Paths relative to the project directory.
	AudioFile     string `gorm:"size:500" json:"audio_file"`
	TTSResultFile string `gorm:"size:500" json:"tts_result_file"`

	OriginalTranscription string `gorm:"type:text" json:"original_transcription"`
	TranslatedText        string `gorm:"type:text" json:"translated_text"`

	// Full analysis response; merged shallowly on PUT.
	Analysis map[string]interface{} `gorm:"serializer:json" json:"analysis"`

	TTSVoice string `gorm:"size:255" json:"tts_voice"`

	Status       SegmentStatus `gorm:"size:32;default:created" json:"status"`
	ErrorMessage string        `gorm:"type:text" json:"error_message"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
