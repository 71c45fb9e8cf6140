package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/renningen-dev/bobbervox/internal/models"
	"github.com/renningen-dev/bobbervox/pkg/dubbing"
	"github.com/renningen-dev/bobbervox/pkg/errors"
	"github.com/renningen-dev/bobbervox/pkg/files"
	"github.com/renningen-dev/bobbervox/pkg/logger"
	"github.com/renningen-dev/bobbervox/pkg/media"
	"github.com/renningen-dev/bobbervox/pkg/metrics"
	"github.com/renningen-dev/bobbervox/pkg/search"
)

// AnalyzerFactory builds an analyzer bound to a user's API key.
type AnalyzerFactory func(apiKey string) dubbing.Analyzer

// SynthesizerFactory builds the OpenAI TTS backend bound to a user's API
// key.
type SynthesizerFactory func(apiKey string) dubbing.Synthesizer

type SegmentService struct {
	db     *gorm.DB
	layout *files.Layout
	media  *media.Adapter
	index  *search.Index    // nil when search is disabled
	stats  *metrics.Metrics // nil in tests

	settings *SettingsService
	voices   *CustomVoiceService

	newAnalyzer    AnalyzerFactory
	newSynthesizer SynthesizerFactory
	chatterbox     dubbing.Synthesizer

	// Server-wide fallback when the user has not stored a key.
	fallbackAPIKey string
}

func NewSegmentService(
	db *gorm.DB,
	layout *files.Layout,
	adapter *media.Adapter,
	index *search.Index,
	stats *metrics.Metrics,
	settings *SettingsService,
	voices *CustomVoiceService,
	newAnalyzer AnalyzerFactory,
	newSynthesizer SynthesizerFactory,
	chatterbox dubbing.Synthesizer,
	fallbackAPIKey string,
) *SegmentService {
	return &SegmentService{
		db:             db,
		layout:         layout,
		media:          adapter,
		index:          index,
		stats:          stats,
		settings:       settings,
		voices:         voices,
		newAnalyzer:    newAnalyzer,
		newSynthesizer: newSynthesizer,
		chatterbox:     chatterbox,
		fallbackAPIKey: fallbackAPIKey,
	}
}

// SegmentInput is the creation payload.
type SegmentInput struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// TTSInput mirrors the generate-tts request body: the voice, the delivery
// directives and the ChatterBox generation parameters.
type TTSInput struct {
	Voice          string   `json:"voice"`
	TargetLanguage string   `json:"target_language"`
	Tone           string   `json:"tone"`
	Emotion        string   `json:"emotion"`
	Style          string   `json:"style"`
	Pace           string   `json:"pace"`
	Intonation     string   `json:"intonation"`
	Tempo          string   `json:"tempo"`
	Emphasis       []string `json:"emphasis"`
	PauseBefore    []string `json:"pause_before"`

	Speed        float64  `json:"speed"`
	Temperature  *float64 `json:"temperature"`
	Exaggeration *float64 `json:"exaggeration"`
	CFGWeight    *float64 `json:"cfg_weight"`
}

func (in TTSInput) directives() dubbing.StyleDirectives {
	return dubbing.StyleDirectives{
		TargetLanguage: in.TargetLanguage,
		Tone:           in.Tone,
		Emotion:        in.Emotion,
		Style:          in.Style,
		Pace:           in.Pace,
		Intonation:     in.Intonation,
		Tempo:          in.Tempo,
		Emphasis:       in.Emphasis,
		PauseBefore:    in.PauseBefore,
	}
}

// Create validates the time range and stores a segment in status created.
func (s *SegmentService) Create(ctx context.Context, userID string, projectID uint, in SegmentInput) (*models.Segment, error) {
	if in.StartTime < 0 {
		return nil, errors.WithCodef(errors.CodeUnprocessed, "start_time cannot be negative")
	}
	if in.EndTime <= in.StartTime {
		return nil, errors.WithCodef(errors.CodeUnprocessed, "end_time must be greater than start_time")
	}

	project, err := s.projectOf(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	segment := models.Segment{
		ProjectID: project.ID,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    models.StatusCreated,
	}
	if err := s.db.WithContext(ctx).Create(&segment).Error; err != nil {
		return nil, errors.Wrap(err, "create segment")
	}
	return &segment, nil
}

// Get returns a segment the user owns via its project.
func (s *SegmentService) Get(ctx context.Context, userID string, id uint) (*models.Segment, *models.Project, error) {
	var segment models.Segment
	err := s.db.WithContext(ctx).First(&segment, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil, errors.NotFoundf("segment not found: %d", id)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "load segment")
	}

	project, err := s.projectOf(ctx, userID, segment.ProjectID)
	if err != nil {
		// Owned by someone else: report the segment as missing.
		if errors.IsNotFound(err) {
			return nil, nil, errors.NotFoundf("segment not found: %d", id)
		}
		return nil, nil, err
	}
	return &segment, project, nil
}

// ListByProject returns a project's segments ordered by start time.
func (s *SegmentService) ListByProject(ctx context.Context, userID string, projectID uint) ([]models.Segment, error) {
	if _, err := s.projectOf(ctx, userID, projectID); err != nil {
		return nil, err
	}
	var segments []models.Segment
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("start_time ASC").
		Find(&segments).Error; err != nil {
		return nil, errors.Wrap(err, "list segments")
	}
	return segments, nil
}

// Delete removes the segment row, its files and its search document.
func (s *SegmentService) Delete(ctx context.Context, userID string, id uint) error {
	segment, _, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if segment.AudioFile != "" {
		os.Remove(s.layout.Abs(segment.AudioFile))
	}
	if segment.TTSResultFile != "" {
		os.Remove(s.layout.Abs(segment.TTSResultFile))
	}
	if err := s.db.WithContext(ctx).Delete(segment).Error; err != nil {
		return errors.Wrap(err, "delete segment")
	}

	if s.index != nil {
		if err := s.index.DeleteSegment(ctx, segment.ID); err != nil {
			logger.Warn("failed to remove segment from search index",
				zap.Uint("segment_id", segment.ID), zap.Error(err))
		}
	}
	return nil
}

// Extract cuts the segment's time range out of the project audio.
func (s *SegmentService) Extract(ctx context.Context, userID string, id uint) (*models.Segment, error) {
	segment, project, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if project.ExtractedAudio == "" {
		return nil, errors.Processingf("project has no extracted audio")
	}

	audioPath := s.layout.Abs(project.ExtractedAudio)
	outputPath := filepath.Join(
		s.layout.SegmentsDir(projectKey(project.ID)),
		media.SegmentFilename(segment.StartTime),
	)

	if err := s.setStatus(ctx, segment, models.StatusExtracting); err != nil {
		return nil, err
	}

	start := time.Now()
	err = s.media.ExtractSegment(ctx, audioPath, outputPath, segment.StartTime, segment.EndTime)
	s.recordOperation("extract", err, start)
	if err != nil {
		return nil, s.persistError(ctx, segment, err)
	}

	rel, err := s.layout.Rel(outputPath)
	if err != nil {
		return nil, errors.Wrap(err, "relativize segment path")
	}
	segment.AudioFile = rel
	segment.Status = models.StatusExtracted
	if err := s.db.WithContext(ctx).Save(segment).Error; err != nil {
		return nil, errors.Wrap(err, "store segment audio path")
	}
	return segment, nil
}

// Analyze sends the segment audio to the analysis model and stores the
// transcription, translation and delivery analysis.
func (s *SegmentService) Analyze(ctx context.Context, userID string, id uint) (*models.Segment, error) {
	segment, project, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if segment.AudioFile == "" {
		return nil, errors.Processingf("segment has no audio file, extract audio first")
	}

	apiKey, err := s.resolveAPIKey(ctx, userID)
	if err != nil {
		return nil, err
	}
	userSettings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	prompt := dubbing.BuildSystemPrompt(
		userSettings.ContextDescription,
		languageName(project.SourceLanguage),
		languageName(project.TargetLanguage),
	)

	if err := s.setStatus(ctx, segment, models.StatusAnalyzing); err != nil {
		return nil, err
	}

	start := time.Now()
	analysis, err := s.newAnalyzer(apiKey).AnalyzeAudio(ctx, s.layout.Abs(segment.AudioFile), prompt)
	s.recordOperation("analyze", err, start)
	s.recordExternal("openai", err)
	if err != nil {
		return nil, s.persistError(ctx, segment, err)
	}

	segment.Analysis = analysis
	segment.OriginalTranscription = stringField(analysis, "transcription")
	segment.TranslatedText = stringField(analysis, "translated_text")
	segment.Status = models.StatusAnalyzed
	if err := s.db.WithContext(ctx).Save(segment).Error; err != nil {
		return nil, errors.Wrap(err, "store analysis")
	}

	s.reindex(ctx, segment, project)
	return segment, nil
}

// UpdateTranslation replaces the translated text.
func (s *SegmentService) UpdateTranslation(ctx context.Context, userID string, id uint, translatedText string) (*models.Segment, error) {
	segment, project, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	segment.TranslatedText = translatedText
	if err := s.db.WithContext(ctx).Save(segment).Error; err != nil {
		return nil, errors.Wrap(err, "update translation")
	}
	s.reindex(ctx, segment, project)
	return segment, nil
}

// UpdateAnalysis merges the given keys into the stored analysis and
// refreshes the derived transcription field.
func (s *SegmentService) UpdateAnalysis(ctx context.Context, userID string, id uint, updates map[string]interface{}) (*models.Segment, error) {
	segment, project, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]interface{}, len(segment.Analysis)+len(updates))
	for k, v := range segment.Analysis {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	segment.Analysis = merged
	if t := stringField(merged, "transcription"); t != "" {
		segment.OriginalTranscription = t
	}
	if err := s.db.WithContext(ctx).Save(segment).Error; err != nil {
		return nil, errors.Wrap(err, "update analysis")
	}
	s.reindex(ctx, segment, project)
	return segment, nil
}

// GenerateTTS synthesizes the translated text with the provider from the
// user's settings and stores the result under output/.
func (s *SegmentService) GenerateTTS(ctx context.Context, userID string, id uint, in TTSInput) (*models.Segment, error) {
	segment, project, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(segment.TranslatedText) == "" {
		return nil, errors.Processingf("segment has no translated text, analyze or add translation first")
	}

	userSettings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	provider := dubbing.Provider(userSettings.TTSProvider)

	voice := in.Voice
	if voice == "" {
		if provider == dubbing.ProviderChatterBox {
			voice = "Emily.wav"
		} else {
			voice = "alloy"
		}
	}
	if !dubbing.ValidVoice(voice) {
		return nil, errors.Validationf("invalid voice %q", voice)
	}

	input := dubbing.SynthesisInput{
		Text:         segment.TranslatedText,
		Voice:        voice,
		Instructions: in.directives().BuildInstructions(),
		Speed:        in.Speed,
		Temperature:  in.Temperature,
		Exaggeration: in.Exaggeration,
		CFGWeight:    in.CFGWeight,
	}

	var synth dubbing.Synthesizer
	switch provider {
	case dubbing.ProviderChatterBox:
		if strings.HasPrefix(voice, dubbing.CustomVoicePrefix) {
			path, err := s.voices.ResolveVoiceRef(ctx, userID, voice)
			if err != nil {
				return nil, err
			}
			input.CustomVoicePath = path
		}
		synth = s.chatterbox
	default:
		if strings.HasPrefix(voice, dubbing.CustomVoicePrefix) {
			return nil, errors.Validationf("custom voices require the chatterbox provider")
		}
		apiKey, err := s.resolveAPIKey(ctx, userID)
		if err != nil {
			return nil, err
		}
		synth = s.newSynthesizer(apiKey)
	}

	input.OutputPath = filepath.Join(
		s.layout.OutputDir(projectKey(project.ID)),
		media.TTSFilename(segment.StartTime, provider.DefaultExtension()),
	)

	segment.Status = models.StatusGeneratingTTS
	segment.TTSVoice = voice
	if err := s.db.WithContext(ctx).Save(segment).Error; err != nil {
		return nil, errors.Wrap(err, "update segment status")
	}

	start := time.Now()
	err = synth.Synthesize(ctx, input)
	s.recordOperation("generate_tts", err, start)
	s.recordExternal(string(provider), err)
	if err != nil {
		return nil, s.persistError(ctx, segment, err)
	}

	rel, err := s.layout.Rel(input.OutputPath)
	if err != nil {
		return nil, errors.Wrap(err, "relativize tts path")
	}
	segment.TTSResultFile = rel
	segment.Status = models.StatusCompleted
	if err := s.db.WithContext(ctx).Save(segment).Error; err != nil {
		return nil, errors.Wrap(err, "store tts result")
	}
	return segment, nil
}

// Search runs a full-text query over the user's indexed segments.
func (s *SegmentService) Search(ctx context.Context, userID, query string, projectID uint, limit int) ([]search.Hit, error) {
	if s.index == nil {
		return nil, errors.Processingf("search is not enabled")
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.Validationf("query must not be empty")
	}
	if projectID > 0 {
		if _, err := s.projectOf(ctx, userID, projectID); err != nil {
			return nil, err
		}
	}
	return s.index.Query(ctx, userID, query, projectID, limit)
}

func (s *SegmentService) projectOf(ctx context.Context, userID string, projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", projectID, userID).
		First(&project).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("project not found: %d", projectID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load project")
	}
	return &project, nil
}

func (s *SegmentService) setStatus(ctx context.Context, segment *models.Segment, status models.SegmentStatus) error {
	segment.Status = status
	if err := s.db.WithContext(ctx).Save(segment).Error; err != nil {
		return errors.Wrap(err, "update segment status")
	}
	return nil
}

// persistError stores the failure on the row so it survives the failed
// request, then passes the original error through.
func (s *SegmentService) persistError(ctx context.Context, segment *models.Segment, cause error) error {
	segment.Status = models.StatusError
	segment.ErrorMessage = cause.Error()
	if err := s.db.WithContext(ctx).Save(segment).Error; err != nil {
		logger.Error("failed to persist segment error",
			zap.Uint("segment_id", segment.ID), zap.Error(err))
	}
	return cause
}

func (s *SegmentService) resolveAPIKey(ctx context.Context, userID string) (string, error) {
	userSettings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if userSettings.OpenAIAPIKey != "" {
		return userSettings.OpenAIAPIKey, nil
	}
	if s.fallbackAPIKey != "" {
		return s.fallbackAPIKey, nil
	}
	return "", errors.Processingf("OpenAI API key not configured")
}

func (s *SegmentService) reindex(ctx context.Context, segment *models.Segment, project *models.Project) {
	if s.index == nil {
		return
	}
	err := s.index.IndexSegment(ctx, search.SegmentDoc{
		SegmentID:      segment.ID,
		ProjectID:      project.ID,
		UserID:         project.UserID,
		Transcription:  segment.OriginalTranscription,
		TranslatedText: segment.TranslatedText,
		StartTime:      segment.StartTime,
		EndTime:        segment.EndTime,
	})
	if err != nil {
		logger.Warn("failed to index segment",
			zap.Uint("segment_id", segment.ID), zap.Error(err))
	}
}

func (s *SegmentService) recordOperation(op string, err error, start time.Time) {
	if s.stats != nil {
		s.stats.RecordPipelineOperation(op, err, time.Since(start).Seconds())
	}
}

func (s *SegmentService) recordExternal(service string, err error) {
	if s.stats != nil {
		s.stats.RecordExternalCall(service, err)
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
