package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/renningen-dev/bobbervox/internal/models"
	"github.com/renningen-dev/bobbervox/pkg/dubbing"
	"github.com/renningen-dev/bobbervox/pkg/errors"
	"github.com/renningen-dev/bobbervox/pkg/files"
	"github.com/renningen-dev/bobbervox/pkg/media"
)

type fakeAnalyzer struct {
	result map[string]interface{}
	err    error
}

func (f *fakeAnalyzer) AnalyzeAudio(ctx context.Context, audioPath, systemPrompt string) (map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSynthesizer struct {
	err  error
	last dubbing.SynthesisInput
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, in dubbing.SynthesisInput) error {
	f.last = in
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(in.OutputPath, []byte("audio"), 0o644)
}

type env struct {
	db       *gorm.DB
	layout   *files.Layout
	projects *ProjectService
	segments *SegmentService
	settings *SettingsService
	voices   *CustomVoiceService

	analyzer   *fakeAnalyzer
	openaiTTS  *fakeSynthesizer
	chatterbox *fakeSynthesizer
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Project{}, &models.Segment{},
		&models.UserSettings{}, &models.CustomVoice{},
	))

	layout := files.NewLayout(filepath.Join(dir, "projects"), []string{".mp4", ".mov"})
	adapter := media.New("", "")

	analyzer := &fakeAnalyzer{result: map[string]interface{}{
		"transcription":   "the fish is biting",
		"translated_text": "der Fisch beisst",
		"tone":            "calm",
	}}
	openaiTTS := &fakeSynthesizer{}
	chatterbox := &fakeSynthesizer{}

	settings := NewSettingsService(db, nil, nil)
	voices := NewCustomVoiceService(db, filepath.Join(dir, "voices"))
	segments := NewSegmentService(
		db, layout, adapter, nil, nil,
		settings, voices,
		func(string) dubbing.Analyzer { return analyzer },
		func(string) dubbing.Synthesizer { return openaiTTS },
		chatterbox,
		"sk-fallback",
	)

	return &env{
		db:         db,
		layout:     layout,
		projects:   NewProjectService(db, layout, adapter, nil),
		segments:   segments,
		settings:   settings,
		voices:     voices,
		analyzer:   analyzer,
		openaiTTS:  openaiTTS,
		chatterbox: chatterbox,
	}
}

func (e *env) createProject(t *testing.T, userID string) *models.Project {
	t.Helper()
	project, err := e.projects.Create(context.Background(), userID, ProjectInput{Name: "fishing trip"})
	require.NoError(t, err)
	return project
}

func (e *env) createSegment(t *testing.T, userID string, projectID uint, start, end float64) *models.Segment {
	t.Helper()
	segment, err := e.segments.Create(context.Background(), userID, projectID, SegmentInput{StartTime: start, EndTime: end})
	require.NoError(t, err)
	return segment
}

// markExtracted fakes a completed extraction so analyze/tts tests do not
// need ffmpeg.
func (e *env) markExtracted(t *testing.T, segment *models.Segment, projectID uint) {
	t.Helper()
	dir := e.layout.SegmentsDir(projectKey(projectID))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	abs := filepath.Join(dir, media.SegmentFilename(segment.StartTime))
	require.NoError(t, os.WriteFile(abs, []byte("RIFF"), 0o644))

	rel, err := e.layout.Rel(abs)
	require.NoError(t, err)
	segment.AudioFile = rel
	segment.Status = models.StatusExtracted
	require.NoError(t, e.db.Save(segment).Error)
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, errors.GetCode(err))
}
