package service

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renningen-dev/bobbervox/internal/models"
	"github.com/renningen-dev/bobbervox/pkg/errors"
	"github.com/renningen-dev/bobbervox/pkg/search"
)

func TestCreateSegmentValidatesTimeRange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "alice")

	_, err := e.segments.Create(ctx, "alice", project.ID, SegmentInput{StartTime: 5, EndTime: 5})
	requireCode(t, err, errors.CodeUnprocessed)

	_, err = e.segments.Create(ctx, "alice", project.ID, SegmentInput{StartTime: -1, EndTime: 5})
	requireCode(t, err, errors.CodeUnprocessed)

	segment, err := e.segments.Create(ctx, "alice", project.ID, SegmentInput{StartTime: 1.5, EndTime: 4.25})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreated, segment.Status)
}

func TestListSegmentsOrderedByStartTime(t *testing.T) {
	e := newEnv(t)
	project := e.createProject(t, "alice")

	e.createSegment(t, "alice", project.ID, 30, 40)
	e.createSegment(t, "alice", project.ID, 5, 10)
	e.createSegment(t, "alice", project.ID, 15, 20)

	segments, err := e.segments.ListByProject(context.Background(), "alice", project.ID)
	require.NoError(t, err)
	require.Len(t, segments, 3)
	assert.Equal(t, []float64{5, 15, 30}, []float64{
		segments[0].StartTime, segments[1].StartTime, segments[2].StartTime,
	})
}

func TestSegmentOwnershipHidesOtherUsers(t *testing.T) {
	e := newEnv(t)
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)

	_, _, err := e.segments.Get(context.Background(), "bob", segment.ID)
	requireCode(t, err, errors.CodeNotFound)
}

func TestExtractWithoutProjectAudio(t *testing.T) {
	e := newEnv(t)
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)

	_, err := e.segments.Extract(context.Background(), "alice", segment.ID)
	requireCode(t, err, errors.CodeProcessing)

	// Precondition failure happens before any status change.
	var stored models.Segment
	require.NoError(t, e.db.First(&stored, segment.ID).Error)
	assert.Equal(t, models.StatusCreated, stored.Status)
}

func TestExtractFailurePersistsError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)

	// Point the project at an audio file that does not exist on disk.
	project.ExtractedAudio = "1/audio/full_audio.wav"
	require.NoError(t, e.db.Save(project).Error)

	_, err := e.segments.Extract(ctx, "alice", segment.ID)
	require.Error(t, err)

	var stored models.Segment
	require.NoError(t, e.db.First(&stored, segment.ID).Error)
	assert.Equal(t, models.StatusError, stored.Status)
	assert.NotEmpty(t, stored.ErrorMessage)
}

func TestAnalyzeStoresResults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)
	e.markExtracted(t, segment, project.ID)

	got, err := e.segments.Analyze(ctx, "alice", segment.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusAnalyzed, got.Status)
	assert.Equal(t, "the fish is biting", got.OriginalTranscription)
	assert.Equal(t, "der Fisch beisst", got.TranslatedText)
	assert.Equal(t, "calm", got.Analysis["tone"])
}

func TestAnalyzeRequiresAudio(t *testing.T) {
	e := newEnv(t)
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)

	_, err := e.segments.Analyze(context.Background(), "alice", segment.ID)
	requireCode(t, err, errors.CodeProcessing)
}

func TestAnalyzeFailurePersistsError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)
	e.markExtracted(t, segment, project.ID)

	e.analyzer.err = errors.ExternalAPIf("model unavailable")
	_, err := e.segments.Analyze(ctx, "alice", segment.ID)
	requireCode(t, err, errors.CodeExternalAPI)

	var stored models.Segment
	require.NoError(t, e.db.First(&stored, segment.ID).Error)
	assert.Equal(t, models.StatusError, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "model unavailable")
}

func TestUpdateAnalysisMergesDisjointKeys(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)

	_, err := e.segments.UpdateAnalysis(ctx, "alice", segment.ID, map[string]interface{}{"tone": "calm"})
	require.NoError(t, err)
	got, err := e.segments.UpdateAnalysis(ctx, "alice", segment.ID, map[string]interface{}{"emotion": "excited"})
	require.NoError(t, err)

	assert.Equal(t, "calm", got.Analysis["tone"])
	assert.Equal(t, "excited", got.Analysis["emotion"])
}

func TestUpdateAnalysisRefreshesTranscription(t *testing.T) {
	e := newEnv(t)
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)

	got, err := e.segments.UpdateAnalysis(context.Background(), "alice", segment.ID,
		map[string]interface{}{"transcription": "corrected words"})
	require.NoError(t, err)
	assert.Equal(t, "corrected words", got.OriginalTranscription)
}

func TestGenerateTTSWithoutTranslation(t *testing.T) {
	e := newEnv(t)
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)

	_, err := e.segments.GenerateTTS(context.Background(), "alice", segment.ID, TTSInput{})
	requireCode(t, err, errors.CodeProcessing)

	var stored models.Segment
	require.NoError(t, e.db.First(&stored, segment.ID).Error)
	assert.Equal(t, models.StatusCreated, stored.Status)
}

func TestGenerateTTSOpenAI(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 15.32, 20)
	segment.TranslatedText = "der Fisch beisst"
	require.NoError(t, e.db.Save(segment).Error)

	got, err := e.segments.GenerateTTS(ctx, "alice", segment.ID, TTSInput{
		Voice:          "nova",
		TargetLanguage: "German",
		Tone:           "calm",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "nova", got.TTSVoice)
	assert.Contains(t, got.TTSResultFile, "tts_00m15s320ms.mp3")
	assert.Contains(t, e.openaiTTS.last.Instructions, "Speak in German.")

	_, err = os.Stat(e.layout.Abs(got.TTSResultFile))
	assert.NoError(t, err)
}

func TestGenerateTTSChatterBoxProvider(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)
	segment.TranslatedText = "hallo"
	require.NoError(t, e.db.Save(segment).Error)

	provider := "chatterbox"
	_, err := e.settings.Update(ctx, "alice", SettingsUpdate{TTSProvider: &provider})
	require.NoError(t, err)

	got, err := e.segments.GenerateTTS(ctx, "alice", segment.ID, TTSInput{Voice: "Emily.wav"})
	require.NoError(t, err)

	assert.Contains(t, got.TTSResultFile, ".wav")
	assert.Equal(t, "hallo", e.chatterbox.last.Text)
	assert.Empty(t, e.openaiTTS.last.Text)
}

func TestGenerateTTSInvalidVoice(t *testing.T) {
	e := newEnv(t)
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)
	segment.TranslatedText = "text"
	require.NoError(t, e.db.Save(segment).Error)

	_, err := e.segments.GenerateTTS(context.Background(), "alice", segment.ID, TTSInput{Voice: "robotron"})
	requireCode(t, err, errors.CodeValidation)
}

func TestGenerateTTSFailurePersistsError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)
	segment.TranslatedText = "text"
	require.NoError(t, e.db.Save(segment).Error)

	e.openaiTTS.err = errors.ExternalAPIf("tts backend down")
	_, err := e.segments.GenerateTTS(ctx, "alice", segment.ID, TTSInput{})
	requireCode(t, err, errors.CodeExternalAPI)

	var stored models.Segment
	require.NoError(t, e.db.First(&stored, segment.ID).Error)
	assert.Equal(t, models.StatusError, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "tts backend down")
}

func TestDeleteSegmentRemovesFiles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)
	e.markExtracted(t, segment, project.ID)
	audioPath := e.layout.Abs(segment.AudioFile)

	require.NoError(t, e.segments.Delete(ctx, "alice", segment.ID))

	_, _, err := e.segments.Get(ctx, "alice", segment.ID)
	requireCode(t, err, errors.CodeNotFound)
	_, err = os.Stat(audioPath)
	assert.True(t, os.IsNotExist(err))
}

func TestSearchIndexedSegments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	index, err := search.OpenInMemory()
	require.NoError(t, err)
	defer index.Close()
	e.segments.index = index

	project := e.createProject(t, "alice")
	segment := e.createSegment(t, "alice", project.ID, 0, 5)
	e.markExtracted(t, segment, project.ID)
	_, err = e.segments.Analyze(ctx, "alice", segment.ID)
	require.NoError(t, err)

	hits, err := e.segments.Search(ctx, "alice", "fish", 0, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, segment.ID, hits[0].SegmentID)

	// Another user's query must not see the segment.
	hits, err = e.segments.Search(ctx, "bob", "fish", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	e := newEnv(t)

	index, err := search.OpenInMemory()
	require.NoError(t, err)
	defer index.Close()
	e.segments.index = index

	_, err = e.segments.Search(context.Background(), "alice", "   ", 0, 10)
	requireCode(t, err, errors.CodeValidation)
}
