package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentFilename(t *testing.T) {
	cases := []struct {
		start float64
		want  string
	}{
		{0.0, "segment_00m00s000ms.wav"},
		{0.001, "segment_00m00s001ms.wav"},
		{15.32, "segment_00m15s320ms.wav"},
		{125.5, "segment_02m05s500ms.wav"},
		{61.0, "segment_01m01s000ms.wav"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SegmentFilename(tc.start))
	}
}

func TestTTSFilename(t *testing.T) {
	assert.Equal(t, "tts_00m15s320ms.mp3", TTSFilename(15.32, ".mp3"))
	assert.Equal(t, "tts_02m05s500ms.wav", TTSFilename(125.5, ".wav"))
}

func TestExtractSegmentValidation(t *testing.T) {
	a := New("", "")
	ctx := context.Background()

	t.Run("missing source", func(t *testing.T) {
		err := a.ExtractSegment(ctx, "does-not-exist.wav", "out.wav", 0, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("negative start", func(t *testing.T) {
		src := writeTempFile(t)
		err := a.ExtractSegment(ctx, src, "out.wav", -1, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "negative")
	})

	t.Run("end before start", func(t *testing.T) {
		src := writeTempFile(t)
		err := a.ExtractSegment(ctx, src, "out.wav", 5, 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "greater than start")
	})
}

func TestExtractAudioMissingVideo(t *testing.T) {
	a := New("", "")
	err := a.ExtractAudio(context.Background(), "no-such-video.mp4", "out.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func writeTempFile(t *testing.T) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), "in.wav")
	require.NoError(t, os.WriteFile(f, []byte("RIFF"), 0o644))
	return f
}
