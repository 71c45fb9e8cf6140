package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renningen-dev/bobbervox/pkg/errors"
)

func newTestLayout(t *testing.T) *Layout {
	t.Helper()
	return NewLayout(t.TempDir(), []string{".mp4", ".mov"})
}

func TestCreateProjectDirs(t *testing.T) {
	l := newTestLayout(t)
	require.NoError(t, l.CreateProjectDirs("p1"))
	for _, sub := range []string{"source", "audio", "segments", "output"} {
		st, err := os.Stat(filepath.Join(l.ProjectDir("p1"), sub))
		require.NoError(t, err)
		assert.True(t, st.IsDir())
	}
}

func TestValidateVideoExtension(t *testing.T) {
	l := newTestLayout(t)

	ext, err := l.ValidateVideoExtension("Clip.MP4")
	require.NoError(t, err)
	assert.Equal(t, ".mp4", ext)

	_, err = l.ValidateVideoExtension("notes.txt")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.GetCode(err))
}

func TestSaveUpload(t *testing.T) {
	l := newTestLayout(t)
	require.NoError(t, l.CreateProjectDirs("p1"))

	rel, err := l.SaveUpload("p1", strings.NewReader("fake video bytes"), "movie.mov")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("p1", "source", "video.mov"), rel)

	data, err := os.ReadFile(l.Abs(rel))
	require.NoError(t, err)
	assert.Equal(t, "fake video bytes", string(data))
}

func TestResolveFile(t *testing.T) {
	l := newTestLayout(t)
	require.NoError(t, l.CreateProjectDirs("p1"))
	target := filepath.Join(l.AudioDir("p1"), "full_audio.wav")
	require.NoError(t, os.WriteFile(target, []byte("wav"), 0o644))

	t.Run("existing file", func(t *testing.T) {
		got, err := l.ResolveFile("p1", "audio", "full_audio.wav")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(got, filepath.Join("p1", "audio", "full_audio.wav")))
	})

	t.Run("traversal rejected", func(t *testing.T) {
		_, err := l.ResolveFile("p1", "audio", "../../p2/audio/secret.wav")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := l.ResolveFile("p1", "output", "nope.mp3")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("bad category", func(t *testing.T) {
		_, err := l.ResolveFile("p1", "source", "video.mp4")
		require.Error(t, err)
		assert.Equal(t, errors.CodeValidation, errors.GetCode(err))
	})
}
