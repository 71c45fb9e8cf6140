package dubbing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	t.Run("json fence", func(t *testing.T) {
		content := "Here is the analysis:\n```json\n{\"tone\": \"calm\", \"emphasis\": [\"fish\"]}\n```\nDone."
		result, err := ExtractJSON(content)
		require.NoError(t, err)
		assert.Equal(t, "calm", result["tone"])
	})

	t.Run("plain fence", func(t *testing.T) {
		content := "```\n{\"emotion\": \"excited\"}\n```"
		result, err := ExtractJSON(content)
		require.NoError(t, err)
		assert.Equal(t, "excited", result["emotion"])
	})

	t.Run("raw json", func(t *testing.T) {
		result, err := ExtractJSON(`  {"transcription": "hello", "translated_text": "hallo"}  `)
		require.NoError(t, err)
		assert.Equal(t, "hello", result["transcription"])
		assert.Equal(t, "hallo", result["translated_text"])
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ExtractJSON("sorry, I could not process the audio")
		assert.Error(t, err)
	})
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt("Cooking show narration.", "English", "German")
	assert.True(t, strings.HasPrefix(prompt, "You are an audio analysis assistant."))
	assert.Contains(t, prompt, "Cooking show narration.")
	assert.Contains(t, prompt, "the audio is in English")
	assert.Contains(t, prompt, "Translate the transcription into German")
	assert.Contains(t, prompt, "TRANSLATED German text")
}

func TestBuildSystemPromptEmptyContext(t *testing.T) {
	prompt := BuildSystemPrompt("   ", "English", "Spanish")
	assert.Contains(t, prompt, "Analyze the audio content.")
}
