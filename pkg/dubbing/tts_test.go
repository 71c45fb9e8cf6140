package dubbing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInstructions(t *testing.T) {
	d := StyleDirectives{
		TargetLanguage: "German",
		Tone:           "calm",
		Emotion:        "relaxed",
		Pace:           "slow",
		Emphasis:       []string{"Fisch", "Wasser"},
		PauseBefore:    []string{"dann"},
	}
	got := d.BuildInstructions()
	assert.Equal(t, "Speak in German. Tone: calm. Emotion: relaxed. Pace: slow. "+
		"Emphasize these words: Fisch, Wasser. Pause before these words: dann.", got)
}

func TestBuildInstructionsEmpty(t *testing.T) {
	assert.Equal(t, "", StyleDirectives{}.BuildInstructions())
}

func TestValidVoice(t *testing.T) {
	assert.True(t, ValidVoice("nova"))
	assert.True(t, ValidVoice("Abigail.wav"))
	assert.True(t, ValidVoice("custom:42:my-voice"))
	assert.False(t, ValidVoice("bogus"))
	assert.False(t, ValidVoice(""))
}

func TestProviderDefaultExtension(t *testing.T) {
	assert.Equal(t, ".mp3", ProviderOpenAI.DefaultExtension())
	assert.Equal(t, ".wav", ProviderChatterBox.DefaultExtension())
}
