package dubbing

import (
	"fmt"
	"strings"
)

// DefaultContext is the analysis context used until the user edits it.
const DefaultContext = `The audio is from outdoor/rural environments, specifically fishing videos.
The speaker uses casual, relaxed language typical of outdoor content creators.`

const analysisSystemPrompt = `You are an audio analysis assistant.
%s

Your task is to:

1. Transcribe the uploaded audio accurately (the audio is in %s).
2. Translate the transcription into %s.
3. Analyze the speaker's delivery and describe:
   - Tone
   - Emotion
   - Speaking style
   - Pace, rhythm, and intonation
   - Volume and natural pauses
4. For the TRANSLATED %s text, identify:
   - Words that should be emphasized (emphasis)
   - Words that should have a pause before them (pause_before)`

const analysisUserPrompt = `Output everything in JSON format exactly like this:
{ "transcription": "...", "translated_text": "...", "tone": "...", "emotion": "...", "style": "...", "pace": "...", "intonation": "...", "voice": "...", "tempo": "...", "emphasis": ["word1", "word2"], "pause_before": ["word1", "word2"] }

The "emphasis" and "pause_before" arrays should contain words from the translated_text that need emphasis or pauses.`

// BuildSystemPrompt assembles the analysis system prompt from the
// user-editable context and the project's language pair.
func BuildSystemPrompt(context, sourceLanguage, targetLanguage string) string {
	context = strings.TrimSpace(context)
	if context == "" {
		context = "Analyze the audio content."
	}
	return fmt.Sprintf(analysisSystemPrompt, context, sourceLanguage, targetLanguage, targetLanguage)
}

// UserPrompt returns the fixed response-format instructions.
func UserPrompt() string {
	return analysisUserPrompt
}
