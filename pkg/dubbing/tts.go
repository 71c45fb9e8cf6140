package dubbing

import (
	"context"
	"strings"
)

// Provider identifies a TTS backend.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderChatterBox Provider = "chatterbox"
)

// DefaultExtension is the output format each provider produces.
func (p Provider) DefaultExtension() string {
	if p == ProviderChatterBox {
		return ".wav"
	}
	return ".mp3"
}

// SynthesisInput carries everything a provider needs for one synthesis call.
type SynthesisInput struct {
	Text         string
	Voice        string
	Instructions string
	OutputPath   string
	Speed        float64

	// Absolute path of an uploaded reference-audio file; set only for
	// custom voices (ChatterBox clone mode).
	CustomVoicePath string

	// ChatterBox generation parameters, nil when unset.
	Temperature  *float64
	Exaggeration *float64
	CFGWeight    *float64
}

// Synthesizer turns translated text into audio on disk.
type Synthesizer interface {
	Synthesize(ctx context.Context, in SynthesisInput) error
}

// StyleDirectives are the analysis fields that shape delivery; non-empty
// ones are concatenated into natural-language TTS instructions.
type StyleDirectives struct {
	TargetLanguage string
	Tone           string
	Emotion        string
	Style          string
	Pace           string
	Intonation     string
	Tempo          string
	Emphasis       []string
	PauseBefore    []string
}

// BuildInstructions renders the directives as sentences, target language
// first. Empty fields are skipped; all-empty directives yield "".
func (d StyleDirectives) BuildInstructions() string {
	var parts []string
	if d.TargetLanguage != "" {
		parts = append(parts, "Speak in "+d.TargetLanguage+".")
	}
	if d.Tone != "" {
		parts = append(parts, "Tone: "+d.Tone+".")
	}
	if d.Emotion != "" {
		parts = append(parts, "Emotion: "+d.Emotion+".")
	}
	if d.Style != "" {
		parts = append(parts, "Style: "+d.Style+".")
	}
	if d.Pace != "" {
		parts = append(parts, "Pace: "+d.Pace+".")
	}
	if d.Intonation != "" {
		parts = append(parts, "Intonation: "+d.Intonation+".")
	}
	if d.Tempo != "" {
		parts = append(parts, "Tempo: "+d.Tempo+".")
	}
	if len(d.Emphasis) > 0 {
		parts = append(parts, "Emphasize these words: "+strings.Join(d.Emphasis, ", ")+".")
	}
	if len(d.PauseBefore) > 0 {
		parts = append(parts, "Pause before these words: "+strings.Join(d.PauseBefore, ", ")+".")
	}
	return strings.Join(parts, " ")
}

// OpenAIVoices are the predefined OpenAI TTS voices.
var OpenAIVoices = []string{
	"alloy", "ash", "ballad", "cedar", "coral", "echo", "fable",
	"marin", "nova", "onyx", "sage", "shimmer", "verse",
}

// ChatterBoxVoices are the predefined ChatterBox reference files.
var ChatterBoxVoices = []string{
	"Abigail.wav", "Adrian.wav", "Alexander.wav", "Alice.wav", "Austin.wav",
	"Axel.wav", "Connor.wav", "Cora.wav", "Elena.wav", "Eli.wav",
	"Emily.wav", "Everett.wav", "Gabriel.wav", "Gianna.wav", "Henry.wav",
	"Ian.wav", "Jade.wav", "Jeremiah.wav", "Jordan.wav", "Julian.wav",
	"Layla.wav", "Leonardo.wav", "Michael.wav", "Miles.wav", "Olivia.wav",
	"Ryan.wav", "Taylor.wav", "Thomas.wav",
}

// CustomVoicePrefix marks voice identifiers of the form
// custom:{voice_id}:{name}.
const CustomVoicePrefix = "custom:"

// ValidVoice reports whether a voice identifier is a known predefined voice
// or a custom-voice reference.
func ValidVoice(voice string) bool {
	if strings.HasPrefix(voice, CustomVoicePrefix) {
		return true
	}
	for _, v := range OpenAIVoices {
		if voice == v {
			return true
		}
	}
	for _, v := range ChatterBoxVoices {
		if voice == v {
			return true
		}
	}
	return false
}
