package dubbing

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/renningen-dev/bobbervox/pkg/errors"
)

const openaiTTSModel = "tts-1-hd"

type openaiSynthesizer struct {
	client *openai.Client
	logger *logrus.Logger
}

// NewOpenAISynthesizer creates the OpenAI TTS backend. Output is MP3.
func NewOpenAISynthesizer(apiKey string, logger *logrus.Logger) Synthesizer {
	return &openaiSynthesizer{client: openai.NewClient(apiKey), logger: logger}
}

func (s *openaiSynthesizer) Synthesize(ctx context.Context, in SynthesisInput) error {
	if strings.TrimSpace(in.Text) == "" {
		return errors.Processingf("text cannot be empty")
	}
	if in.OutputPath == "" {
		return errors.Processingf("output path must be specified")
	}
	if !ValidVoice(in.Voice) || strings.HasPrefix(in.Voice, CustomVoicePrefix) {
		return errors.Processingf("invalid OpenAI voice %q", in.Voice)
	}
	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	req := openai.CreateSpeechRequest{
		Model:          openaiTTSModel,
		Input:          in.Text,
		Voice:          openai.SpeechVoice(in.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}
	if in.Speed > 0 {
		req.Speed = in.Speed
	}

	resp, err := s.client.CreateSpeech(ctx, req)
	if err != nil {
		s.logger.WithError(err).Error("openai tts request failed")
		return errors.ExternalAPI(err, "failed to generate TTS")
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return errors.ExternalAPI(err, "failed to read TTS response")
	}
	if err := os.WriteFile(in.OutputPath, audio, 0o644); err != nil {
		return errors.Wrap(err, "write TTS output")
	}
	s.logger.WithFields(logrus.Fields{"voice": in.Voice, "bytes": len(audio)}).Info("openai tts audio written")
	return nil
}
