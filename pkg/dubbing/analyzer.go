package dubbing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/renningen-dev/bobbervox/pkg/errors"
)

const analysisModel = "gpt-4o-audio-preview"

// Analyzer sends segment audio to the OpenAI multimodal chat API and parses
// the delivery analysis out of its text response.
type Analyzer interface {
	AnalyzeAudio(ctx context.Context, audioPath, systemPrompt string) (map[string]interface{}, error)
}

type openaiAnalyzer struct {
	client *openai.Client
	logger *logrus.Logger
}

// NewOpenAIAnalyzer creates an analyzer backed by the given API key.
func NewOpenAIAnalyzer(apiKey string, logger *logrus.Logger) Analyzer {
	return &openaiAnalyzer{client: openai.NewClient(apiKey), logger: logger}
}

func (a *openaiAnalyzer) AnalyzeAudio(ctx context.Context, audioPath, systemPrompt string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, errors.Processingf("audio file not found: %s", audioPath)
	}

	suffix := strings.ToLower(filepath.Ext(audioPath))
	if suffix != ".wav" && suffix != ".mp3" {
		return nil, errors.Processingf("unsupported audio format: %s", suffix)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: analysisModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeInputAudio,
						InputAudio: &openai.ChatMessageInputAudio{
							Data:   base64.StdEncoding.EncodeToString(raw),
							Format: strings.TrimPrefix(suffix, "."),
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: UserPrompt(),
					},
				},
			},
		},
	})
	if err != nil {
		a.logger.WithError(err).Error("openai audio analysis request failed")
		return nil, errors.ExternalAPI(err, "failed to analyze audio")
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, errors.ExternalAPIf("empty response from OpenAI API")
	}
	content := resp.Choices[0].Message.Content
	a.logger.WithField("bytes", len(content)).Debug("openai analysis response received")

	result, err := ExtractJSON(content)
	if err != nil {
		a.logger.WithField("content", content).Error("failed to parse analysis response")
		return nil, errors.ExternalAPI(err, "failed to parse analysis response")
	}
	return result, nil
}

// ExtractJSON pulls a JSON object out of a chat response that may be wrapped
// in markdown code fences.
func ExtractJSON(content string) (map[string]interface{}, error) {
	jsonStr := strings.TrimSpace(content)
	if idx := strings.Index(content, "```json"); idx >= 0 {
		rest := content[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			jsonStr = strings.TrimSpace(rest[:end])
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			jsonStr = strings.TrimSpace(rest[:end])
		}
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, err
	}
	return result, nil
}
