package dubbing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/renningen-dev/bobbervox/pkg/errors"
)

const (
	// TTS generation on a busy ChatterBox server is slow; health probes
	// must not be.
	chatterboxTimeout       = 2 * time.Minute
	chatterboxHealthTimeout = 3 * time.Second
)

// ChatterBoxClient talks to a ChatterBox TTS server. It implements
// Synthesizer and additionally supports reference-audio upload for voice
// cloning and a health probe.
type ChatterBoxClient struct {
	baseURL string
	client  *http.Client
	health  *http.Client
	logger  *logrus.Logger
}

func NewChatterBoxClient(baseURL string, logger *logrus.Logger) *ChatterBoxClient {
	return &ChatterBoxClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: chatterboxTimeout},
		health:  &http.Client{Timeout: chatterboxHealthTimeout},
		logger:  logger,
	}
}

func (c *ChatterBoxClient) BaseURL() string { return c.baseURL }

type uploadResponse struct {
	UploadedFiles     []string `json:"uploaded_files"`
	AllReferenceFiles []string `json:"all_reference_files"`
	Errors            []struct {
		Error string `json:"error"`
	} `json:"errors"`
}

// UploadReferenceAudio pushes a local audio file to the server's reference
// store under the given filename and returns the stored name.
func (c *ChatterBoxClient) UploadReferenceAudio(ctx context.Context, filePath, filename string) (string, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return "", errors.Processingf("audio file not found: %s", filePath)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return "", errors.Wrap(err, "build upload form")
	}
	if _, err := part.Write(raw); err != nil {
		return "", errors.Wrap(err, "build upload form")
	}
	if err := mw.Close(); err != nil {
		return "", errors.Wrap(err, "build upload form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload_reference", &body)
	if err != nil {
		return "", errors.Wrap(err, "create upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.connectionError(err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{"status": resp.StatusCode, "body": string(data)}).Error("chatterbox upload failed")
		return "", errors.ExternalAPIf("ChatterBox upload failed: %s", string(data))
	}

	var result uploadResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", errors.ExternalAPI(err, "parse ChatterBox upload response")
	}
	if contains(result.UploadedFiles, filename) {
		c.logger.WithField("filename", filename).Info("uploaded reference audio to chatterbox")
		return filename, nil
	}
	// A duplicate upload is skipped server-side but still usable.
	if contains(result.AllReferenceFiles, filename) {
		c.logger.WithField("filename", filename).Info("reference audio already exists on chatterbox")
		return filename, nil
	}
	msg := "unknown error"
	if len(result.Errors) > 0 {
		msg = result.Errors[0].Error
	}
	return "", errors.ExternalAPIf("failed to upload reference audio: %s", msg)
}

// Synthesize generates speech. Custom voices are uploaded first under a
// fresh unique name so concurrent requests cannot collide, then synthesized
// in clone mode. The full-featured /tts endpoint is used when any
// generation parameter is set, the OpenAI-compatible endpoint otherwise.
func (c *ChatterBoxClient) Synthesize(ctx context.Context, in SynthesisInput) error {
	if strings.TrimSpace(in.Text) == "" {
		return errors.Processingf("text cannot be empty")
	}
	if in.OutputPath == "" {
		return errors.Processingf("output path must be specified")
	}
	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	speed := in.Speed
	if speed == 0 {
		speed = 1.0
	}

	voice := in.Voice
	cloneMode := false
	if in.CustomVoicePath != "" {
		uniqueName := fmt.Sprintf("bobbervox_custom_%s.wav", uuid.New().String())
		if _, err := c.UploadReferenceAudio(ctx, in.CustomVoicePath, uniqueName); err != nil {
			return err
		}
		voice = uniqueName
		cloneMode = true
	} else if !strings.HasSuffix(voice, ".wav") && !strings.HasSuffix(voice, ".mp3") {
		voice += ".wav"
	}

	useCustomEndpoint := in.Temperature != nil || in.Exaggeration != nil || in.CFGWeight != nil

	var endpoint string
	var payload map[string]interface{}
	if useCustomEndpoint {
		endpoint = "/tts"
		payload = map[string]interface{}{
			"text":          in.Text,
			"voice_mode":    "predefined",
			"output_format": "wav",
			"speed_factor":  speed,
		}
		if cloneMode {
			payload["voice_mode"] = "clone"
			payload["reference_audio_filename"] = voice
		} else {
			payload["predefined_voice_id"] = voice
		}
		if in.Temperature != nil {
			payload["temperature"] = *in.Temperature
		}
		if in.Exaggeration != nil {
			payload["exaggeration"] = *in.Exaggeration
		}
		if in.CFGWeight != nil {
			payload["cfg_weight"] = *in.CFGWeight
		}
	} else {
		endpoint = "/v1/audio/speech"
		payload = map[string]interface{}{
			"model":           "chatterbox",
			"input":           in.Text,
			"voice":           voice,
			"response_format": "wav",
			"speed":           speed,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal TTS request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create TTS request")
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{"endpoint": endpoint, "voice": voice, "clone": cloneMode}).Info("chatterbox tts request")
	resp, err := c.client.Do(req)
	if err != nil {
		return c.connectionError(err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.ExternalAPI(err, "read ChatterBox response")
	}
	if resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{"status": resp.StatusCode, "body": string(audio)}).Error("chatterbox tts failed")
		return errors.ExternalAPIf("ChatterBox TTS failed: %s", string(audio))
	}

	if err := os.WriteFile(in.OutputPath, audio, 0o644); err != nil {
		return errors.Wrap(err, "write TTS output")
	}
	return nil
}

// CheckHealth reports whether the server answers within the short probe
// timeout.
func (c *ChatterBoxClient) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/docs", nil)
	if err != nil {
		return false
	}
	resp, err := c.health.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *ChatterBoxClient) connectionError(err error) error {
	c.logger.WithError(err).Error("chatterbox connection error")
	return errors.ExternalAPIf("failed to connect to ChatterBox server at %s, is the server running?", c.baseURL)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
