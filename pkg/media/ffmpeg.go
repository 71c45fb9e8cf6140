package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/renningen-dev/bobbervox/pkg/errors"
)

// Adapter shells out to ffmpeg/ffprobe. All output audio is PCM 16-bit,
// 44.1kHz stereo WAV.
type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// ExtractAudio pulls the audio track out of a video file as WAV.
func (a *Adapter) ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	if _, err := os.Stat(videoPath); err != nil {
		return errors.Processingf("video file not found: %s", videoPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	return a.run(ctx,
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "2",
		outputPath,
	)
}

// ExtractSegment cuts [start, end) seconds out of an audio file.
func (a *Adapter) ExtractSegment(ctx context.Context, audioPath, outputPath string, start, end float64) error {
	if _, err := os.Stat(audioPath); err != nil {
		return errors.Processingf("audio file not found: %s", audioPath)
	}
	if start < 0 {
		return errors.Processingf("start time cannot be negative")
	}
	if end <= start {
		return errors.Processingf("end time must be greater than start time")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	return a.run(ctx,
		"-i", audioPath,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end-start),
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "2",
		outputPath,
	)
}

// Duration returns the length of a media file in seconds via ffprobe.
func (a *Adapter) Duration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, errors.Processingf("audio file not found: %s", path)
	}
	out, err := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, errors.Processingf("could not get audio duration: %s", truncateExecError(err))
	}
	s := strings.TrimSpace(string(out))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Processingf("could not parse audio duration %q", s)
	}
	return sec, nil
}

func (a *Adapter) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, append([]string{"-y"}, args...)...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = err.Error()
		}
		return errors.Processingf("ffmpeg processing failed: %s", truncate(msg, 500))
	}
	return nil
}

// SegmentFilename names an extracted clip after its start offset, to
// millisecond precision: 15.32 -> segment_00m15s320ms.wav.
func SegmentFilename(startTime float64) string {
	return "segment_" + timestampTag(startTime) + ".wav"
}

// TTSFilename names a synthesized clip; the extension depends on the
// provider (mp3 for OpenAI, wav for ChatterBox).
func TTSFilename(startTime float64, ext string) string {
	return "tts_" + timestampTag(startTime) + ext
}

func timestampTag(startTime float64) string {
	totalSeconds := int(startTime)
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	milliseconds := int((startTime - float64(totalSeconds)) * 1000)
	return fmt.Sprintf("%02dm%02ds%03dms", minutes, seconds, milliseconds)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func truncateExecError(err error) string {
	if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
		return truncate(string(ee.Stderr), 500)
	}
	return err.Error()
}
