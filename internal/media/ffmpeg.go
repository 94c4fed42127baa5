// Package media converts arbitrary audio and video containers into the
// 16 kHz mono PCM WAV input the recognition backends expect, by shelling out
// to ffmpeg.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// SampleRate is the output rate of extracted audio.
const SampleRate = 16000

// Extractor runs ffmpeg to produce recognition-ready WAV files.
type Extractor struct {
	ffmpegPath string
}

// Option is a functional option for Extractor.
type Option func(*Extractor)

// WithFFmpegPath overrides the ffmpeg binary location. Defaults to resolving
// "ffmpeg" via PATH.
func WithFFmpegPath(path string) Option {
	return func(e *Extractor) {
		if path != "" {
			e.ffmpegPath = path
		}
	}
}

// NewExtractor returns an Extractor ready for use.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{ffmpegPath: "ffmpeg"}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ExtractWAV decodes inputPath, drops any video stream, down-mixes to mono,
// resamples to 16 kHz, and writes 16-bit PCM WAV into tmpDir. It returns the
// path of the written file. The caller owns tmpDir cleanup.
func (e *Extractor) ExtractWAV(ctx context.Context, inputPath, tmpDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outPath := filepath.Join(tmpDir, base+".wav")

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", fmt.Sprint(SampleRate),
		"-c:a", "pcm_s16le",
		outPath,
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("media: ffmpeg %q: %w: %s", inputPath, err, msg)
		}
		return "", fmt.Errorf("media: ffmpeg %q: %w", inputPath, err)
	}
	return outPath, nil
}
