// Package whispercpp implements asr.Provider on top of the whisper.cpp CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/fellmoon/sidecar/pkg/asr"
)

const (
	defaultLanguage = "en"

	// SampleRate is the input rate whisper.cpp expects. The media extraction
	// step resamples everything to this before transcription.
	SampleRate = 16000
)

// Compile-time assertion that Provider satisfies asr.Provider.
var _ asr.Provider = (*Provider)(nil)

// Provider implements asr.Provider using whisper.cpp Go bindings (CGO),
// eliminating HTTP overhead entirely. The model is loaded once and shared
// across all concurrent transcriptions; each Transcribe call runs on its own
// whisper context.
type Provider struct {
	model    whisperlib.Model
	language string
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the BCP-47 language code for transcription (e.g. "en",
// "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		if lang != "" {
			p.language = lang
		}
	}
}

// New creates a Provider that loads the whisper.cpp model from the given file
// path. The caller must call Close when the provider is no longer needed.
func New(modelPath string, opts ...Option) (*Provider, error) {
	if modelPath == "" {
		return nil, errors.New("whispercpp: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whispercpp: load model %q: %w", modelPath, err)
	}

	p := &Provider{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model. Must be called when the provider is no
// longer needed.
func (p *Provider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// Transcribe decodes the WAV file at audioPath and runs whisper.cpp inference
// over it. The file must contain 16 kHz 16-bit PCM audio; multi-channel input
// is down-mixed to mono before inference.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (*asr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whispercpp: context already cancelled: %w", err)
	}

	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("whispercpp: read audio %q: %w", audioPath, err)
	}
	audio, err := decodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("whispercpp: decode %q: %w", audioPath, err)
	}
	if audio.sampleRate != SampleRate {
		return nil, fmt.Errorf("whispercpp: %q has sample rate %d Hz, want %d Hz", audioPath, audio.sampleRate, SampleRate)
	}

	// Each context is NOT thread-safe, but the model can be shared across
	// goroutines, so every call gets a fresh one.
	wctx, err := p.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whispercpp: create context: %w", err)
	}

	if err := wctx.SetLanguage(p.language); err != nil {
		slog.Warn("whispercpp: failed to set language, using default", "language", p.language, "error", err)
	}

	if err := wctx.Process(audio.samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whispercpp: process audio: %w", err)
	}

	result := &asr.Result{Language: p.language}
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whispercpp: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		result.Segments = append(result.Segments, asr.Segment{
			Text:  text,
			Start: segment.Start.Seconds(),
			End:   segment.End.Seconds(),
		})
	}

	return result, nil
}
