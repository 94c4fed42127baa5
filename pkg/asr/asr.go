// Package asr defines the Provider interface for batch speech-recognition
// backends.
//
// An ASR provider wraps a recognition engine (a local whisper.cpp model, the
// hosted OpenAI transcription API, …) and exposes a uniform batch interface:
// given a prepared audio file, return the ordered sequence of recognised
// segments plus the detected language. Recognition quality, alignment, and
// diarization are entirely the provider's concern — downstream grouping and
// rendering consume only this contract.
//
// Implementations must be safe for concurrent use; the pipeline may
// transcribe several files at once against one provider.
package asr

import "context"

// Segment is a single recognised utterance span. Start and End are offsets
// into the audio in seconds. Speaker is the raw diarization label and may be
// empty when the backend does not diarize.
type Segment struct {
	Text    string
	Start   float64
	End     float64
	Speaker string
}

// Result is the output of one batch transcription.
type Result struct {
	// Segments are ordered by time.
	Segments []Segment

	// Language is the detected (or configured) BCP-47 language code. May be
	// empty when the backend does not report one.
	Language string
}

// Provider is the abstraction over any batch speech-recognition backend.
type Provider interface {
	// Transcribe recognises the audio file at audioPath and returns the
	// ordered segments. audioPath points at a 16 kHz mono 16-bit PCM WAV
	// file unless the provider documents otherwise.
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}
