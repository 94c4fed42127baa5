// Package transcript implements the segment-grouping and sidecar-rendering
// pipeline: it folds raw speech-recognition segments into speaker-coherent
// paragraphs under timing and length constraints, and serialises the result
// as a plain-text, SRT, or WebVTT sidecar document.
//
// The package is pure: it performs no I/O, shares no state between calls,
// and processes its input strictly one segment at a time. Upstream
// recognition, alignment, and diarization are represented only by the
// [Segment] input contract.
package transcript

import (
	"fmt"
	"math"
	"strings"
)

// DefaultSpeaker is substituted for segments that arrive without a speaker
// label, so that unlabelled and labelled input compare uniformly.
const DefaultSpeaker = "SPEAKER_00"

// Segment is a single recognised utterance span as produced by the upstream
// ASR/alignment/diarization collaborator. Segments arrive ordered by time;
// the grouper does not re-sort them.
type Segment struct {
	// Text is the recognised text. It may contain embedded whitespace or
	// newlines and may be empty.
	Text string

	// Start and End are offsets into the audio in seconds. End >= Start is
	// expected but not guaranteed by upstream.
	Start float64
	End   float64

	// Speaker is the raw diarization label (e.g. "SPEAKER_01"). Empty means
	// unlabelled; [DefaultSpeaker] is substituted during grouping.
	Speaker string
}

// CleanText replaces newlines with spaces, collapses any run of whitespace
// into a single space, and trims leading and trailing whitespace. It is
// idempotent: CleanText(CleanText(s)) == CleanText(s).
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// WordCount counts whitespace-delimited tokens of already-cleaned text.
// Empty input yields zero.
func WordCount(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}

// validateTiming rejects timing fields that cannot be interpreted as finite,
// non-negative numbers. Downstream timestamp arithmetic would otherwise
// produce nonsensical output, so these fail fast instead of propagating.
func validateTiming(i int, seg Segment) error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"start", seg.Start},
		{"end", seg.End},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("transcript: segment %d: %s %v is not finite", i, f.name, f.value)
		}
		if f.value < 0 {
			return fmt.Errorf("transcript: segment %d: %s %v is negative", i, f.name, f.value)
		}
	}
	return nil
}
