package media_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fellmoon/sidecar/internal/media"
)

func TestExtractWAV_MissingBinary(t *testing.T) {
	t.Parallel()

	e := media.NewExtractor(media.WithFFmpegPath("/nonexistent/ffmpeg"))
	_, err := e.ExtractWAV(context.Background(), "in.mp3", t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing ffmpeg binary, got nil")
	}
	if !strings.Contains(err.Error(), "media: ffmpeg") {
		t.Errorf("err = %v", err)
	}
}

func TestExtractWAV_OutputPathShape(t *testing.T) {
	t.Parallel()

	// Use "true" as a stand-in binary: it exits 0 without writing output,
	// which is enough to observe the path ExtractWAV reports.
	e := media.NewExtractor(media.WithFFmpegPath("true"))
	out, err := e.ExtractWAV(context.Background(), "/audio/episode.07.mp4", t.TempDir())
	if err != nil {
		t.Fatalf("ExtractWAV: %v", err)
	}
	if !strings.HasSuffix(out, "/episode.07.wav") {
		t.Errorf("out = %q, want .../episode.07.wav", out)
	}
}

func TestExtractWAV_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := media.NewExtractor(media.WithFFmpegPath("sleep"))
	if _, err := e.ExtractWAV(ctx, "in.mp3", t.TempDir()); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}
