package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/fellmoon/sidecar/internal/archive"
	"github.com/fellmoon/sidecar/internal/observe"
	"github.com/fellmoon/sidecar/internal/pipeline"
	"github.com/fellmoon/sidecar/internal/transcript"
	"github.com/fellmoon/sidecar/pkg/asr"
	"github.com/fellmoon/sidecar/pkg/asr/mock"
)

// fixedNow keeps metadata timestamps stable across runs.
var fixedNow = time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func touchMedia(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func defaultOptions(t *testing.T, provider asr.Provider) pipeline.Options {
	t.Helper()
	return pipeline.Options{
		Provider:   provider,
		Format:     transcript.FormatTXT,
		GapSeconds: 2.5,
		MaxWords:   120,
		ModelName:  "small.en",
		Language:   "en",
		Metrics:    testMetrics(t),
		Now:        func() time.Time { return fixedNow },
	}
}

func TestNew_RequiresProviderAndFormat(t *testing.T) {
	t.Parallel()

	if _, err := pipeline.New(pipeline.Options{Format: transcript.FormatTXT}); err == nil {
		t.Error("expected error for missing provider")
	}
	if _, err := pipeline.New(pipeline.Options{Provider: &mock.Provider{}, Format: "docx"}); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestProcessFile_WritesSidecar(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	media := touchMedia(t, dir, "talk.mp3")

	provider := &mock.Provider{Result: &asr.Result{
		Segments: []asr.Segment{
			{Text: " hello   there ", Start: 0.0, End: 1.2, Speaker: "A"},
			{Text: "world", Start: 1.4, End: 2.5, Speaker: "A"},
			{Text: "hi back", Start: 3.0, End: 4.0, Speaker: "B"},
		},
		Language: "en",
	}}

	p, err := pipeline.New(defaultOptions(t, provider))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.ProcessFile(context.Background(), media); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "talk.txt"))
	if err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}

	want := "# Transcription\n" +
		"# Audio: " + media + "\n" +
		"# Model: small.en\n" +
		"# Language: en\n" +
		"# Transcribed: 2026-08-23 10:30:00\n" +
		"# Diarization: enabled\n" +
		"\n" +
		"[00:00:00] Speaker 1\n" +
		"hello there world\n" +
		"\n" +
		"[00:00:03] Speaker 2\n" +
		"hi back\n"
	if string(data) != want {
		t.Errorf("sidecar mismatch:\ngot:\n%s\nwant:\n%s", data, want)
	}
}

func TestProcessFile_SkipsExistingSidecar(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	media := touchMedia(t, dir, "talk.mp3")

	existing := filepath.Join(dir, "talk.txt")
	if err := os.WriteFile(existing, []byte("old contents\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	provider := &mock.Provider{}
	p, err := pipeline.New(defaultOptions(t, provider))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.ProcessFile(context.Background(), media); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	if provider.CallCount() != 0 {
		t.Error("provider was called despite existing sidecar")
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "old contents\n" {
		t.Errorf("existing sidecar was modified: %q", data)
	}
}

func TestProcessFile_OverwriteRegenerates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	media := touchMedia(t, dir, "talk.mp3")
	if err := os.WriteFile(filepath.Join(dir, "talk.txt"), []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	provider := &mock.Provider{Result: &asr.Result{
		Segments: []asr.Segment{{Text: "fresh words", Start: 0, End: 1}},
	}}
	opts := defaultOptions(t, provider)
	opts.Overwrite = true

	p, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.ProcessFile(context.Background(), media); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	if provider.CallCount() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.CallCount())
	}
	data, _ := os.ReadFile(filepath.Join(dir, "talk.txt"))
	if !strings.Contains(string(data), "fresh words") {
		t.Errorf("sidecar not regenerated: %q", data)
	}
}

func TestProcessFile_ExtractFeedsProvider(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	media := touchMedia(t, dir, "clip.mp4")

	provider := &mock.Provider{Result: &asr.Result{
		Segments: []asr.Segment{{Text: "ok", Start: 0, End: 1}},
	}}
	var gotInput string
	opts := defaultOptions(t, provider)
	opts.Extract = func(_ context.Context, inputPath, tmpDir string) (string, error) {
		gotInput = inputPath
		wav := filepath.Join(tmpDir, "clip.wav")
		if err := os.WriteFile(wav, []byte("wav"), 0o644); err != nil {
			return "", err
		}
		return wav, nil
	}

	p, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.ProcessFile(context.Background(), media); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	if gotInput != media {
		t.Errorf("extract input = %q, want %q", gotInput, media)
	}
	if len(provider.Calls) != 1 || !strings.HasSuffix(provider.Calls[0], "clip.wav") {
		t.Errorf("provider received %v, want the extracted wav", provider.Calls)
	}
}

func TestProcessFile_ExtractErrorAborts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	media := touchMedia(t, dir, "clip.mp4")

	provider := &mock.Provider{}
	opts := defaultOptions(t, provider)
	opts.Extract = func(context.Context, string, string) (string, error) {
		return "", errors.New("codec not supported")
	}

	p, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.ProcessFile(context.Background(), media); err == nil {
		t.Fatal("expected extract error, got nil")
	}
	if provider.CallCount() != 0 {
		t.Error("provider called after extract failure")
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.txt")); err == nil {
		t.Error("sidecar written despite failure")
	}
}

func TestProcessFile_AppliesCorrector(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	media := touchMedia(t, dir, "talk.mp3")

	provider := &mock.Provider{Result: &asr.Result{
		Segments: []asr.Segment{{Text: "i asked clawed about it", Start: 0, End: 2}},
	}}
	opts := defaultOptions(t, provider)
	opts.Corrector = transcript.NewCorrector([]string{"Claude"})

	p, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.ProcessFile(context.Background(), media); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "talk.txt"))
	if !strings.Contains(string(data), "i asked Claude about it") {
		t.Errorf("vocabulary correction not applied:\n%s", data)
	}
}

// recordingArchiver captures SaveRun calls.
type recordingArchiver struct {
	run        archive.Run
	paragraphs []archive.ParagraphRecord
	err        error
	calls      int
}

func (a *recordingArchiver) SaveRun(_ context.Context, run archive.Run, paragraphs []archive.ParagraphRecord) (int64, error) {
	a.calls++
	a.run = run
	a.paragraphs = paragraphs
	if a.err != nil {
		return 0, a.err
	}
	return 1, nil
}

func TestProcessFile_Archives(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	media := touchMedia(t, dir, "talk.mp3")

	provider := &mock.Provider{Result: &asr.Result{
		Segments: []asr.Segment{
			{Text: "hello world", Start: 0, End: 1, Speaker: "A"},
			{Text: "hi back", Start: 5, End: 6, Speaker: "B"},
		},
		Language: "de",
	}}
	arch := &recordingArchiver{}
	opts := defaultOptions(t, provider)
	opts.Archiver = arch

	p, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.ProcessFile(context.Background(), media); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	if arch.calls != 1 {
		t.Fatalf("archiver calls = %d, want 1", arch.calls)
	}
	if arch.run.MediaPath != media || arch.run.Format != "txt" {
		t.Errorf("run = %+v", arch.run)
	}
	if arch.run.Language != "de" {
		t.Errorf("run.Language = %q, want detected language", arch.run.Language)
	}
	if !arch.run.Diarized || arch.run.WordCount != 4 {
		t.Errorf("run = %+v, want diarized with 4 words", arch.run)
	}
	if len(arch.paragraphs) != 2 {
		t.Fatalf("paragraphs = %d, want 2", len(arch.paragraphs))
	}
	if arch.paragraphs[1].Position != 1 || arch.paragraphs[1].Body != "hi back" {
		t.Errorf("paragraphs[1] = %+v", arch.paragraphs[1])
	}
	if arch.run.TranscribedAt != fixedNow {
		t.Errorf("TranscribedAt = %v, want %v", arch.run.TranscribedAt, fixedNow)
	}
}

func TestProcessFile_ArchiveErrorSurfaces(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	media := touchMedia(t, dir, "talk.mp3")

	provider := &mock.Provider{Result: &asr.Result{
		Segments: []asr.Segment{{Text: "hello", Start: 0, End: 1}},
	}}
	opts := defaultOptions(t, provider)
	opts.Archiver = &recordingArchiver{err: errors.New("db down")}

	p, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.ProcessFile(context.Background(), media); err == nil {
		t.Fatal("expected archive error, got nil")
	}
}

func TestRun_ContinuesPastFailingFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	good := touchMedia(t, dir, "good.mp3")
	bad := touchMedia(t, dir, "bad.mp3")

	provider := &mock.Provider{Result: &asr.Result{
		Segments: []asr.Segment{{Text: "fine", Start: 0, End: 1}},
	}}
	opts := defaultOptions(t, provider)
	opts.Extract = func(_ context.Context, inputPath, tmpDir string) (string, error) {
		if strings.Contains(inputPath, "bad") {
			return "", errors.New("corrupt container")
		}
		wav := filepath.Join(tmpDir, "a.wav")
		if err := os.WriteFile(wav, []byte("wav"), 0o644); err != nil {
			return "", err
		}
		return wav, nil
	}

	p, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = p.Run(context.Background(), []string{good, bad}, 2)
	if err == nil {
		t.Fatal("expected joined error from failing file, got nil")
	}
	if !strings.Contains(err.Error(), "corrupt container") {
		t.Errorf("err = %v", err)
	}

	// The good file still produced its sidecar.
	if _, statErr := os.Stat(filepath.Join(dir, "good.txt")); statErr != nil {
		t.Errorf("good sidecar missing: %v", statErr)
	}
}

func TestRun_AllSucceed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := touchMedia(t, dir, "a.mp3")
	b := touchMedia(t, dir, "b.mp3")

	provider := &mock.Provider{Result: &asr.Result{
		Segments: []asr.Segment{{Text: "hello", Start: 0, End: 1}},
	}}
	p, err := pipeline.New(defaultOptions(t, provider))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := p.Run(context.Background(), []string{a, b}, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if provider.CallCount() != 2 {
		t.Errorf("provider calls = %d, want 2", provider.CallCount())
	}
}
