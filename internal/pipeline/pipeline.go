// Package pipeline orchestrates the per-file transcription flow: audio
// extraction, speech recognition, vocabulary correction, paragraph grouping,
// sidecar rendering, and optional archiving. It fans the flow out over a
// bounded worker group for multi-file runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fellmoon/sidecar/internal/archive"
	"github.com/fellmoon/sidecar/internal/observe"
	"github.com/fellmoon/sidecar/internal/progress"
	"github.com/fellmoon/sidecar/internal/scan"
	"github.com/fellmoon/sidecar/internal/transcript"
	"github.com/fellmoon/sidecar/pkg/asr"
)

// Archiver persists completed runs. *archive.Store satisfies this interface.
type Archiver interface {
	SaveRun(ctx context.Context, run archive.Run, paragraphs []archive.ParagraphRecord) (int64, error)
}

// ExtractFunc converts a media file into a recognition-ready WAV inside
// tmpDir and returns its path.
type ExtractFunc func(ctx context.Context, inputPath, tmpDir string) (string, error)

// Options configures a [Pipeline]. Provider and Format are required.
type Options struct {
	// Provider performs speech recognition.
	Provider asr.Provider

	// Extract prepares media for the provider. When nil, the original
	// media path is handed to the provider unchanged.
	Extract ExtractFunc

	// Corrector fixes recognition errors against a known vocabulary.
	// May be nil.
	Corrector *transcript.Corrector

	// Format selects the sidecar serialization.
	Format transcript.Format

	// GapSeconds and MaxWords are the paragraph-break thresholds.
	GapSeconds float64
	MaxWords   int

	// Overwrite regenerates sidecars that already exist.
	Overwrite bool

	// ModelName and Language annotate the sidecar metadata header.
	ModelName string
	Language  string

	// Archiver persists completed runs. May be nil.
	Archiver Archiver

	// Metrics records pipeline telemetry. When nil, [observe.DefaultMetrics]
	// is used.
	Metrics *observe.Metrics

	// Status receives in-place progress updates. May be nil.
	Status *progress.LineStatus

	// Now supplies timestamps. Defaults to [time.Now].
	Now func() time.Time
}

// Pipeline processes media files into sidecar transcripts.
type Pipeline struct {
	opts Options
}

// New validates opts and returns a ready Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Provider == nil {
		return nil, errors.New("pipeline: Provider is required")
	}
	if !opts.Format.IsValid() {
		return nil, fmt.Errorf("pipeline: invalid format %q", opts.Format)
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.DefaultMetrics()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts}, nil
}

// Run processes all files with at most jobs running concurrently. A failing
// file does not stop the others; all per-file errors are joined into the
// returned error. Context cancellation stops scheduling of further files.
func (p *Pipeline) Run(ctx context.Context, files []string, jobs int) error {
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	errsCh := make(chan error, len(files))
	for _, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := p.ProcessFile(gctx, f); err != nil {
				observe.Logger(gctx).Error("file failed", "path", f, "error", err)
				errsCh <- fmt.Errorf("%s: %w", f, err)
			}
			// Per-file errors are collected, not returned, so one bad
			// file does not cancel the group.
			return nil
		})
	}

	runErr := g.Wait()
	close(errsCh)

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	for err := range errsCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ProcessFile runs the full flow for one media file and writes its sidecar
// next to it. An existing sidecar short-circuits the flow unless Overwrite
// is set.
func (p *Pipeline) ProcessFile(ctx context.Context, mediaPath string) error {
	ctx, span := observe.StartSpan(ctx, "pipeline.process_file")
	defer span.End()

	m := p.opts.Metrics
	log := observe.Logger(ctx).With("path", mediaPath)

	sidecarPath := scan.SidecarPath(mediaPath, p.opts.Format)
	if !p.opts.Overwrite {
		if _, err := os.Stat(sidecarPath); err == nil {
			log.Info("sidecar exists, skipping", "sidecar", sidecarPath)
			m.RecordFile(ctx, "skipped")
			return nil
		}
	}

	m.ActiveFiles.Add(ctx, 1)
	defer m.ActiveFiles.Add(ctx, -1)

	// Extract.
	audioPath := mediaPath
	if p.opts.Extract != nil {
		tmpDir, err := os.MkdirTemp("", "sidecar-*")
		if err != nil {
			m.RecordFileError(ctx, "extract")
			m.RecordFile(ctx, "error")
			return fmt.Errorf("pipeline: temp dir: %w", err)
		}
		defer os.RemoveAll(tmpDir)

		audioPath, err = p.opts.Extract(ctx, mediaPath, tmpDir)
		if err != nil {
			m.RecordFileError(ctx, "extract")
			m.RecordFile(ctx, "error")
			return err
		}
	}

	// Transcribe.
	start := p.opts.Now()
	result, err := p.opts.Provider.Transcribe(ctx, audioPath)
	m.TranscribeDuration.Record(ctx, p.opts.Now().Sub(start).Seconds())
	if err != nil {
		m.RecordFileError(ctx, "transcribe")
		m.RecordFile(ctx, "error")
		return err
	}

	segments := make([]transcript.Segment, len(result.Segments))
	for i, s := range result.Segments {
		segments[i] = transcript.Segment{
			Text:    s.Text,
			Start:   s.Start,
			End:     s.End,
			Speaker: s.Speaker,
		}
	}
	segments = p.opts.Corrector.CorrectSegments(segments)

	// Group.
	var observer transcript.Observer
	var words *progress.WordProgress
	if p.opts.Status != nil {
		words = progress.NewWordProgress(p.opts.Status, filepath.Base(mediaPath))
		observer = words.Observe
	}

	start = p.opts.Now()
	paragraphs, err := transcript.Group(segments, p.opts.GapSeconds, p.opts.MaxWords, observer)
	m.GroupDuration.Record(ctx, p.opts.Now().Sub(start).Seconds())
	if err != nil {
		m.RecordFileError(ctx, "group")
		m.RecordFile(ctx, "error")
		return err
	}

	totalWords := 0
	for _, para := range paragraphs {
		totalWords += para.Words
	}
	if words != nil {
		words.Finish(totalWords)
	}

	m.SegmentsProcessed.Add(ctx, int64(len(segments)))
	m.WordsProcessed.Add(ctx, int64(totalWords))
	m.ParagraphsEmitted.Add(ctx, int64(len(paragraphs)))

	// Render.
	diarized := hasSpeakerLabels(result.Segments)
	transcribedAt := p.opts.Now()
	meta := p.buildMetadata(result.Language, diarized, transcribedAt)

	start = p.opts.Now()
	doc, err := transcript.Render(p.opts.Format, paragraphs, mediaPath, meta)
	m.RenderDuration.Record(ctx, p.opts.Now().Sub(start).Seconds())
	if err != nil {
		m.RecordFileError(ctx, "render")
		m.RecordFile(ctx, "error")
		return err
	}

	if err := os.WriteFile(sidecarPath, []byte(doc), 0o644); err != nil {
		m.RecordFileError(ctx, "write")
		m.RecordFile(ctx, "error")
		return fmt.Errorf("pipeline: write sidecar %q: %w", sidecarPath, err)
	}

	// Archive.
	if p.opts.Archiver != nil {
		run := archive.Run{
			MediaPath:     mediaPath,
			SidecarPath:   sidecarPath,
			Format:        string(p.opts.Format),
			Model:         p.opts.ModelName,
			Language:      p.language(result.Language),
			Diarized:      diarized,
			WordCount:     totalWords,
			TranscribedAt: transcribedAt,
		}
		records := make([]archive.ParagraphRecord, len(paragraphs))
		for i, para := range paragraphs {
			records[i] = archive.ParagraphRecord{
				Position:  i,
				Speaker:   para.Speaker,
				StartSec:  para.Start,
				EndSec:    para.End,
				WordCount: para.Words,
				Body:      para.Text,
			}
		}
		if _, err := p.opts.Archiver.SaveRun(ctx, run, records); err != nil {
			m.RecordFileError(ctx, "archive")
			m.RecordFile(ctx, "error")
			return err
		}
	}

	log.Info("sidecar written",
		"sidecar", sidecarPath,
		"paragraphs", len(paragraphs),
		"words", totalWords,
	)
	m.RecordFile(ctx, "ok")
	return nil
}

// language prefers the provider-detected language over the configured hint.
func (p *Pipeline) language(detected string) string {
	if detected != "" {
		return detected
	}
	return p.opts.Language
}

// buildMetadata assembles the sidecar header entries in their fixed order.
func (p *Pipeline) buildMetadata(detected string, diarized bool, at time.Time) transcript.Metadata {
	var meta transcript.Metadata
	if p.opts.ModelName != "" {
		meta = append(meta, transcript.MetaEntry{Key: "Model", Value: p.opts.ModelName})
	}
	if lang := p.language(detected); lang != "" {
		meta = append(meta, transcript.MetaEntry{Key: "Language", Value: lang})
	}
	meta = append(meta, transcript.MetaEntry{Key: "Transcribed", Value: at.Format("2006-01-02 15:04:05")})
	diarization := "disabled"
	if diarized {
		diarization = "enabled"
	}
	meta = append(meta, transcript.MetaEntry{Key: "Diarization", Value: diarization})
	return meta
}

// hasSpeakerLabels reports whether any segment carries a diarization label.
func hasSpeakerLabels(segments []asr.Segment) bool {
	for _, s := range segments {
		if s.Speaker != "" {
			return true
		}
	}
	return false
}
