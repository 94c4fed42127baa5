// Command sidecar transcribes audio and video files into sidecar transcript
// files (txt, srt, or vtt) written next to the media.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fellmoon/sidecar/internal/archive"
	"github.com/fellmoon/sidecar/internal/config"
	"github.com/fellmoon/sidecar/internal/media"
	"github.com/fellmoon/sidecar/internal/observe"
	"github.com/fellmoon/sidecar/internal/pipeline"
	"github.com/fellmoon/sidecar/internal/progress"
	"github.com/fellmoon/sidecar/internal/scan"
	"github.com/fellmoon/sidecar/internal/transcript"
	"github.com/fellmoon/sidecar/pkg/asr"
	asropenai "github.com/fellmoon/sidecar/pkg/asr/openai"
	"github.com/fellmoon/sidecar/pkg/asr/whispercpp"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	format := flag.String("format", "", "sidecar format: txt, srt, or vtt")
	gapSeconds := flag.Float64("gap-seconds", 0, "silence gap that forces a paragraph break")
	maxWords := flag.Int("max-words", 0, "word cap per paragraph")
	provider := flag.String("provider", "", "ASR provider: whispercpp or openai")
	model := flag.String("model", "", "model path (whispercpp) or model name (openai)")
	language := flag.String("language", "", "language hint, e.g. en")
	recursive := flag.Bool("recursive", false, "descend into subdirectories of directory arguments")
	overwrite := flag.Bool("overwrite", false, "regenerate sidecars that already exist")
	extensions := flag.String("extensions", "", "comma-separated media extensions, e.g. .mp3,.mp4")
	jobs := flag.Int("jobs", 0, "number of files transcribed concurrently")
	metricsAddr := flag.String("metrics-addr", "", "listen address for the Prometheus /metrics endpoint")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: sidecar [flags] <file-or-directory> ...")
		flag.PrintDefaults()
		return 2
	}

	// ── Load configuration ────────────────────────────────────────────────────
	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sidecar: %v\n", err)
			return 1
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	// Flags that were set explicitly override the file values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Output.Format = *format
		case "gap-seconds":
			cfg.Grouping.GapSeconds = *gapSeconds
		case "max-words":
			cfg.Grouping.MaxWords = *maxWords
		case "provider":
			cfg.ASR.Name = *provider
		case "model":
			cfg.ASR.Model = *model
		case "language":
			cfg.ASR.Language = *language
		case "recursive":
			cfg.Scan.Recursive = *recursive
		case "overwrite":
			cfg.Output.Overwrite = *overwrite
		case "extensions":
			cfg.Scan.Extensions = splitExtensions(*extensions)
		case "jobs":
			cfg.Jobs = *jobs
		case "metrics-addr":
			cfg.Metrics.ListenAddr = *metricsAddr
		}
	})
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "sidecar: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.Log.Level))

	slog.Info("sidecar starting",
		"provider", cfg.ASR.Name,
		"format", cfg.Output.Format,
		"jobs", cfg.Jobs,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "sidecar"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(cfg.Metrics.ListenAddr)
	}

	// ── ASR provider ──────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	asrProvider, err := reg.CreateASR(cfg.ASR)
	if err != nil {
		slog.Error("failed to create ASR provider", "name", cfg.ASR.Name, "err", err)
		return 1
	}
	if closer, ok := asrProvider.(io.Closer); ok {
		defer closer.Close()
	}

	// ── Archive (optional) ────────────────────────────────────────────────────
	var archiver pipeline.Archiver
	if cfg.Archive.PostgresDSN != "" {
		store, pool, err := archive.Open(ctx, cfg.Archive.PostgresDSN)
		if err != nil {
			slog.Error("failed to open archive", "err", err)
			return 1
		}
		defer pool.Close()
		archiver = store
		slog.Info("archive connected")
	}

	// ── Media discovery ───────────────────────────────────────────────────────
	files, err := scan.Resolve(flag.Args(), cfg.Scan.Extensions, cfg.Scan.Recursive)
	if err != nil {
		slog.Error("failed to resolve paths", "err", err)
		return 1
	}
	if len(files) == 0 {
		slog.Warn("no media files found")
		return 0
	}
	slog.Info("media files resolved", "count", len(files))

	// ── Pipeline ──────────────────────────────────────────────────────────────
	// The hosted OpenAI endpoint accepts compressed containers directly;
	// whispercpp needs 16 kHz mono PCM, so those runs go through ffmpeg.
	var extract pipeline.ExtractFunc
	if cfg.ASR.Name != "openai" {
		extract = media.NewExtractor().ExtractWAV
	}

	p, err := pipeline.New(pipeline.Options{
		Provider:   asrProvider,
		Extract:    extract,
		Corrector:  transcript.NewCorrector(cfg.Vocabulary),
		Format:     transcript.Format(cfg.Output.Format),
		GapSeconds: cfg.Grouping.GapSeconds,
		MaxWords:   cfg.Grouping.MaxWords,
		Overwrite:  cfg.Output.Overwrite,
		ModelName:  displayModelName(cfg.ASR),
		Language:   cfg.ASR.Language,
		Archiver:   archiver,
		Status:     progress.NewLineStatus(os.Stderr),
	})
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}

	if err := p.Run(ctx, files, cfg.Jobs); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("interrupted")
			return 1
		}
		slog.Error("run finished with errors", "err", err)
		return 1
	}

	slog.Info("all files processed", "count", len(files))
	return 0
}

// registerBuiltinProviders wires the built-in ASR provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterASR("whispercpp", func(entry config.ProviderEntry) (asr.Provider, error) {
		var opts []whispercpp.Option
		if entry.Language != "" {
			opts = append(opts, whispercpp.WithLanguage(entry.Language))
		}
		return whispercpp.New(entry.Model, opts...)
	})

	reg.RegisterASR("openai", func(entry config.ProviderEntry) (asr.Provider, error) {
		var opts []asropenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, asropenai.WithBaseURL(entry.BaseURL))
		}
		if entry.Language != "" {
			opts = append(opts, asropenai.WithLanguage(entry.Language))
		}
		return asropenai.New(entry.APIKey, entry.Model, opts...)
	})
}

// serveMetrics exposes the Prometheus bridge on addr until the process exits.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics endpoint error", "err", err)
	}
}

// displayModelName returns the model identifier written into sidecar
// metadata. For whispercpp the configured value is a filesystem path, so only
// the file name is kept.
func displayModelName(entry config.ProviderEntry) string {
	if entry.Name == "whispercpp" {
		return strings.TrimSuffix(filepath.Base(entry.Model), filepath.Ext(entry.Model))
	}
	return entry.Model
}

// splitExtensions parses a comma-separated extension list, trimming blanks.
func splitExtensions(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, strings.ToLower(part))
	}
	return out
}

// newLogger builds the process-wide slog logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
