package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fellmoon/sidecar/internal/transcript"
)

// Defaults applied by [ApplyDefaults] when the corresponding field is unset.
const (
	DefaultFormat     = "txt"
	DefaultGapSeconds = 2.5
	DefaultMaxWords   = 120
	DefaultLanguage   = "en"
	DefaultJobs       = 1
)

// DefaultExtensions is the built-in set of media file extensions scanned for
// transcription.
var DefaultExtensions = []string{
	".mp3", ".wav", ".m4a", ".flac", ".ogg", ".opus", ".wma", ".aac",
	".mp4", ".mkv", ".mov", ".avi", ".webm",
}

// ValidASRProviders lists known ASR provider names. Used by [Validate] to
// warn about unrecognised names.
var ValidASRProviders = []string{"whispercpp", "openai", "mock"}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config populated with all defaults, suitable for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields of cfg with their default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = LogInfo
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultFormat
	}
	if cfg.Grouping.GapSeconds == 0 {
		cfg.Grouping.GapSeconds = DefaultGapSeconds
	}
	if cfg.Grouping.MaxWords == 0 {
		cfg.Grouping.MaxWords = DefaultMaxWords
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = slices.Clone(DefaultExtensions)
	}
	if cfg.ASR.Name == "" {
		cfg.ASR.Name = "whispercpp"
	}
	if cfg.ASR.Language == "" {
		cfg.ASR.Language = DefaultLanguage
	}
	if cfg.Jobs == 0 {
		cfg.Jobs = DefaultJobs
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Log.Level != "" && !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}

	if f := transcript.Format(cfg.Output.Format); !f.IsValid() {
		errs = append(errs, fmt.Errorf("output.format %q is invalid; valid values: txt, srt, vtt", cfg.Output.Format))
	}

	if g := cfg.Grouping.GapSeconds; g < 0 || math.IsNaN(g) || math.IsInf(g, 0) {
		errs = append(errs, fmt.Errorf("grouping.gap_seconds %v must be a non-negative finite number", g))
	}
	if cfg.Grouping.MaxWords < 0 {
		errs = append(errs, fmt.Errorf("grouping.max_words %d must not be negative", cfg.Grouping.MaxWords))
	}

	for i, ext := range cfg.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("scan.extensions[%d] %q must start with a dot", i, ext))
		}
	}

	if cfg.ASR.Name != "" && !slices.Contains(ValidASRProviders, cfg.ASR.Name) {
		slog.Warn("unknown ASR provider name — may be a typo or third-party provider",
			"name", cfg.ASR.Name,
			"known", ValidASRProviders,
		)
	}
	if cfg.ASR.Name == "openai" && cfg.ASR.APIKey == "" {
		errs = append(errs, errors.New("asr.api_key is required when asr.name is openai"))
	}
	if cfg.ASR.Name == "whispercpp" && cfg.ASR.Model == "" {
		errs = append(errs, errors.New("asr.model (GGML model path) is required when asr.name is whispercpp"))
	}

	if cfg.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs %d must not be negative", cfg.Jobs))
	}

	return errors.Join(errs...)
}
