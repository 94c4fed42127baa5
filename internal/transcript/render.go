package transcript

import (
	"fmt"
	"strconv"
	"strings"
)

// Format selects the sidecar serialization.
type Format string

const (
	// FormatTXT is a timestamped, speaker-grouped plain-text transcript with
	// a commented metadata header.
	FormatTXT Format = "txt"

	// FormatSRT is the SubRip subtitle format: index-numbered cues with
	// comma-millisecond time ranges and no header.
	FormatSRT Format = "srt"

	// FormatVTT is the WebVTT caption format: a literal WEBVTT header,
	// metadata as NOTE lines, and dot-millisecond time ranges.
	FormatVTT Format = "vtt"
)

// IsValid reports whether f is a recognised sidecar format.
func (f Format) IsValid() bool {
	switch f {
	case FormatTXT, FormatSRT, FormatVTT:
		return true
	}
	return false
}

// Ext returns the sidecar file extension for f, including the leading dot.
func (f Format) Ext() string { return "." + string(f) }

// MetaEntry is a single descriptive key/value pair attached to a rendered
// document (model name, detected language, run timestamp, and so on).
type MetaEntry struct {
	Key   string
	Value string
}

// Metadata is an ordered list of descriptive entries. A slice rather than a
// map so that header lines render in a stable, caller-chosen order.
type Metadata []MetaEntry

// renderSpec is the per-format strategy consumed by the shared cue walk in
// [Render]: a header writer and a cue writer. The three formats differ only
// in these two hooks.
type renderSpec struct {
	header func(lines *[]string, audioPath string, meta Metadata)
	cue    func(lines *[]string, index int, p Paragraph, name string)
}

var renderSpecs = map[Format]renderSpec{
	FormatTXT: {
		header: func(lines *[]string, audioPath string, meta Metadata) {
			*lines = append(*lines, "# Transcription", "# Audio: "+audioPath)
			for _, m := range meta {
				*lines = append(*lines, fmt.Sprintf("# %s: %s", m.Key, m.Value))
			}
			*lines = append(*lines, "")
		},
		cue: func(lines *[]string, _ int, p Paragraph, name string) {
			*lines = append(*lines,
				fmt.Sprintf("[%s] %s", formatClock(p.Start), name),
				p.Text,
				"",
			)
		},
	},
	FormatSRT: {
		header: func(*[]string, string, Metadata) {},
		cue: func(lines *[]string, index int, p Paragraph, name string) {
			*lines = append(*lines,
				strconv.Itoa(index),
				formatMillis(p.Start, ',')+" --> "+formatMillis(p.End, ','),
				name+": "+p.Text,
				"",
			)
		},
	},
	FormatVTT: {
		header: func(lines *[]string, _ string, meta Metadata) {
			*lines = append(*lines, "WEBVTT", "")
			for _, m := range meta {
				*lines = append(*lines, fmt.Sprintf("NOTE %s: %s", m.Key, m.Value))
			}
			*lines = append(*lines, "")
		},
		cue: func(lines *[]string, _ int, p Paragraph, name string) {
			*lines = append(*lines,
				formatMillis(p.Start, '.')+" --> "+formatMillis(p.End, '.'),
				name+": "+p.Text,
				"",
			)
		},
	},
}

// Render serialises paragraphs into the requested sidecar format. audioPath
// is an opaque source identifier included in formats that carry a header;
// meta entries render in slice order. Display speaker names are assigned by
// first appearance via [AssignNames], so re-rendering the same paragraph
// sequence produces byte-identical output.
//
// The rendered document is trimmed of leading and trailing whitespace and
// ends with exactly one newline. An empty paragraph sequence is not an
// error: it yields a well-formed, near-empty document.
func Render(format Format, paragraphs []Paragraph, audioPath string, meta Metadata) (string, error) {
	spec, ok := renderSpecs[format]
	if !ok {
		return "", fmt.Errorf("transcript: unsupported format %q (valid: txt, srt, vtt)", format)
	}

	names := AssignNames(paragraphs)

	var lines []string
	spec.header(&lines, audioPath, meta)
	for i, p := range paragraphs {
		name, ok := names[p.Speaker]
		if !ok {
			name = p.Speaker
		}
		spec.cue(&lines, i+1, p, name)
	}

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n", nil
}
