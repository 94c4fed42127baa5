// Package scan resolves command-line path arguments into a deduplicated,
// sorted list of media files eligible for transcription.
package scan

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fellmoon/sidecar/internal/transcript"
)

// Resolve expands paths into the set of media files to transcribe. File
// arguments are included when their extension is in extensions, otherwise
// skipped with a warning. Directory arguments are listed, or walked fully
// when recursive is true. The result is deduplicated and sorted.
func Resolve(paths []string, extensions []string, recursive bool) ([]string, error) {
	extSet := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		extSet[strings.ToLower(e)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
	}

	hasMediaExt := func(p string) bool {
		_, ok := extSet[strings.ToLower(filepath.Ext(p))]
		return ok
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scan: stat %q: %w", p, err)
		}

		if !info.IsDir() {
			if !hasMediaExt(p) {
				slog.Warn("skipping non-media file", "path", p)
				continue
			}
			add(p)
			continue
		}

		if recursive {
			err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && hasMediaExt(path) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("scan: walk %q: %w", p, err)
			}
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("scan: read dir %q: %w", p, err)
		}
		for _, e := range entries {
			if !e.IsDir() && hasMediaExt(e.Name()) {
				add(filepath.Join(p, e.Name()))
			}
		}
	}

	slices.Sort(files)
	return files, nil
}

// SidecarPath returns the sidecar file path for the given media file and
// output format: the media extension is replaced with the format's.
func SidecarPath(mediaPath string, format transcript.Format) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + format.Ext()
}
