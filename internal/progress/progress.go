// Package progress renders single-line, carriage-return status updates for
// interactive terminal use. Output goes to an io.Writer (stderr in the CLI)
// and never mixes with structured logs.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// LineStatus maintains one in-place status line. Each Update rewrites the
// line via carriage return, padding with spaces so a shorter message fully
// covers the previous one. Safe for concurrent use.
type LineStatus struct {
	mu      sync.Mutex
	w       io.Writer
	lastLen int
}

// NewLineStatus returns a LineStatus writing to w.
func NewLineStatus(w io.Writer) *LineStatus {
	return &LineStatus{w: w}
}

// Update rewrites the status line with msg.
func (s *LineStatus) Update(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pad := ""
	if n := s.lastLen - len(msg); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(s.w, "\r%s%s", msg, pad)
	s.lastLen = len(msg)
}

// Finish terminates the status line with a newline so subsequent output
// starts clean. A LineStatus that never updated writes nothing.
func (s *LineStatus) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastLen == 0 {
		return
	}
	fmt.Fprintln(s.w)
	s.lastLen = 0
}

// wordInterval is how many words must accumulate between status updates.
const wordInterval = 50

// WordProgress throttles word-count updates onto a LineStatus line. Its
// Observe method matches the grouping observer signature, reporting every
// 50 words processed.
type WordProgress struct {
	status *LineStatus
	label  string
	last   int
}

// NewWordProgress returns a WordProgress that prefixes each update with
// label (typically the file being transcribed).
func NewWordProgress(status *LineStatus, label string) *WordProgress {
	return &WordProgress{status: status, label: label}
}

// Observe reports the cumulative word count, updating the status line at
// most once per 50-word increment.
func (p *WordProgress) Observe(words int) {
	if words-p.last < wordInterval {
		return
	}
	p.last = words
	p.status.Update(fmt.Sprintf("%s: %d words", p.label, words))
}

// Finish writes the final word count and terminates the line.
func (p *WordProgress) Finish(words int) {
	p.status.Update(fmt.Sprintf("%s: %d words", p.label, words))
	p.status.Finish()
}
