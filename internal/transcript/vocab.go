package transcript

import (
	"strings"

	"github.com/fellmoon/sidecar/internal/transcript/phonetic"
)

// Corrector repairs near-miss proper nouns in segment text using a
// user-supplied vocabulary before the text reaches the grouper. A nil
// *Corrector is valid and corrects nothing, so the pipeline behaves
// identically whether or not a vocabulary is configured.
type Corrector struct {
	matcher *phonetic.Matcher
}

// NewCorrector builds a Corrector over vocabulary. Returns nil when the
// vocabulary is empty so callers can pass the result straight through.
func NewCorrector(vocabulary []string, opts ...phonetic.Option) *Corrector {
	m := phonetic.New(vocabulary, opts...)
	if m.Empty() {
		return nil
	}
	return &Corrector{matcher: m}
}

// CorrectText rewrites tokens (and n-grams up to the longest vocabulary
// term) that phonetically match a vocabulary entry. Longer windows are
// tried first so multi-word terms take precedence over partial single-word
// matches. Unmatched tokens pass through untouched.
func (c *Corrector) CorrectText(text string) string {
	if c == nil {
		return text
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return text
	}

	maxWindow := c.matcher.MaxWords()
	var out []string

	i := 0
	for i < len(tokens) {
		maxN := maxWindow
		if i+maxN > len(tokens) {
			maxN = len(tokens) - i
		}

		matched := false
		for n := maxN; n >= 1; n-- {
			window := strings.Join(tokens[i:i+n], " ")
			term, _, ok := c.matcher.Match(window)
			if !ok {
				continue
			}
			out = append(out, strings.Fields(term)...)
			i += n
			matched = true
			break
		}

		if !matched {
			out = append(out, tokens[i])
			i++
		}
	}

	return strings.Join(out, " ")
}

// CorrectSegments returns a copy of segments with CorrectText applied to
// each segment's text. The input slice is not modified.
func (c *Corrector) CorrectSegments(segments []Segment) []Segment {
	if c == nil {
		return segments
	}
	out := make([]Segment, len(segments))
	copy(out, segments)
	for i := range out {
		out[i].Text = c.CorrectText(out[i].Text)
	}
	return out
}
