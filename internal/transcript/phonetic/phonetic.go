// Package phonetic implements the vocabulary-hint matcher used to repair
// near-miss proper nouns in recognised text, combining Double Metaphone
// phonetic encoding with Jaro-Winkler similarity for ranked candidate
// selection.
//
// The algorithm proceeds in two stages:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     each token of the input window and compared against the precomputed
//     codes of every vocabulary term. Any code overlap makes the term a
//     phonetic candidate.
//
//  2. Jaro-Winkler ranking: among phonetic candidates, the term with the
//     highest similarity (case-insensitive, on the original strings) wins —
//     provided its score clears the phonetic threshold. When no phonetic
//     candidate exists, a secondary pass accepts a pure similarity match at
//     a stricter fuzzy threshold.
//
// Multi-word terms ("Tower Bridge", "Jane Doe-Smith") are supported: the
// matcher scores full-string, space-stripped, and best pairwise token
// comparisons and keeps the highest.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched term to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) { m.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic candidate is found and the matcher falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) { m.fuzzyThreshold = threshold }
}

// term is a vocabulary entry with its lowercased tokens and Double Metaphone
// codes precomputed at construction time.
type term struct {
	original string
	lower    string
	tokens   []string
	codes    map[string]struct{}
}

// Matcher matches spoken-word windows against a fixed vocabulary. It is
// read-only after construction and therefore safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
	terms             []term
	maxWords          int
}

// New builds a [Matcher] over vocabulary. Blank entries are ignored. The
// vocabulary's phonetic codes are computed once here so that Match stays
// cheap on the per-segment hot path.
func New(vocabulary []string, opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	for _, v := range vocabulary {
		lower := strings.ToLower(strings.TrimSpace(v))
		if lower == "" {
			continue
		}
		tokens := strings.Fields(lower)
		m.terms = append(m.terms, term{
			original: strings.TrimSpace(v),
			lower:    lower,
			tokens:   tokens,
			codes:    codesForTokens(tokens),
		})
		if len(tokens) > m.maxWords {
			m.maxWords = len(tokens)
		}
	}
	return m
}

// Empty reports whether the matcher has no usable vocabulary.
func (m *Matcher) Empty() bool { return len(m.terms) == 0 }

// MaxWords returns the token count of the longest vocabulary term, which is
// the widest n-gram window worth testing. Zero when the vocabulary is empty.
func (m *Matcher) MaxWords() int { return m.maxWords }

// Match attempts to find the vocabulary term most phonetically similar to
// window, which may be a single word or a space-separated n-gram. When
// matched is false, corrected equals window unchanged and confidence is 0.
func (m *Matcher) Match(window string) (corrected string, confidence float64, matched bool) {
	windowLower := strings.ToLower(strings.TrimSpace(window))
	if len(m.terms) == 0 || windowLower == "" {
		return window, 0, false
	}
	windowTokens := strings.Fields(windowLower)
	windowCodes := codesForTokens(windowTokens)

	type candidate struct {
		term     string
		score    float64
		phonetic bool
	}
	var best candidate

	for _, t := range m.terms {
		score := bestSimilarity(windowTokens, t.tokens, windowLower, t.lower)

		if codesOverlap(windowCodes, t.codes) {
			if score >= m.phoneticThreshold {
				if !best.phonetic || score > best.score {
					best = candidate{term: t.original, score: score, phonetic: true}
				}
			}
		} else if !best.phonetic {
			if score >= m.fuzzyThreshold && score > best.score {
				best = candidate{term: t.original, score: score, phonetic: false}
			}
		}
	}

	if best.term != "" {
		return best.term, best.score, true
	}
	return window, 0, false
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes (short or consonant-free words) are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestSimilarity computes the highest Jaro-Winkler similarity between the
// window and a term using three strategies: full strings, space-stripped
// strings, and the best pairwise token score. The last handles the common
// case where one misrecognised spoken word maps to one term word.
func bestSimilarity(windowTokens, termTokens []string, windowFull, termFull string) float64 {
	score := matchr.JaroWinkler(windowFull, termFull, false)

	if len(windowTokens) > 1 || len(termTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(windowTokens, ""), strings.Join(termTokens, ""), false); s > score {
			score = s
		}
	}

	for _, wt := range windowTokens {
		for _, tt := range termTokens {
			if s := matchr.JaroWinkler(wt, tt, false); s > score {
				score = s
			}
		}
	}

	return score
}
