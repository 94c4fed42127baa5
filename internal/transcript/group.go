package transcript

// Paragraph is a merged run of one or more segments sharing a speaker and
// continuous timing. It is the unit of rendered output.
type Paragraph struct {
	// Speaker is the raw label inherited from the first contributing segment.
	Speaker string

	// Start is the start time of the first contributing segment; End is the
	// end time of the most recent one.
	Start float64
	End   float64

	// Text is the cleaned text of all contributing segments, joined with
	// single spaces in arrival order.
	Text string

	// Words is the running count of whitespace-delimited tokens in Text.
	Words int
}

// Observer receives the cumulative number of contributing words after each
// non-empty segment is folded in. It is a side-channel notification only and
// never affects grouping decisions. Observers run synchronously on the
// caller's goroutine, so they must not block or panic.
type Observer func(wordsProcessed int)

// Group folds segments into an ordered sequence of paragraphs.
//
// Each segment is cleaned first; segments that are empty after cleaning are
// dropped entirely. The first non-empty segment opens a paragraph. Each
// following non-empty segment extends the open paragraph unless a break
// condition fires, in which case the open paragraph is closed and a new one
// is opened from the segment. A break is forced if any of:
//
//   - the segment's speaker differs from the open paragraph's speaker
//     (missing labels are normalised to [DefaultSpeaker] before comparison),
//   - the gap between the paragraph's end and the segment's start is at
//     least gapSeconds, or
//   - the paragraph has already accumulated maxWords or more words. The cap
//     is checked before the segment is added, so a paragraph may exceed
//     maxWords by one segment's worth; the very next contributing segment
//     then always starts a new paragraph.
//
// A still-open paragraph is closed when the input ends, so every non-empty
// segment is represented in the output. observe may be nil.
//
// Group returns an error without producing output when any segment carries a
// non-finite or negative timing field.
func Group(segments []Segment, gapSeconds float64, maxWords int, observe Observer) ([]Paragraph, error) {
	var grouped []Paragraph
	var current *Paragraph
	processedWords := 0

	for i, seg := range segments {
		text := CleanText(seg.Text)
		if text == "" {
			continue
		}
		if err := validateTiming(i, seg); err != nil {
			return nil, err
		}

		speaker := seg.Speaker
		if speaker == "" {
			speaker = DefaultSpeaker
		}
		words := WordCount(text)

		switch {
		case current == nil:
			current = &Paragraph{Speaker: speaker, Start: seg.Start, End: seg.End, Text: text, Words: words}

		case speaker != current.Speaker ||
			seg.Start-current.End >= gapSeconds ||
			current.Words >= maxWords:
			grouped = append(grouped, *current)
			current = &Paragraph{Speaker: speaker, Start: seg.Start, End: seg.End, Text: text, Words: words}

		default:
			current.Text += " " + text
			current.End = seg.End
			current.Words += words
		}

		processedWords += words
		if observe != nil {
			observe(processedWords)
		}
	}

	if current != nil {
		grouped = append(grouped, *current)
	}
	return grouped, nil
}
