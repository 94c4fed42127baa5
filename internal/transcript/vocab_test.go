package transcript_test

import (
	"testing"

	"github.com/fellmoon/sidecar/internal/transcript"
)

func TestCorrector_NilCorrectsNothing(t *testing.T) {
	t.Parallel()

	var c *transcript.Corrector
	if got := c.CorrectText("anything at all"); got != "anything at all" {
		t.Errorf("nil corrector changed text: %q", got)
	}

	segs := []transcript.Segment{{Text: "unchanged", Start: 0, End: 1}}
	if out := c.CorrectSegments(segs); &out[0] != &segs[0] {
		// nil corrector returns the input slice untouched
		t.Error("nil corrector copied the segment slice")
	}
}

func TestNewCorrector_EmptyVocabularyReturnsNil(t *testing.T) {
	t.Parallel()

	if c := transcript.NewCorrector(nil); c != nil {
		t.Error("NewCorrector(nil) != nil")
	}
	if c := transcript.NewCorrector([]string{" ", ""}); c != nil {
		t.Error("NewCorrector(blank entries) != nil")
	}
}

func TestCorrector_SingleWord(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector([]string{"Claude"})
	if c == nil {
		t.Fatal("NewCorrector returned nil for non-empty vocabulary")
	}
	got := c.CorrectText("i asked clawed about it")
	want := "i asked Claude about it"
	if got != want {
		t.Errorf("CorrectText = %q, want %q", got, want)
	}
}

func TestCorrector_MultiWordTerm(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector([]string{"New York Times"})
	got := c.CorrectText("new york tims reported it")
	want := "New York Times reported it"
	if got != want {
		t.Errorf("CorrectText = %q, want %q", got, want)
	}
}

func TestCorrector_SegmentsCopied(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector([]string{"Claude"})
	in := []transcript.Segment{
		{Speaker: "A", Text: "clawed said hello", Start: 0, End: 1},
		{Speaker: "B", Text: "", Start: 1, End: 2},
	}
	out := c.CorrectSegments(in)

	if in[0].Text != "clawed said hello" {
		t.Errorf("input slice was modified: %q", in[0].Text)
	}
	if out[0].Text != "Claude said hello" {
		t.Errorf("out[0].Text = %q, want %q", out[0].Text, "Claude said hello")
	}
	if out[1].Text != "" {
		t.Errorf("empty segment text changed: %q", out[1].Text)
	}
	if out[0].Start != in[0].Start || out[0].Speaker != in[0].Speaker {
		t.Error("non-text fields were not preserved")
	}
}
