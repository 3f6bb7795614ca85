package stream

import "testing"

func TestAccumulator_TextGrows(t *testing.T) {
	a := NewAccumulator()
	a.Apply(Frame{Type: FrameText, Value: "Hello, "})
	a.Apply(Frame{Type: FrameText, Value: "world"})
	if got := a.Text(); got != "Hello, world" {
		t.Errorf("Text = %q", got)
	}
	if a.ThoughtSummary() != "" {
		t.Error("thoughts should be empty")
	}
}

func TestAccumulator_ThoughtsSeparateFromText(t *testing.T) {
	a := NewAccumulator()
	a.ApplyAll([]Frame{
		{Type: FrameThought, Value: "considering"},
		{Type: FrameText, Value: "answer"},
		{Type: FrameThought, Value: " options"},
	})
	if a.Text() != "answer" {
		t.Errorf("Text = %q", a.Text())
	}
	if a.ThoughtSummary() != "considering options" {
		t.Errorf("ThoughtSummary = %q", a.ThoughtSummary())
	}
}

func TestAccumulator_GroundingDeduplication(t *testing.T) {
	a := NewAccumulator()
	a.Apply(Frame{Type: FrameGrounding, Sources: []Source{
		{Title: "Go", URI: "https://go.dev"},
		{Title: "Docs", URI: "https://go.dev/doc"},
	}})
	a.Apply(Frame{Type: FrameGrounding, Sources: []Source{
		{Title: "Go (duplicate)", URI: "https://go.dev"},
		{Title: "Blog", URI: "https://go.dev/blog"},
	}})

	sources := a.Sources()
	if len(sources) != 3 {
		t.Fatalf("sources = %v, want 3 unique by URI", sources)
	}
	// First occurrence's title wins, insertion order preserved.
	if sources[0].Title != "Go" || sources[0].URI != "https://go.dev" {
		t.Errorf("sources[0] = %v", sources[0])
	}
	if sources[1].URI != "https://go.dev/doc" || sources[2].URI != "https://go.dev/blog" {
		t.Errorf("order not preserved: %v", sources)
	}
}

func TestAccumulator_ErrorFrame(t *testing.T) {
	a := NewAccumulator()
	a.Apply(Frame{Type: FrameText, Value: "partial"})
	a.Apply(Frame{Type: FrameError, Value: "model overloaded"})
	a.Apply(Frame{Type: FrameError, Value: "second error"})

	if !a.Failed() {
		t.Error("Failed should be true after an error frame")
	}
	if a.ErrorMessage() != "model overloaded" {
		t.Errorf("ErrorMessage = %q, want first error kept", a.ErrorMessage())
	}
	// Text already accumulated is retained; the caller decides to discard it.
	if a.Text() != "partial" {
		t.Errorf("Text = %q", a.Text())
	}
}

func TestAccumulator_HasContent(t *testing.T) {
	a := NewAccumulator()
	if a.HasContent() {
		t.Error("empty accumulator has no content")
	}
	a.Apply(Frame{Type: FrameText, Value: "  \n\t "})
	if a.HasContent() {
		t.Error("whitespace-only text is not content")
	}
	a.Apply(Frame{Type: FrameText, Value: "x"})
	if !a.HasContent() {
		t.Error("non-blank text is content")
	}
}
