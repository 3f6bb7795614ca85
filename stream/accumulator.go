package stream

import "strings"

// Accumulator folds frames into the turn state visible to the caller.
// One accumulator lives for exactly one streaming attempt; a retry starts
// from a fresh one so partially-received content is never duplicated.
type Accumulator struct {
	text     strings.Builder
	thoughts strings.Builder
	sources  []Source
	seenURIs map[string]struct{}
	errMsg   string
	failed   bool
}

// NewAccumulator creates an empty accumulator for one attempt.
func NewAccumulator() *Accumulator {
	return &Accumulator{seenURIs: make(map[string]struct{})}
}

// Apply folds one frame into the accumulated state.
func (a *Accumulator) Apply(f Frame) {
	switch f.Type {
	case FrameText:
		a.text.WriteString(f.Value)
	case FrameThought:
		a.thoughts.WriteString(f.Value)
	case FrameGrounding:
		a.addSources(f.Sources)
	case FrameError:
		a.failed = true
		if a.errMsg == "" {
			a.errMsg = f.Value
		}
	}
}

// ApplyAll folds a sequence of frames in order.
func (a *Accumulator) ApplyAll(frames []Frame) {
	for _, f := range frames {
		a.Apply(f)
	}
}

// addSources merges new sources, unique by URI, insertion order preserved.
// The title of the first occurrence wins.
func (a *Accumulator) addSources(sources []Source) {
	for _, s := range sources {
		if _, ok := a.seenURIs[s.URI]; ok {
			continue
		}
		a.seenURIs[s.URI] = struct{}{}
		a.sources = append(a.sources, s)
	}
}

// Text returns the concatenated visible answer so far.
func (a *Accumulator) Text() string { return a.text.String() }

// ThoughtSummary returns the concatenated thought summary so far.
func (a *Accumulator) ThoughtSummary() string { return a.thoughts.String() }

// Sources returns the de-duplicated grounding sources in insertion order.
// The returned slice is the accumulator's own; callers must not mutate it.
func (a *Accumulator) Sources() []Source { return a.sources }

// Failed reports whether an error frame was observed.
func (a *Accumulator) Failed() bool { return a.failed }

// ErrorMessage returns the first error frame's message, if any.
func (a *Accumulator) ErrorMessage() string { return a.errMsg }

// HasContent reports whether the accumulated text is non-empty after
// trimming whitespace. A completed stream without content and without an
// error frame is treated as a transient provider failure by the caller.
func (a *Accumulator) HasContent() bool {
	return strings.TrimSpace(a.text.String()) != ""
}
