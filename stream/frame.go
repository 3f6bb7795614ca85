// Package stream implements the chat backend's framed wire protocol: a
// stream of newline-delimited JSON frames decoded incrementally from
// arbitrary read boundaries, and the per-attempt accumulator that folds
// frames into renderable turn state.
package stream

// FrameType discriminates the frame union.
type FrameType string

const (
	// FrameText is a delta of the model's visible answer.
	FrameText FrameType = "text"
	// FrameThought is a delta of the model's thought summary.
	FrameThought FrameType = "thought"
	// FrameGrounding carries web-search citations for the response.
	FrameGrounding FrameType = "grounding"
	// FrameError signals that the provider could not complete the turn.
	FrameError FrameType = "error"
)

// Source is a single grounding citation.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Frame is one decoded unit of the streaming protocol.
type Frame struct {
	Type FrameType `json:"type"`
	// Value holds the delta for text/thought frames and the message for
	// error frames.
	Value string `json:"value,omitempty"`
	// Sources is set for grounding frames.
	Sources []Source `json:"sources,omitempty"`
}

// valid reports whether the frame carries a recognized type. Unknown or
// missing types are treated as protocol noise and dropped by the decoder.
func (f Frame) valid() bool {
	switch f.Type {
	case FrameText, FrameThought, FrameGrounding, FrameError:
		return true
	default:
		return false
	}
}
