package stream

import (
	"encoding/json"
	"strings"

	"github.com/kbukum/chatkit/logger"
)

// Decoder incrementally parses the newline-delimited frame stream. A
// physical read may carry zero, one, or many complete frames plus a
// trailing partial line; the partial is buffered and completed by the
// next Feed call.
//
// A Decoder is bound to one attempt of one turn and is not safe for
// concurrent use.
type Decoder struct {
	pending strings.Builder
	dropped int
	log     *logger.Logger
}

// NewDecoder creates a decoder for one streaming attempt.
func NewDecoder() *Decoder {
	return &Decoder{log: logger.Component("stream")}
}

// Feed appends a chunk of the transport stream and returns every frame
// completed by it, in wire order. Lines that fail to parse are dropped and
// counted; they never abort decoding and never leak into accumulated text.
func (d *Decoder) Feed(chunk string) []Frame {
	d.pending.WriteString(chunk)

	buffered := d.pending.String()
	lines := strings.Split(buffered, "\n")

	// The last piece is an unterminated partial (possibly empty); it
	// becomes the new pending buffer.
	d.pending.Reset()
	d.pending.WriteString(lines[len(lines)-1])
	lines = lines[:len(lines)-1]

	var frames []Frame
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var f Frame
		if err := json.Unmarshal([]byte(line), &f); err != nil || !f.valid() {
			d.dropped++
			d.log.Debug("dropping malformed frame line", map[string]interface{}{
				logger.FieldDropped: d.dropped,
			})
			continue
		}
		frames = append(frames, f)
	}
	return frames
}

// Flush must be called when the transport signals end-of-stream. Any
// non-empty pending buffer is an incomplete trailing frame: it is dropped,
// not parsed. Flush returns the attempt's final dropped-line count and
// resets the decoder's cumulative state.
func (d *Decoder) Flush() int {
	if d.pending.Len() > 0 {
		d.dropped++
		d.log.Debug("dropping incomplete trailing frame", map[string]interface{}{
			logger.FieldDropped: d.dropped,
		})
	}
	d.pending.Reset()
	dropped := d.dropped
	d.dropped = 0
	return dropped
}

// Dropped returns the number of lines discarded so far in this attempt.
func (d *Decoder) Dropped() int { return d.dropped }
