// Package sse turns an incrementally-arriving byte stream into discrete
// server-sent-event frames.
//
// The decoder is forward-only and non-restartable: bytes are fed in arrival
// order, complete frames come out in arrival order, and nothing is reordered
// or deduplicated. Chunk boundaries carry no meaning; any split of a
// well-formed stream decodes to the same frames.
package sse

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/wilhg/agui/pkg/errmodel"
)

// Frame is one parsed unit of the stream: the event name, the frame id, and
// the payload text assembled from its data lines.
type Frame struct {
	Event string
	ID    string
	Data  string
}

const separator = "\n\n"

// Decoder accumulates bytes across Feed calls and emits complete frames.
// The zero value is ready to use.
//
// The buffer holds raw bytes, not decoded text, so a multi-byte rune split
// across chunks is never a spurious failure; UTF-8 is validated per complete
// frame. A genuine validation failure is terminal: the decoder latches the
// error, discards its buffer, and every later Feed returns the same error.
type Decoder struct {
	buf []byte
	err error
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the internal buffer and returns every frame completed
// by it. Frames already emitted are never re-emitted. A nil slice with a nil
// error means the chunk completed no frame and the bytes are retained for the
// next call.
func (d *Decoder) Feed(chunk []byte) ([]Frame, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.buf = append(d.buf, chunk...)

	// Without a trailing separator the final segment is incomplete and stays
	// buffered; with one, every segment is complete and the buffer resets.
	complete := bytes.HasSuffix(d.buf, []byte(separator))
	segments := bytes.Split(d.buf, []byte(separator))
	if !complete {
		d.buf = segments[len(segments)-1]
		segments = segments[:len(segments)-1]
	} else {
		d.buf = nil
	}

	var frames []Frame
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if !utf8.Valid(seg) {
			d.err = errmodel.SSE("invalid UTF-8 in frame data")
			d.buf = nil
			return frames, d.err
		}
		frames = append(frames, parseFrame(string(seg)))
	}
	return frames, nil
}

// Buffered returns the number of bytes retained as an incomplete segment.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// parseFrame parses one complete segment line by line.
//
// "event:" sets the event name (last write wins), "id:" sets the frame id,
// each "data:" line contributes one payload line (at most one leading space
// stripped) joined with newlines. Unrecognized prefixes such as retry hints
// are ignored, as are empty lines.
func parseFrame(segment string) Frame {
	var f Frame
	var data []string
	for _, line := range strings.Split(segment, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "event:"):
			f.Event = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "id:"):
			f.ID = strings.TrimSpace(line[len("id:"):])
		case strings.HasPrefix(line, "data:"):
			v := line[len("data:"):]
			v = strings.TrimPrefix(v, " ")
			data = append(data, v)
		}
	}
	f.Data = strings.Join(data, "\n")
	return f
}
