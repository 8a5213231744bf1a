package sse

import (
	"errors"
	"io"

	"github.com/wilhg/agui/pkg/errmodel"
)

// Reader drains an io.Reader through a Decoder, yielding one frame at a time.
// Closing or aborting the underlying reader is the only way to halt it early;
// the decoder itself has no cancellation primitive.
type Reader struct {
	src     io.Reader
	dec     *Decoder
	pending []Frame
	chunk   []byte
	err     error
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src, dec: NewDecoder(), chunk: make([]byte, 4096)}
}

// Next returns the next frame in arrival order. It returns io.EOF once the
// stream ends gracefully; any bytes buffered as an incomplete segment at that
// point are dropped. Read failures surface as transport errors, decode
// failures as sse errors; both are terminal.
func (r *Reader) Next() (Frame, error) {
	for {
		if len(r.pending) > 0 {
			f := r.pending[0]
			r.pending = r.pending[1:]
			return f, nil
		}
		if r.err != nil {
			return Frame{}, r.err
		}
		n, err := r.src.Read(r.chunk)
		if n > 0 {
			frames, ferr := r.dec.Feed(r.chunk[:n])
			r.pending = append(r.pending, frames...)
			if ferr != nil {
				r.err = ferr
			}
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.err = io.EOF
			} else {
				r.err = errmodel.Transport(errmodel.CodeStream, err)
			}
		}
	}
}
